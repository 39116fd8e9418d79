package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.SignalContext(context.Background())
	defer cancel()

	kv, err := openStorage(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.RegisterCloser("storage", kv)

	var (
		bufferStore *buffer.Store
		sizer       monitor.BufferSizer
	)
	if cfg.BufferNeeded() {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, "buffer")
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.RegisterCloser("buffer", bufferStore)
		sizer = bufferStore
	}

	mon := monitor.New(cfg.Storage.Driver, kv, sizer, 10*time.Second, zapLogger)
	mon.Refresh()
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var (
		snapshots usecase.SnapshotBuffer
		storeKV   repository.KeyValueStore = kv
	)
	if bufferStore != nil {
		bufferProcessor := services.NewBufferProcessor(
			bufferStore,
			mon,
			kv,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  50,
				MaxRetries: cfg.Buffer.MaxRetry,
				Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
			},
		)
		// Replay what a previous run could not write before loading state.
		if err := bufferProcessor.Drain(appCtx); err != nil {
			zapLogger.Warn("initial buffer drain failed", zap.Error(err))
		}
		bufferProcessor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			bufferProcessor.Stop(ctx)
			return nil
		})
		// Direct writes go through the bridge so they serialize with replay.
		bridge := services.NewBufferBridge(bufferProcessor, cfg.Board.ThemeKey)
		snapshots = bridge
		storeKV = bridge
	}

	store := taskUC.New(storeKV, snapshots, zapLogger, taskUC.Options{
		TasksKey:     cfg.Board.TasksKey,
		ThemeKey:     cfg.Board.ThemeKey,
		LoadingDelay: cfg.Board.LoadingDelay,
		SkipSeed:     !cfg.Board.SeedOnFirstRun,
		Location:     cfg.Location(),
	})
	if err := store.Init(appCtx); err != nil {
		zapLogger.Fatal("failed to load tasks", zap.Error(err))
	}
	manager.Register("task_store", func(ctx context.Context) error {
		store.Close()
		return nil
	})

	dispatcher := usecase.NewDispatcher()
	taskUC.RegisterIntents(dispatcher, store)

	ctxAdapter := httpcontext.NewAdapter(appCtx, cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(dispatcher, cfg.Location(), ctxAdapter, zapLogger),
		Board:  apiHandler.NewBoardHandler(dispatcher, cfg.Location(), ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	var authMiddleware router.Middleware
	if cfg.JWT.Secret != "" {
		authMiddleware = middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	} else {
		zapLogger.Warn("JWT_SECRET not set, API is unauthenticated")
	}
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Strings("intents", dispatcher.Commands()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
