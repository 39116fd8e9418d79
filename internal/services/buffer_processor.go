package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// BufferProcessor replays buffered snapshots into the primary key-value store.
// Direct writes made through Write and replays hold the same lock, so a
// replayed snapshot never lands after a newer write for its key.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	kv      repository.KeyValueStore
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig

	writeMu sync.Mutex
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	kv repository.KeyValueStore,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		kv:      kv,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	seconds := int(cfg.Interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	schedule := fmt.Sprintf("@every %ds", seconds)
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		logger.Error("failed to schedule buffer drain", zap.String("schedule", schedule), zap.Error(err))
	}
	if cfg.Retention > 0 {
		if _, err := bp.cron.AddFunc("@hourly", bp.Prune); err != nil {
			logger.Error("failed to schedule buffer cleanup", zap.Error(err))
		}
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain writes buffered snapshots to the primary store synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		bp.replay(ctx, item)
	}
	return nil
}

func (bp *BufferProcessor) replay(ctx context.Context, item buffer.Item) {
	bp.writeMu.Lock()
	defer bp.writeMu.Unlock()

	present, err := bp.store.Has(item)
	if err != nil {
		bp.logger.Error("failed to check buffered snapshot", zap.String("item_id", item.ID), zap.Error(err))
		return
	}
	if !present {
		bp.logger.Debug("buffered snapshot superseded", zap.String("item_id", item.ID), zap.String("key", item.Key))
		return
	}

	if err := bp.kv.Set(ctx, item.Key, item.Value); err != nil {
		bp.logger.Error("failed to replay buffered snapshot",
			zap.String("item_id", item.ID),
			zap.String("key", item.Key),
			zap.Error(err))

		item.Retries++
		if item.Retries >= bp.cfg.MaxRetries {
			bp.logger.Warn("dropping buffered snapshot (max retries reached)", zap.String("item_id", item.ID))
			_ = bp.store.Remove(item)
			return
		}

		if err := bp.store.Requeue(item); err != nil {
			bp.logger.Error("failed to requeue buffered snapshot", zap.Error(err))
		}
		return
	}

	if err := bp.store.Remove(item); err != nil {
		bp.logger.Warn("failed to purge replayed snapshot", zap.Error(err))
	}
	bp.logger.Info("buffered snapshot replayed", zap.String("key", item.Key))
}

// Write stores value in the primary store and drops any buffered snapshot
// for key, which the write supersedes.
func (bp *BufferProcessor) Write(ctx context.Context, key, value string) error {
	bp.writeMu.Lock()
	defer bp.writeMu.Unlock()

	if err := bp.kv.Set(ctx, key, value); err != nil {
		return err
	}
	if bp.store == nil {
		return nil
	}
	if err := bp.store.DiscardKey(key); err != nil {
		bp.logger.Warn("failed to discard superseded snapshot", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Prune drops snapshots older than the configured retention.
func (bp *BufferProcessor) Prune() {
	if bp == nil || bp.store == nil || bp.cfg.Retention <= 0 {
		return
	}
	if err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention)); err != nil {
		bp.logger.Error("buffer cleanup failed", zap.Error(err))
	}
}

// BufferSnapshot persists a snapshot for later replay.
func (bp *BufferProcessor) BufferSnapshot(item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}
