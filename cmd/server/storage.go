package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	"github.com/fastygo/taskboard/repository/memory"
	pgRepo "github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
)

// openStorage connects the key-value backend selected by STORAGE_DRIVER.
// Closing the returned store releases the underlying connection.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, tasks will not survive a restart")
		return memory.NewKeyValueRepository(), nil

	case config.DriverBolt:
		kv, err := boltRepo.Open(cfg.Storage.Path, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open bolt storage: %w", err)
		}
		logger.Info("opened bolt storage", zap.String("path", cfg.Storage.Path))
		return kv, nil

	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisRepo.NewKeyValueRepository(client, cfg.Storage.Namespace+":"), nil

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pgRepo.NewKeyValueRepository(pool, cfg.Storage.Namespace), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
