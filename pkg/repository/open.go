package repository

import (
	"context"
	"fmt"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Open builds the backend selected by cfg.Storage.Driver. Network backends
// are pinged once; an unreachable backend is an error, not a silent fallback.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		logger.Info("Using file storage", zap.String("dir", cfg.Storage.Dir))
		return NewFileBackend(afero.NewOsFs(), cfg.Storage.Dir)
	case "memory":
		logger.Warn("Using memory storage, state will not survive a restart")
		return NewMemoryBackend(), nil
	case "redis":
		backend := NewRedisBackend(&cfg.Redis, cfg.Storage.Prefix)
		if err := backend.Ping(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("Using redis storage", zap.String("addr", cfg.Redis.Addr))
		return backend, nil
	case "mongo":
		backend, err := NewMongoBackend(&cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := backend.Ping(ctx); err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		logger.Info("Using mongo storage",
			zap.String("database", cfg.MongoDB.Database),
			zap.String("collection", cfg.MongoDB.Collection))
		return backend, nil
	case "mysql":
		backend, err := NewMySQLBackend(&cfg.MySQL)
		if err != nil {
			return nil, err
		}
		logger.Info("Using mysql storage", zap.String("host", cfg.MySQL.Host))
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
