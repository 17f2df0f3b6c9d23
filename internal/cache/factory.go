package cache

import (
	"context"
	"fmt"
	"log/slog"

	"zest/internal/config"
)

func MakeCache(ctx context.Context, cfg *config.Config) (Cache, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		slog.InfoContext(ctx, "Using in-memory storage; liked recipes are lost on restart")
		return NewInMemoryCache(), nil
	case config.BackendRedis:
		slog.InfoContext(ctx, "Using Redis for storage")
		return NewRedisCache(ctx, cfg.Storage.RedisURL, "zest:")
	case config.BackendAzure:
		slog.InfoContext(ctx, "Using Azure Blob Storage for storage", "container", cfg.Storage.Container)
		return NewBlobCache(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Storage.Container)
	case config.BackendSQLite:
		slog.InfoContext(ctx, "Using SQLite for storage", "path", cfg.Storage.SQLitePath)
		return NewSQLiteCache(cfg.Storage.SQLitePath)
	case config.BackendFile, "":
		slog.InfoContext(ctx, "Using local files for storage", "dir", cfg.Storage.Dir)
		return NewFileCache(cfg.Storage.Dir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
