package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"outreach-console/internal/config"
	"outreach-console/internal/db"
)

// Drivers soportados por STORAGE_DRIVER.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open selecciona el backend de storage según la configuración. El cierre devuelto
// libera las conexiones abiertas y nunca es nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.StorageDriver)) {
	case "", DriverFile:
		fs, err := NewFileStorage(cfg.StoragePath, cfg.StorageSecret)
		if err != nil {
			return nil, noop, err
		}
		if cfg.StorageSecret == "" {
			logger.Warn("file storage without STORAGE_SECRET, values are stored in clear")
		}
		return fs, noop, nil

	case DriverMemory:
		return NewMemoryStorage(), noop, nil

	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, noop, fmt.Errorf("%w: REDIS_ADDR not configured", ErrStorageUnavailable)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("%w: redis ping: %v", ErrStorageUnavailable, err)
		}
		return NewRedisStorage(client, cfg.StorageNS), func() { _ = client.Close() }, nil

	case DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		pg := NewPgStorage(pool, cfg.StorageNS)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure storage schema: %w", err)
		}
		return pg, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
