package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockbook/internal/config"
	"stockbook/internal/database"
	"stockbook/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend is an opened Store plus the connections behind it. DB and Redis
// are nil when the backend does not use them.
type Backend struct {
	Store Store
	DB    *sql.DB
	Redis *redis.Client
}

// Close releases the connections held by the backend
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Redis != nil {
		b.Redis.Close()
	}
}

// Open builds the Store selected by cfg.Store.Backend. The postgres backend
// is migrated before use when migrate is set. A redis client is also opened
// for the memory and postgres backends when rate limiting is configured; if
// it cannot be reached it is left nil.
func Open(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*Backend, error) {
	b := &Backend{}

	wantRedis := cfg.Store.Backend == config.BackendRedis || (cfg.RateLimit.Requests > 0 && cfg.Redis.Host != "")
	if wantRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			if cfg.Store.Backend == config.BackendRedis {
				return nil, fmt.Errorf("%w: failed to connect to redis: %w", domain.ErrStorage, err)
			}
			logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			b.Redis = client
		}
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		b.DB = db
		logger.Info("Database health check", zap.Any("health", database.Health(ctx, db)))

		if migrate {
			if err := database.RunMigrations(db, cfg.Store.MigrationsDir, logger); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.Store = NewPostgresStore(db)
	case config.BackendRedis:
		b.Store = NewRedisStore(b.Redis, cfg.Redis.KeyPrefix)
	default:
		b.Store = NewMemoryStore()
	}

	return b, nil
}
