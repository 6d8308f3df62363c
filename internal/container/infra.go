package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/store"
	"go.uber.org/zap"
)

// RedisClient owns the shared Redis connection and closes it on injector shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool owns the shared connection pool and closes it on injector shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		return &RedisClient{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

// PostgresPackage provides the PostgreSQL pool with the schema in place.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)
		ctx := context.Background()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		if err = store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ensuring schema: %w", err)
		}

		return &PostgresPool{Pool: pool}, nil
	})
}
