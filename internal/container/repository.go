package container

import (
	"context"
	"errors"
	"time"

	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/middleware"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/serroba/dynamic-links/internal/store"
	"go.uber.org/zap"
)

// RepositoryPackage provides link storage, the client directory and the async locker.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Storage, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Backend {
		case BackendMemory:
			return store.NewMemoryStore(), nil
		case BackendRedis:
			return store.NewRedisStore(do.MustInvoke[*RedisClient](i).Client), nil
		default:
			var storage shortener.Storage = store.NewPostgresStore(do.MustInvoke[*PostgresPool](i).Pool)
			if opts.CacheTTLSeconds > 0 {
				storage = store.NewRedisCacheRepository(
					storage,
					do.MustInvoke[*RedisClient](i).Client,
					time.Duration(opts.CacheTTLSeconds)*time.Second,
				)
			}

			return storage, nil
		}
	})

	do.Provide(injector, func(i *do.Injector) (middleware.ClientLookup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		seed, err := seedClient(opts)
		if err != nil {
			return nil, err
		}

		if opts.Backend != BackendPostgres {
			clients := store.NewClientMemoryStore()
			if seed != nil {
				registered := clients.Add(*seed)
				logger.Info("registered client", zap.Int64("client_id", registered.ID), zap.String("name", registered.Name))
			}

			return clients, nil
		}

		clients := store.NewPostgresClientStore(do.MustInvoke[*PostgresPool](i).Pool)
		if seed != nil {
			registered, err := clients.Upsert(context.Background(), *seed)
			if err != nil {
				return nil, err
			}

			logger.Info("registered client", zap.Int64("client_id", registered.ID), zap.String("name", registered.Name))
		}

		return clients, nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.Locker, error) {
		opts := do.MustInvoke[*Options](i)
		ttl := time.Duration(opts.LockTTLSeconds) * time.Second

		if opts.Backend == BackendMemory {
			return store.NewMemoryLocker(ttl), nil
		}

		return store.NewRedisLocker(do.MustInvoke[*RedisClient](i).Client, ttl), nil
	})
}

var errIncompleteClient = errors.New("startup client needs name, api key and hostname")

func seedClient(opts *Options) (*shortener.Client, error) {
	if opts.ClientAPIKey == "" {
		return nil, nil
	}

	if opts.ClientName == "" || opts.ClientHostname == "" {
		return nil, errIncompleteClient
	}

	return &shortener.Client{
		Name:     opts.ClientName,
		APIKey:   opts.ClientAPIKey,
		Scheme:   opts.ClientScheme,
		Hostname: opts.ClientHostname,
	}, nil
}
