package container

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/handlers"
	"github.com/serroba/dynamic-links/internal/health"
	"github.com/serroba/dynamic-links/internal/metrics"
	"github.com/serroba/dynamic-links/internal/middleware"
	"github.com/serroba/dynamic-links/internal/ratelimit"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/serroba/dynamic-links/internal/store"
	"go.uber.org/zap"
)

// RateLimitPackage provides the per-client sliding window limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.SlidingWindowLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		var limitStore ratelimit.Store = store.NewRateLimitMemoryStore()
		if opts.Backend != BackendMemory {
			limitStore = store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client)
		}

		return ratelimit.NewSlidingWindowLimiter(limitStore,
			ratelimit.LimitConfig{Window: time.Minute, Max: int64(opts.RateLimitPerMinute)},
			ratelimit.LimitConfig{Window: time.Hour, Max: int64(opts.RateLimitPerHour)},
		), nil
	})
}

// HealthPackage provides the health handler over the dependencies the backend uses.
func HealthPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := map[string]health.Checker{}

		switch opts.Backend {
		case BackendPostgres:
			checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool)
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		case BackendRedis:
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		return health.NewHandler(checkers), nil
	})
}

// HTTPPackage provides the chi router and the huma API with every route registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)

		metrics.Init()
		router.Handle("/metrics", promhttp.Handler())

		config := huma.DefaultConfig("Dynamic Links", "1.0.0")
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
			handlers.SecuritySchemeAPIKey: {
				Type: "apiKey",
				In:   "header",
				Name: middleware.APIKeyHeader,
			},
		}

		api := humachi.New(router, config)
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.ClientAuth(api, do.MustInvoke[middleware.ClientLookup](i), logger),
			middleware.RateLimiter(api, do.MustInvoke[*ratelimit.SlidingWindowLimiter](i), logger),
		)

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(do.MustInvoke[*shortener.Service](i), logger))
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}
