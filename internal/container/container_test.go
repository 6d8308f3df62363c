package container_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/dynamic-links/internal/container"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryOptions() *container.Options {
	return &container.Options{
		LogFormat:          "console",
		Backend:            container.BackendMemory,
		Strategy:           string(shortener.StrategySHA256),
		CodeLength:         8,
		MinLength:          5,
		MaxLength:          12,
		LockTTLSeconds:     60,
		RateLimitPerMinute: 100,
		RateLimitPerHour:   1000,
		ClientName:         "acme",
		ClientAPIKey:       "secret",
		ClientScheme:       "https",
		ClientHostname:     "dl.example",
	}
}

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.StrategyPackage(injector)
	container.InProcessBusPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ShortenerPackage(injector)
	container.RateLimitPackage(injector)
	container.HealthPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func TestHTTPPackage_MemoryBackend(t *testing.T) {
	injector := newInjector(t, memoryOptions())
	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	t.Run("creates a short link for the startup client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/short-links", strings.NewReader(`{"url":"https://example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "secret")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://dl.example/"))
	})

	t.Run("rejects unknown api keys", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/short-links", strings.NewReader(`{"url":"https://example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", "nope")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("serves health and metrics without a key", func(t *testing.T) {
		for _, path := range []string{"/health", "/metrics"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})
}

func TestStrategyPackage_UnknownStrategy(t *testing.T) {
	opts := memoryOptions()
	opts.Strategy = "rot13"

	injector := newInjector(t, opts)

	_, err := do.Invoke[shortener.Strategy](injector)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rot13")
}

func TestWorkerConfig_Options(t *testing.T) {
	t.Setenv("WORKER_BACKEND", "memory")
	t.Setenv("LOCK_TTL", "90s")

	cfg, err := container.LoadWorkerConfig()
	require.NoError(t, err)

	opts := cfg.Options()

	assert.Equal(t, container.BackendMemory, opts.Backend)
	assert.Equal(t, 90, opts.LockTTLSeconds)
	assert.Equal(t, 300, opts.CacheTTLSeconds)
	assert.Equal(t, "shorten-workers", opts.ConsumerGroup)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}
