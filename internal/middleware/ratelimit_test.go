package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/dynamic-links/internal/handlers"
	"github.com/serroba/dynamic-links/internal/middleware"
	"github.com/serroba/dynamic-links/internal/ratelimit"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/serroba/dynamic-links/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testHostAddr  = "192.168.1.1:12345"
	testUserAgent = "TestAgent/1.0"
)

// capturingLimiter records the last key and limits it was asked about.
type capturingLimiter struct {
	allowed   bool
	err       error
	key       string
	limits    []ratelimit.LimitConfig
	usedCheck bool
}

func (c *capturingLimiter) Allow(_ context.Context, key string) (bool, *ratelimit.LimitExceeded, error) {
	c.key, c.usedCheck = key, false

	return c.allowed, nil, c.err
}

func (c *capturingLimiter) Check(
	_ context.Context, key string, limits []ratelimit.LimitConfig,
) (bool, *ratelimit.LimitExceeded, error) {
	c.key, c.limits, c.usedCheck = key, limits, true

	return c.allowed, nil, c.err
}

func anonymousContext(ua string) *mockHumaContext {
	ctx := newMockHumaContext()
	ctx.host = testHostAddr
	ctx.headers["User-Agent"] = ua

	return ctx
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows request when limiter allows", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: true}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		nextCalled := false

		mw(anonymousContext(testUserAgent), func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled, "next should be called when allowed")
	})

	t.Run("returns 429 with limit details when rate limited", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(),
			ratelimit.LimitConfig{Window: time.Minute, Max: 1})
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		mw(anonymousContext(testUserAgent), func(_ huma.Context) {})

		ctx := anonymousContext(testUserAgent)
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "next should not be called when rate limited")
		assert.Equal(t, 429, ctx.statusCode)
		assert.Contains(t, string(ctx.written), "2/1 requests in 1m0s")
	})

	t.Run("keys authenticated requests by client id", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: true}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		ctx := anonymousContext(testUserAgent)
		ctx.ctx = handlers.ContextWithClient(context.Background(), shortener.Client{ID: 42})

		mw(ctx, func(_ huma.Context) {})

		assert.Equal(t, "client:42", limiter.key)
	})

	t.Run("keys anonymous requests by IP and User-Agent", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: true}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		mw(anonymousContext(testUserAgent), func(_ huma.Context) {})
		key1 := limiter.key

		mw(anonymousContext(testUserAgent), func(_ huma.Context) {})
		assert.Equal(t, key1, limiter.key, "same IP and User-Agent should produce same key")

		mw(anonymousContext("DifferentAgent/2.0"), func(_ huma.Context) {})
		assert.NotEqual(t, key1, limiter.key, "different User-Agent should produce different key")
	})

	t.Run("uses first X-Forwarded-For address", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: true}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		ctx1 := anonymousContext(testUserAgent)
		ctx1.host = "10.0.0.1:12345"
		ctx1.headers["X-Forwarded-For"] = "203.0.113.195, 70.41.3.18"
		mw(ctx1, func(_ huma.Context) {})
		key1 := limiter.key

		ctx2 := anonymousContext(testUserAgent)
		ctx2.host = "10.0.0.2:54321"
		ctx2.headers["X-Forwarded-For"] = "203.0.113.195"
		mw(ctx2, func(_ huma.Context) {})

		assert.Equal(t, key1, limiter.key)
	})

	t.Run("applies endpoint limits per route", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: true}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())
		limits := []ratelimit.LimitConfig{{Window: time.Minute, Max: 3}}

		ctx := anonymousContext(testUserAgent)
		ctx.ctx = handlers.ContextWithClient(context.Background(), shortener.Client{ID: 7})
		ctx.operation = &huma.Operation{
			Path:     "/v1/short-links/async",
			Metadata: map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{Limits: limits}},
		}

		mw(ctx, func(_ huma.Context) {})

		require.True(t, limiter.usedCheck)
		assert.Equal(t, "client:7:route:/v1/short-links/async", limiter.key)
		assert.Equal(t, limits, limiter.limits)
	})

	t.Run("skips disabled endpoints", func(t *testing.T) {
		limiter := &capturingLimiter{allowed: false}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		ctx := anonymousContext(testUserAgent)
		ctx.operation = &huma.Operation{
			Metadata: map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true}},
		}

		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.True(t, nextCalled)
		assert.Empty(t, limiter.key)
	})

	t.Run("returns 500 when limiter errors", func(t *testing.T) {
		limiter := &capturingLimiter{err: errors.New("limiter error")}
		mw := middleware.RateLimiter(newTestAPI(), limiter, zap.NewNop())

		ctx := anonymousContext(testUserAgent)
		nextCalled := false

		mw(ctx, func(_ huma.Context) {
			nextCalled = true
		})

		assert.False(t, nextCalled, "next should not be called when limiter errors")
		assert.Equal(t, 500, ctx.statusCode)
	})
}
