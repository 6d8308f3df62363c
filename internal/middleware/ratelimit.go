package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/dynamic-links/internal/handlers"
	"github.com/serroba/dynamic-links/internal/ratelimit"
	"go.uber.org/zap"
)

// Limiter applies either its default limits or an explicit set.
type Limiter interface {
	ratelimit.Limiter
	Check(ctx context.Context, key string, limits []ratelimit.LimitConfig) (bool, *ratelimit.LimitExceeded, error)
}

// RateLimiter returns a huma middleware that limits requests per authenticated client,
// falling back to IP and User-Agent for anonymous requests.
//
// Operations may override the defaults through ratelimit.MetadataKey. Overridden limits
// are counted per route template, defaults are shared across routes.
func RateLimiter(api huma.API, limiter Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		cfg := ratelimit.EndpointConfigFor(op)

		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		key := requesterKey(ctx)

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.Check(ctx.Context(), key+":route:"+op.Path, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key)
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			msg := "rate limit exceeded"
			if exceeded != nil {
				msg = fmt.Sprintf("rate limit exceeded: %d/%d requests in %s",
					exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
				logger.Warn("rate limit exceeded",
					zap.String("key", key),
					zap.Int64("count", exceeded.Count),
					zap.Int64("max", exceeded.Config.Max),
					zap.Duration("window", exceeded.Config.Window),
				)
			}

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return
		}

		next(ctx)
	}
}

// requesterKey identifies the caller: the client ID when authenticated, otherwise a
// hash of IP and User-Agent.
func requesterKey(ctx huma.Context) string {
	if client, ok := handlers.ClientFromContext(ctx.Context()); ok {
		return "client:" + strconv.FormatInt(client.ID, 10)
	}

	hash := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return "anon:" + hex.EncodeToString(hash[:])
}
