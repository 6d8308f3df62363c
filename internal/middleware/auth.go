package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/dynamic-links/internal/handlers"
	"github.com/serroba/dynamic-links/internal/shortener"
	"go.uber.org/zap"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "X-API-Key"

// ClientLookup resolves API keys to clients.
type ClientLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*shortener.Client, error)
}

// ClientAuth authenticates operations that declare a security requirement and stores
// the resolved client in the request context. Public operations pass through untouched.
func ClientAuth(
	api huma.API, clients ClientLookup, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op == nil || len(op.Security) == 0 {
			next(ctx)

			return
		}

		apiKey := ctx.Header(APIKeyHeader)
		if apiKey == "" {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing api key")

			return
		}

		client, err := clients.GetByAPIKey(ctx.Context(), apiKey)
		if err != nil {
			if errors.Is(err, shortener.ErrUnknownClient) {
				_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "unknown api key")

				return
			}

			logger.Error("client lookup failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		next(huma.WithContext(ctx, handlers.ContextWithClient(ctx.Context(), *client)))
	}
}
