package handlers

import (
	"context"

	"github.com/serroba/dynamic-links/internal/shortener"
)

type (
	requestMetaKey struct{}
	clientKey      struct{}
)

// RequestMeta holds HTTP request metadata attached to log lines.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// ContextWithClient stores the authenticated client.
func ContextWithClient(ctx context.Context, client shortener.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the authenticated client, if any.
func ClientFromContext(ctx context.Context) (shortener.Client, bool) {
	client, ok := ctx.Value(clientKey{}).(shortener.Client)

	return client, ok
}
