package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/dynamic-links/internal/shortener"
	"go.uber.org/zap"
)

// Shortener is the subset of shortener.Service the handlers depend on.
type Shortener interface {
	Shorten(ctx context.Context, client shortener.Client, url string, opts ...shortener.ExpiryOption) (string, error)
	ShortenAsync(ctx context.Context, client shortener.Client, url string, opts ...shortener.ExpiryOption) (bool, error)
}

// LinkHandler handles short link creation.
type LinkHandler struct {
	shortener Shortener
	logger    *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(s Shortener, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		shortener: s,
		logger:    logger,
	}
}

func (h *LinkHandler) CreateShortLink(
	ctx context.Context, req *CreateShortLinkRequest,
) (*CreateShortLinkResponse, error) {
	client, ok := ClientFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing client")
	}

	shortURL, err := h.shortener.Shorten(ctx, client, req.Body.URL, expiryOptions(req.Body)...)
	if err != nil {
		h.logFailure(ctx, "failed to create short link", client, err)

		return nil, huma.Error500InternalServerError("failed to create short link")
	}

	resp := &CreateShortLinkResponse{}
	resp.Headers.Location = shortURL
	resp.Body.ShortURL = shortURL

	return resp, nil
}

func (h *LinkHandler) EnqueueShortLink(
	ctx context.Context, req *EnqueueShortLinkRequest,
) (*EnqueueShortLinkResponse, error) {
	client, ok := ClientFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing client")
	}

	accepted, err := h.shortener.ShortenAsync(ctx, client, req.Body.URL, expiryOptions(req.Body)...)
	if err != nil {
		h.logFailure(ctx, "failed to enqueue short link", client, err)

		return nil, huma.Error500InternalServerError("failed to enqueue short link")
	}

	resp := &EnqueueShortLinkResponse{}
	resp.Body.Accepted = accepted

	return resp, nil
}

func (h *LinkHandler) logFailure(ctx context.Context, msg string, client shortener.Client, err error) {
	meta := RequestMetaFromContext(ctx)
	h.logger.Error(msg,
		zap.Int64("client_id", client.ID),
		zap.String("client_ip", meta.ClientIP),
		zap.String("user_agent", meta.UserAgent),
		zap.Error(err),
	)
}

func expiryOptions(body ShortLinkBody) []shortener.ExpiryOption {
	if body.ExpiresAt == "" {
		return nil
	}

	return []shortener.ExpiryOption{shortener.WithExpiresAtString(body.ExpiresAt)}
}
