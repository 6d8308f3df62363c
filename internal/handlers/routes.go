package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/dynamic-links/internal/ratelimit"
)

// SecuritySchemeAPIKey names the X-API-Key security scheme in the OpenAPI document.
const SecuritySchemeAPIKey = "apiKey"

// APIKeySecurity is the security requirement for client-authenticated operations.
var APIKeySecurity = []map[string][]string{{SecuritySchemeAPIKey: {}}}

// RegisterRoutes registers the short link routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-link",
		Method:        http.MethodPost,
		Path:          "/v1/short-links",
		Summary:       "Create short link",
		Description:   "Generates a code with the configured strategy and stores it before responding.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Security:      APIKeySecurity,
	}, h.CreateShortLink)

	// Async requests get a wider window than the default limits.
	huma.Register(api, huma.Operation{
		OperationID:   "enqueue-short-link",
		Method:        http.MethodPost,
		Path:          "/v1/short-links/async",
		Summary:       "Enqueue short link",
		Description:   "Generates a code and defers its storage to the worker. Duplicate in-flight requests are not re-enqueued.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusAccepted,
		Security:      APIKeySecurity,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 120},
					{Window: time.Hour, Max: 2000},
				},
			},
		},
	}, h.EnqueueShortLink)
}
