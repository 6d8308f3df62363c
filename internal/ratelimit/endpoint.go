package ratelimit

import "github.com/danielgtaylor/huma/v2"

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig overrides the default limits for one operation.
// It is attached to huma operations via the Metadata field.
type EndpointConfig struct {
	// Limits replaces the limiter's defaults when non-empty.
	Limits []LimitConfig

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// EndpointConfigFor extracts the EndpointConfig from operation metadata, if present.
func EndpointConfigFor(op *huma.Operation) *EndpointConfig {
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
