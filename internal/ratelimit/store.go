package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for rate limit data storage.
type Store interface {
	// Record adds a request for key and returns how many requests fall inside the
	// trailing window, the new one included. Entries older than the window are dropped.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
