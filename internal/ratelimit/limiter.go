package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LimitConfig caps the number of requests allowed within a sliding window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// LimitExceeded describes the limit a denied request ran into.
type LimitExceeded struct {
	Config LimitConfig
	Count  int64
}

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow records a request for key and reports whether it stays within every limit.
	// The LimitExceeded value is nil when the request is allowed.
	Allow(ctx context.Context, key string) (bool, *LimitExceeded, error)
}

// SlidingWindowLimiter enforces one or more sliding windows per key.
type SlidingWindowLimiter struct {
	store  Store
	limits []LimitConfig
}

// NewSlidingWindowLimiter creates a limiter that checks every limit in order.
func NewSlidingWindowLimiter(store Store, limits ...LimitConfig) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limits: limits,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, *LimitExceeded, error) {
	return l.Check(ctx, key, l.limits)
}

// Check is Allow with an explicit set of limits instead of the limiter's defaults.
func (l *SlidingWindowLimiter) Check(
	ctx context.Context, key string, limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		// Each window is tracked independently for the same key.
		count, err := l.store.Record(ctx, fmt.Sprintf("%s:%d", key, limit.Window.Milliseconds()), limit.Window)
		if err != nil {
			return false, nil, err
		}

		if count > limit.Max {
			return false, &LimitExceeded{Config: limit, Count: count}, nil
		}
	}

	return true, nil, nil
}
