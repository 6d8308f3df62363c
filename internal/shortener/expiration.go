package shortener

import (
	"fmt"
	"strings"
	"time"
)

// expiry carries the caller's expiration input before it is parsed.
type expiry struct {
	at  *time.Time
	raw string
	set bool
}

// ExpiryOption sets the expiration of a shortened URL.
type ExpiryOption func(*expiry)

// WithExpiresAt sets an exact expiration time.
func WithExpiresAt(t time.Time) ExpiryOption {
	return func(e *expiry) {
		e.at = &t
		e.raw = ""
		e.set = true
	}
}

// WithExpiresAtString sets an expiration from a timestamp string. Unparseable input is
// logged and the link is created without an expiration.
func WithExpiresAtString(s string) ExpiryOption {
	return func(e *expiry) {
		e.at = nil
		e.raw = s
		e.set = true
	}
}

var expirationLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseExpiresAt parses a timestamp string. Layouts without a zone are read as UTC.
// An empty string means no expiration.
func ParseExpiresAt(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	for _, layout := range expirationLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("parsing expires_at %q: unrecognized timestamp format", s)
}

func collectExpiry(opts []ExpiryOption) expiry {
	var e expiry

	for _, opt := range opts {
		opt(&e)
	}

	return e
}
