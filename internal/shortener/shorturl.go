package shortener

import (
	"net/url"
	"time"
)

// Code represents a short URL code.
type Code string

// Client is the tenant a short URL belongs to.
type Client struct {
	ID       int64
	Name     string
	APIKey   string
	Scheme   string
	Hostname string
}

// ShortURL builds the public short URL for code under the client's scheme and host.
func (c Client) ShortURL(code Code) string {
	u := url.URL{
		Scheme: c.Scheme,
		Host:   c.Hostname,
		Path:   "/" + string(code),
	}

	return u.String()
}

// ShortenedURL is a client-scoped mapping from a code to the original URL.
type ShortenedURL struct {
	Client    Client
	URL       string
	Code      Code
	ExpiresAt *time.Time // nil means the link never expires
	CreatedAt time.Time
}

// Expired reports whether the link has an expiration in the past relative to now.
func (s *ShortenedURL) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
