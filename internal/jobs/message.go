// Package jobs moves deferred short URL persistence through the message bus.
package jobs

import (
	"time"

	"github.com/serroba/dynamic-links/internal/shortener"
)

// TopicShortenURLRequested carries ShortenURLMessage payloads.
const TopicShortenURLRequested = "shorten_url.requested"

// ShortenURLMessage is the wire form of shortener.ShortenJob.
type ShortenURLMessage struct {
	ClientID       int64      `json:"clientId"`
	ClientName     string     `json:"clientName"`
	ClientScheme   string     `json:"clientScheme"`
	ClientHostname string     `json:"clientHostname"`
	URL            string     `json:"url"`
	Code           string     `json:"code"`
	LockKey        string     `json:"lockKey"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Strategy       string     `json:"strategy"`
	RequestedAt    time.Time  `json:"requestedAt"`
}

// NewShortenURLMessage converts a job into its wire form.
func NewShortenURLMessage(job shortener.ShortenJob, requestedAt time.Time) *ShortenURLMessage {
	return &ShortenURLMessage{
		ClientID:       job.Client.ID,
		ClientName:     job.Client.Name,
		ClientScheme:   job.Client.Scheme,
		ClientHostname: job.Client.Hostname,
		URL:            job.URL,
		Code:           string(job.Code),
		LockKey:        job.LockKey,
		ExpiresAt:      job.ExpiresAt,
		Strategy:       string(job.Strategy),
		RequestedAt:    requestedAt,
	}
}

// Job converts the message back into a shortener.ShortenJob.
func (m *ShortenURLMessage) Job() shortener.ShortenJob {
	return shortener.ShortenJob{
		Client: shortener.Client{
			ID:       m.ClientID,
			Name:     m.ClientName,
			Scheme:   m.ClientScheme,
			Hostname: m.ClientHostname,
		},
		URL:       m.URL,
		Code:      shortener.Code(m.Code),
		LockKey:   m.LockKey,
		ExpiresAt: m.ExpiresAt,
		Strategy:  shortener.StrategyName(m.Strategy),
	}
}
