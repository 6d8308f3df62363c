package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/dynamic-links/internal/messaging"
	"github.com/serroba/dynamic-links/internal/shortener"
)

// Enqueuer implements shortener.AsyncWorker by publishing jobs to the bus.
type Enqueuer struct {
	publish messaging.Publish[ShortenURLMessage]
	now     func() time.Time
}

// NewEnqueuer creates an Enqueuer backed by publish.
func NewEnqueuer(publish messaging.Publish[ShortenURLMessage]) *Enqueuer {
	return &Enqueuer{
		publish: publish,
		now:     time.Now,
	}
}

func (e *Enqueuer) PerformLater(ctx context.Context, job shortener.ShortenJob) error {
	if err := e.publish(ctx, NewShortenURLMessage(job, e.now().UTC())); err != nil {
		return fmt.Errorf("enqueueing shorten job: %w", err)
	}

	return nil
}

// Compile-time check.
var _ shortener.AsyncWorker = (*Enqueuer)(nil)
