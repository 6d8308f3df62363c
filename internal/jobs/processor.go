package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/dynamic-links/internal/messaging"
	"github.com/serroba/dynamic-links/internal/metrics"
	"github.com/serroba/dynamic-links/internal/shortener"
	"go.uber.org/zap"
)

// StrategyResolver looks strategies up by name.
type StrategyResolver interface {
	Get(name shortener.StrategyName) (shortener.Strategy, error)
}

// Processor persists jobs produced by Shortener.ShortenAsync and releases their locks.
type Processor struct {
	strategies StrategyResolver
	storage    shortener.Storage
	locker     shortener.Locker
	logger     *zap.Logger
	now        func() time.Time
}

// NewProcessor creates a job processor.
func NewProcessor(
	strategies StrategyResolver,
	storage shortener.Storage,
	locker shortener.Locker,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		strategies: strategies,
		storage:    storage,
		locker:     locker,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle persists one job. Growing strategies always insert, deterministic ones reuse an
// existing mapping. The lock is released once the job is settled.
//
// Transient storage failures keep the lock and are returned so the bus redelivers the
// message. Failures that would repeat on every delivery are wrapped with messaging.Permanent.
func (p *Processor) Handle(ctx context.Context, msg *ShortenURLMessage) error {
	job := msg.Job()
	logger := p.logger.With(
		zap.Int64("client_id", job.Client.ID),
		zap.String("code", string(job.Code)),
		zap.String("strategy", string(job.Strategy)),
	)

	strategy, err := p.strategies.Get(job.Strategy)
	if err != nil {
		return p.settle(ctx, logger, job, messaging.Permanent(err))
	}

	link := &shortener.ShortenedURL{
		Client:    job.Client,
		URL:       job.URL,
		Code:      job.Code,
		ExpiresAt: job.ExpiresAt,
		CreatedAt: p.now(),
	}

	if strategy.AlwaysGrowing() {
		err = p.storage.Create(ctx, link)
	} else {
		var existing *shortener.ShortenedURL

		existing, err = p.storage.FindOrCreate(ctx, link)
		if err == nil && existing.URL != job.URL {
			logger.Warn("code already maps to a different url",
				zap.String("url", job.URL),
				zap.String("existing_url", existing.URL),
			)
		}
	}

	if err != nil {
		if errors.Is(err, shortener.ErrCodeTaken) || errors.Is(err, shortener.ErrInvalidCode) {
			return p.settle(ctx, logger, job, messaging.Permanent(err))
		}

		metrics.JobsProcessed.WithLabelValues("retry").Inc()
		logger.Error("failed to persist short url", zap.Error(err))

		return err
	}

	return p.settle(ctx, logger, job, nil)
}

func (p *Processor) settle(ctx context.Context, logger *zap.Logger, job shortener.ShortenJob, err error) error {
	if job.LockKey != "" {
		if unlockErr := p.locker.Unlock(ctx, job.LockKey); unlockErr != nil {
			logger.Warn("failed to release lock", zap.String("lock_key", job.LockKey), zap.Error(unlockErr))
		}
	}

	if err != nil {
		metrics.JobsProcessed.WithLabelValues("failed").Inc()
		logger.Error("dropping shorten job", zap.Error(err))

		return err
	}

	metrics.JobsProcessed.WithLabelValues("persisted").Inc()
	logger.Debug("persisted short url")

	return nil
}
