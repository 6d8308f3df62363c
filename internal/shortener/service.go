package shortener

import (
	"context"
	"time"

	"github.com/serroba/dynamic-links/internal/metrics"
	"go.uber.org/zap"
)

// Storage persists client-scoped short URL mappings.
type Storage interface {
	// Create inserts a new mapping.
	Create(ctx context.Context, link *ShortenedURL) error
	// FindOrCreate returns the mapping stored for (link.Client, link.Code), inserting
	// link when there is none.
	FindOrCreate(ctx context.Context, link *ShortenedURL) (*ShortenedURL, error)
	// GetByCode returns the mapping for a client's code or ErrNotFound.
	GetByCode(ctx context.Context, clientID int64, code Code) (*ShortenedURL, error)
}

// ShortenJob is the deferred persistence request produced by the async path.
type ShortenJob struct {
	Client    Client
	URL       string
	Code      Code
	LockKey   string
	ExpiresAt *time.Time
	Strategy  StrategyName
}

// AsyncWorker queues deferred persistence of a generated code.
type AsyncWorker interface {
	PerformLater(ctx context.Context, job ShortenJob) error
}

// Service shortens URLs synchronously or hands them to an AsyncWorker.
type Service struct {
	strategy   Strategy
	storage    Storage
	worker     AsyncWorker
	locker     Locker
	codeLength int
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCodeLength sets the requested code length. The strategy still clamps it.
func WithCodeLength(n int) Option {
	return func(s *Service) {
		s.codeLength = n
	}
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a shortening service around a single configured strategy.
func NewService(
	strategy Strategy,
	storage Storage,
	worker AsyncWorker,
	locker Locker,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		strategy:   strategy,
		storage:    storage,
		worker:     worker,
		locker:     locker,
		codeLength: DefaultMinLength,
		now:        time.Now,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Strategy returns the strategy codes are generated with.
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// Shorten generates a code for url, persists it and returns the client's full short URL.
//
// Always-growing strategies insert a new mapping on every call. Deterministic strategies
// reuse the mapping already stored for the same (client, code).
func (s *Service) Shorten(ctx context.Context, client Client, url string, opts ...ExpiryOption) (string, error) {
	expiresAt := s.resolveExpiry(client, opts)

	code, err := s.strategy.Shorten(url, s.codeLength)
	if err != nil {
		return "", s.failed("sync", "failed to generate code", client, err)
	}

	link := &ShortenedURL{
		Client:    client,
		URL:       url,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}

	if s.strategy.AlwaysGrowing() {
		err = s.storage.Create(ctx, link)
	} else {
		var existing *ShortenedURL

		existing, err = s.storage.FindOrCreate(ctx, link)
		if err == nil && existing.URL != url {
			s.logger.Warn("code already maps to a different url",
				zap.Int64("client_id", client.ID),
				zap.String("code", string(code)),
				zap.String("strategy", string(s.strategy.Name())),
			)
		}
	}

	if err != nil {
		return "", s.failed("sync", "failed to store short url", client, err)
	}

	metrics.CodesGenerated.WithLabelValues(string(s.strategy.Name()), "sync").Inc()

	return client.ShortURL(code), nil
}

// ShortenAsync generates a code and enqueues its persistence, unless a request for the
// same (client, url) is already in flight. It reports whether a job was enqueued.
func (s *Service) ShortenAsync(ctx context.Context, client Client, url string, opts ...ExpiryOption) (bool, error) {
	lockKey := GenerateLockKey(client, url)
	expiresAt := s.resolveExpiry(client, opts)

	enqueued, err := s.locker.LockIfAbsent(ctx, lockKey, func(ctx context.Context) error {
		code, err := s.strategy.Shorten(url, s.codeLength)
		if err != nil {
			return err
		}

		return s.worker.PerformLater(ctx, ShortenJob{
			Client:    client,
			URL:       url,
			Code:      code,
			LockKey:   lockKey,
			ExpiresAt: expiresAt,
			Strategy:  s.strategy.Name(),
		})
	})
	if err != nil {
		metrics.AsyncRequests.WithLabelValues("failed").Inc()

		return false, s.failed("async", "failed to shorten url asynchronously", client, err)
	}

	if !enqueued {
		metrics.AsyncRequests.WithLabelValues("deduplicated").Inc()
		s.logger.Debug("shorten request already in flight",
			zap.Int64("client_id", client.ID),
			zap.String("lock_key", lockKey),
		)

		return false, nil
	}

	metrics.AsyncRequests.WithLabelValues("enqueued").Inc()
	metrics.CodesGenerated.WithLabelValues(string(s.strategy.Name()), "async").Inc()

	return true, nil
}

func (s *Service) resolveExpiry(client Client, opts []ExpiryOption) *time.Time {
	e := collectExpiry(opts)
	if !e.set || e.at != nil {
		return e.at
	}

	t, err := ParseExpiresAt(e.raw)
	if err != nil {
		s.logger.Warn("ignoring unparseable expiration",
			zap.Int64("client_id", client.ID),
			zap.String("expires_at", e.raw),
			zap.Error(err),
		)

		return nil
	}

	return t
}

func (s *Service) failed(path, msg string, client Client, err error) error {
	metrics.ShortenErrors.WithLabelValues(path).Inc()
	s.logger.Error(msg,
		zap.Int64("client_id", client.ID),
		zap.String("strategy", string(s.strategy.Name())),
		zap.Error(err),
	)

	return err
}
