package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/dynamic-links/internal/shortener"
)

// RedisCacheRepository wraps a Storage with Redis caching for reads.
type RedisCacheRepository struct {
	store  shortener.Storage
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Storage, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "cache:link:",
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create stores a short URL in the underlying store and updates the cache.
func (r *RedisCacheRepository) Create(ctx context.Context, link *shortener.ShortenedURL) error {
	if err := r.store.Create(ctx, link); err != nil {
		return err
	}

	r.cacheURL(ctx, link)

	return nil
}

// FindOrCreate delegates to the underlying store and caches whichever mapping won.
func (r *RedisCacheRepository) FindOrCreate(
	ctx context.Context, link *shortener.ShortenedURL,
) (*shortener.ShortenedURL, error) {
	found, err := r.store.FindOrCreate(ctx, link)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, found)

	return found, nil
}

// GetByCode retrieves a short URL by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(
	ctx context.Context, clientID int64, code shortener.Code,
) (*shortener.ShortenedURL, error) {
	if link, err := r.getFromCache(ctx, clientID, code); err == nil {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, clientID, code)
	if err != nil {
		return nil, err
	}

	r.cacheURL(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) key(clientID int64, code shortener.Code) string {
	return r.prefix + strconv.FormatInt(clientID, 10) + ":" + string(code)
}

func (r *RedisCacheRepository) getFromCache(
	ctx context.Context, clientID int64, code shortener.Code,
) (*shortener.ShortenedURL, error) {
	result, err := r.client.HGetAll(ctx, r.key(clientID, code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	link := &shortener.ShortenedURL{
		Client: shortener.Client{ID: clientID},
		URL:    result["url"],
		Code:   shortener.Code(result["code"]),
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, nanos)
	}

	if nanos, err := strconv.ParseInt(result["expires_at"], 10, 64); err == nil && nanos > 0 {
		t := time.Unix(0, nanos)
		link.ExpiresAt = &t
	}

	return link, nil
}

// cacheURL writes the link as a hash. Entries never outlive the link's own expiration.
func (r *RedisCacheRepository) cacheURL(ctx context.Context, link *shortener.ShortenedURL) {
	ttl := r.ttl

	var expiresAt int64

	if link.ExpiresAt != nil {
		expiresAt = link.ExpiresAt.UnixNano()

		remaining := link.ExpiresAt.Sub(r.now())
		if remaining <= 0 {
			return
		}

		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}

	pipe := r.client.Pipeline()
	key := r.key(link.Client.ID, link.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"url":        link.URL,
		"code":       string(link.Code),
		"created_at": link.CreatedAt.UnixNano(),
		"expires_at": expiresAt,
	})

	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Storage = (*RedisCacheRepository)(nil)
