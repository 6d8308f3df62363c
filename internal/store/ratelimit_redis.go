package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/dynamic-links/internal/ratelimit"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store.
// Each key is a sorted set of request timestamps scored in milliseconds.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimitRedisStore creates a Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
		now:    time.Now,
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	redisKey := s.prefix + key
	cutoff := now.Add(-window).UnixMilli()

	var card *redis.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: uuid.NewString(),
		})
		card = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, window)

		return nil
	})
	if err != nil {
		return 0, err
	}

	return card.Val(), nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
