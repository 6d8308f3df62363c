package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/dynamic-links/internal/shortener"
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Redis implementation of shortener.Locker built on SET NX PX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker whose keys expire after ttl.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = shortener.DefaultLockTTL
	}

	return &RedisLocker{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisLocker) LockIfAbsent(
	ctx context.Context, key string, action func(ctx context.Context) error,
) (bool, error) {
	token := uuid.NewString()

	acquired, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return false, err
	}

	if !acquired {
		return false, nil
	}

	if err = runGuarded(ctx, action, func() error {
		// Release even when the caller's context is already done.
		return releaseScript.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err()
	}); err != nil {
		return false, err
	}

	return true, nil
}

// Unlock deletes key. The worker calls it after persisting, without the owner token.
func (r *RedisLocker) Unlock(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Compile-time check.
var _ shortener.Locker = (*RedisLocker)(nil)
