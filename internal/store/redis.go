package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/dynamic-links/internal/shortener"
)

// RedisStore is a Redis implementation of shortener.Storage.
//
// Each mapping is a JSON string under "link:<client>:<code>". Links with an expiration
// carry a matching key expiry, so Redis drops them on its own. FindOrCreate relies on
// SET NX GET and needs Redis 7 or newer.
type RedisStore struct {
	client *redis.Client
	prefix string
}

type redisLink struct {
	URL       string     `json:"url"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "link:",
	}
}

func (r *RedisStore) key(clientID int64, code shortener.Code) string {
	return r.prefix + strconv.FormatInt(clientID, 10) + ":" + string(code)
}

func (r *RedisStore) Create(ctx context.Context, link *shortener.ShortenedURL) error {
	if !shortener.IsSafeCode(string(link.Code)) {
		return shortener.ErrInvalidCode
	}

	payload, err := encodeLink(link)
	if err != nil {
		return err
	}

	err = r.client.SetArgs(ctx, r.key(link.Client.ID, link.Code), payload, setArgs(link, false)).Err()
	if errors.Is(err, redis.Nil) {
		return shortener.ErrCodeTaken
	}

	return err
}

func (r *RedisStore) FindOrCreate(
	ctx context.Context, link *shortener.ShortenedURL,
) (*shortener.ShortenedURL, error) {
	if !shortener.IsSafeCode(string(link.Code)) {
		return nil, shortener.ErrInvalidCode
	}

	payload, err := encodeLink(link)
	if err != nil {
		return nil, err
	}

	previous, err := r.client.SetArgs(ctx, r.key(link.Client.ID, link.Code), payload, setArgs(link, true)).Result()
	if errors.Is(err, redis.Nil) {
		created := *link

		return &created, nil
	}

	if err != nil {
		return nil, err
	}

	return decodeLink(link.Client, previous)
}

func (r *RedisStore) GetByCode(
	ctx context.Context, clientID int64, code shortener.Code,
) (*shortener.ShortenedURL, error) {
	raw, err := r.client.Get(ctx, r.key(clientID, code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return decodeLink(shortener.Client{ID: clientID}, raw)
}

func setArgs(link *shortener.ShortenedURL, get bool) redis.SetArgs {
	args := redis.SetArgs{Mode: "NX", Get: get}
	if link.ExpiresAt != nil {
		args.ExpireAt = *link.ExpiresAt
	}

	return args
}

func encodeLink(link *shortener.ShortenedURL) ([]byte, error) {
	return json.Marshal(redisLink{
		URL:       link.URL,
		Code:      string(link.Code),
		ExpiresAt: link.ExpiresAt,
		CreatedAt: link.CreatedAt,
	})
}

func decodeLink(client shortener.Client, raw string) (*shortener.ShortenedURL, error) {
	var rl redisLink
	if err := json.Unmarshal([]byte(raw), &rl); err != nil {
		return nil, err
	}

	return &shortener.ShortenedURL{
		Client:    client,
		URL:       rl.URL,
		Code:      shortener.Code(rl.Code),
		ExpiresAt: rl.ExpiresAt,
		CreatedAt: rl.CreatedAt,
	}, nil
}

// Compile-time check.
var _ shortener.Storage = (*RedisStore)(nil)
