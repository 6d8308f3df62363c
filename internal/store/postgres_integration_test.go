//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/dynamic-links/internal/shortener"
	"github.com/serroba/dynamic-links/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("links"),
		tcpostgres.WithUsername("links"),
		tcpostgres.WithPassword("links"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, store.EnsureSchema(ctx, pool))

	return pool
}

func TestPostgresStoreIntegration(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	clients := store.NewPostgresClientStore(pool)

	client, err := clients.Upsert(ctx, shortener.Client{
		Name: "acme", APIKey: "key-acme", Scheme: "https", Hostname: "dl.example",
	})
	require.NoError(t, err)

	s := store.NewPostgresStore(pool)

	link := func(code, url string) *shortener.ShortenedURL {
		return &shortener.ShortenedURL{
			Client:    *client,
			URL:       url,
			Code:      shortener.Code(code),
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	t.Run("client lookup by api key", func(t *testing.T) {
		got, err := clients.GetByAPIKey(ctx, "key-acme")

		require.NoError(t, err)
		assert.Equal(t, client.ID, got.ID)
		assert.Equal(t, "dl.example", got.Hostname)

		_, err = clients.GetByAPIKey(ctx, "missing")
		require.ErrorIs(t, err, shortener.ErrUnknownClient)
	})

	t.Run("create and get by code", func(t *testing.T) {
		l := link("pgcode1", "https://example.com")
		expires := l.CreatedAt.Add(24 * time.Hour)
		l.ExpiresAt = &expires

		require.NoError(t, s.Create(ctx, l))

		got, err := s.GetByCode(ctx, client.ID, "pgcode1")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.URL)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expires.Equal(*got.ExpiresAt))
	})

	t.Run("create rejects a taken code", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, link("pgcode2", "https://a.com")))

		err := s.Create(ctx, link("pgcode2", "https://b.com"))

		require.ErrorIs(t, err, shortener.ErrCodeTaken)
	})

	t.Run("find or create keeps the first mapping", func(t *testing.T) {
		first, err := s.FindOrCreate(ctx, link("pgcode3", "https://a.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", first.URL)

		second, err := s.FindOrCreate(ctx, link("pgcode3", "https://b.com"))
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", second.URL)
	})

	t.Run("get non-existent returns ErrNotFound", func(t *testing.T) {
		_, err := s.GetByCode(ctx, client.ID, "nonexistent")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}
