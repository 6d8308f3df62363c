package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/dynamic-links/internal/shortener"
)

//go:embed schema.sql
var schema string

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// EnsureSchema creates the clients and shortened_urls tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}

// PostgresStore is a PostgreSQL implementation of shortener.Storage.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, link *shortener.ShortenedURL) error {
	if !shortener.IsSafeCode(string(link.Code)) {
		return shortener.ErrInvalidCode
	}

	query := `
		INSERT INTO shortened_urls (client_id, url, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		link.Client.ID,
		link.URL,
		string(link.Code),
		link.ExpiresAt,
		link.CreatedAt,
	)

	return translate(err)
}

func (p *PostgresStore) FindOrCreate(
	ctx context.Context, link *shortener.ShortenedURL,
) (*shortener.ShortenedURL, error) {
	if !shortener.IsSafeCode(string(link.Code)) {
		return nil, shortener.ErrInvalidCode
	}

	query := `
		WITH inserted AS (
			INSERT INTO shortened_urls (client_id, url, code, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (client_id, code) DO NOTHING
			RETURNING url, code, expires_at, created_at
		)
		SELECT url, code, expires_at, created_at FROM inserted
		UNION ALL
		SELECT url, code, expires_at, created_at
		FROM shortened_urls
		WHERE client_id = $1 AND code = $3
		LIMIT 1
	`

	found := shortener.ShortenedURL{Client: link.Client}

	err := p.pool.QueryRow(ctx, query,
		link.Client.ID,
		link.URL,
		string(link.Code),
		link.ExpiresAt,
		link.CreatedAt,
	).Scan(&found.URL, &found.Code, &found.ExpiresAt, &found.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent insert committed after our snapshot was taken.
		return p.GetByCode(ctx, link.Client.ID, link.Code)
	}

	if err != nil {
		return nil, translate(err)
	}

	return &found, nil
}

func (p *PostgresStore) GetByCode(
	ctx context.Context, clientID int64, code shortener.Code,
) (*shortener.ShortenedURL, error) {
	query := `
		SELECT url, code, expires_at, created_at
		FROM shortened_urls
		WHERE client_id = $1 AND code = $2
	`

	link := shortener.ShortenedURL{Client: shortener.Client{ID: clientID}}

	var expiresAt *time.Time

	err := p.pool.QueryRow(ctx, query, clientID, string(code)).Scan(
		&link.URL,
		&link.Code,
		&expiresAt,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	link.ExpiresAt = expiresAt

	return &link, nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return shortener.ErrCodeTaken
	case pgCheckViolation:
		return shortener.ErrInvalidCode
	default:
		return err
	}
}
