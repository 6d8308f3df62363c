package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/dynamic-links/internal/shortener"
)

// ClientMemoryStore keeps clients in memory, keyed by API key.
type ClientMemoryStore struct {
	mu      sync.RWMutex
	clients map[string]shortener.Client
	nextID  int64
}

// NewClientMemoryStore creates an empty in-memory client store.
func NewClientMemoryStore() *ClientMemoryStore {
	return &ClientMemoryStore{
		clients: make(map[string]shortener.Client),
	}
}

// Add registers a client, assigning an ID when it has none.
func (s *ClientMemoryStore) Add(client shortener.Client) shortener.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client.ID == 0 {
		s.nextID++
		client.ID = s.nextID
	}

	s.clients[client.APIKey] = client

	return client
}

func (s *ClientMemoryStore) GetByAPIKey(_ context.Context, apiKey string) (*shortener.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[apiKey]
	if !ok {
		return nil, shortener.ErrUnknownClient
	}

	return &client, nil
}

// PostgresClientStore reads clients from the clients table.
type PostgresClientStore struct {
	pool *pgxpool.Pool
}

// NewPostgresClientStore creates a PostgreSQL-backed client store.
func NewPostgresClientStore(pool *pgxpool.Pool) *PostgresClientStore {
	return &PostgresClientStore{pool: pool}
}

func (s *PostgresClientStore) GetByAPIKey(ctx context.Context, apiKey string) (*shortener.Client, error) {
	query := `
		SELECT id, name, api_key, scheme, hostname
		FROM clients
		WHERE api_key = $1
	`

	var c shortener.Client

	err := s.pool.QueryRow(ctx, query, apiKey).Scan(&c.ID, &c.Name, &c.APIKey, &c.Scheme, &c.Hostname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrUnknownClient
		}

		return nil, err
	}

	return &c, nil
}

// Upsert inserts or updates a client by API key and returns it with its ID.
func (s *PostgresClientStore) Upsert(ctx context.Context, client shortener.Client) (*shortener.Client, error) {
	query := `
		INSERT INTO clients (name, api_key, scheme, hostname)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (api_key) DO UPDATE
		SET name = EXCLUDED.name, scheme = EXCLUDED.scheme, hostname = EXCLUDED.hostname
		RETURNING id
	`

	if err := s.pool.QueryRow(ctx, query,
		client.Name, client.APIKey, client.Scheme, client.Hostname,
	).Scan(&client.ID); err != nil {
		return nil, err
	}

	return &client, nil
}
