package store

import (
	"context"
	"sync"

	"github.com/serroba/dynamic-links/internal/shortener"
)

type codeKey struct {
	clientID int64
	code     shortener.Code
}

// MemoryStore is an in-memory implementation of shortener.Storage.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[codeKey]shortener.ShortenedURL
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[codeKey]shortener.ShortenedURL),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *shortener.ShortenedURL) error {
	if !shortener.IsSafeCode(string(link.Code)) {
		return shortener.ErrInvalidCode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := codeKey{clientID: link.Client.ID, code: link.Code}
	if _, ok := m.links[key]; ok {
		return shortener.ErrCodeTaken
	}

	m.links[key] = *link

	return nil
}

func (m *MemoryStore) FindOrCreate(_ context.Context, link *shortener.ShortenedURL) (*shortener.ShortenedURL, error) {
	if !shortener.IsSafeCode(string(link.Code)) {
		return nil, shortener.ErrInvalidCode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := codeKey{clientID: link.Client.ID, code: link.Code}
	if existing, ok := m.links[key]; ok {
		return &existing, nil
	}

	m.links[key] = *link
	created := *link

	return &created, nil
}

func (m *MemoryStore) GetByCode(_ context.Context, clientID int64, code shortener.Code) (*shortener.ShortenedURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[codeKey{clientID: clientID, code: code}]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

// Len returns the number of stored mappings.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.links)
}
