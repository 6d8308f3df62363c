package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/dynamic-links/internal/shortener"
)

// MemoryLocker is an in-process implementation of shortener.Locker.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time // key -> expiry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryLocker creates a locker whose keys expire after ttl.
func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	return NewMemoryLockerWithClock(ttl, time.Now)
}

// NewMemoryLockerWithClock creates a locker that reads time from now.
func NewMemoryLockerWithClock(ttl time.Duration, now func() time.Time) *MemoryLocker {
	if ttl <= 0 {
		ttl = shortener.DefaultLockTTL
	}

	return &MemoryLocker{
		held: make(map[string]time.Time),
		ttl:  ttl,
		now:  now,
	}
}

func (m *MemoryLocker) LockIfAbsent(
	ctx context.Context, key string, action func(ctx context.Context) error,
) (bool, error) {
	if !m.acquire(key) {
		return false, nil
	}

	if err := runGuarded(ctx, action, func() error {
		m.release(key)

		return nil
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (m *MemoryLocker) Unlock(_ context.Context, key string) error {
	m.release(key)

	return nil
}

// Locked reports whether key is currently held.
func (m *MemoryLocker) Locked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.held[key]

	return ok && m.now().Before(expiry)
}

func (m *MemoryLocker) acquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expiry, ok := m.held[key]; ok && now.Before(expiry) {
		return false
	}

	m.held[key] = now.Add(m.ttl)

	return true
}

func (m *MemoryLocker) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.held, key)
}

// runGuarded runs action and calls release when it fails or panics.
func runGuarded(ctx context.Context, action func(ctx context.Context) error, release func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			_ = release()

			panic(r)
		}
	}()

	if err = action(ctx); err != nil {
		if releaseErr := release(); releaseErr != nil {
			return errors.Join(err, fmt.Errorf("releasing lock: %w", releaseErr))
		}

		return err
	}

	return nil
}

// Compile-time check.
var _ shortener.Locker = (*MemoryLocker)(nil)
