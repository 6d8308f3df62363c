package shortener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// LockKeyPrefix namespaces async shortening locks in the shared backend.
const LockKeyPrefix = "lock:shorten_url:"

// DefaultLockTTL bounds how long a key stays locked if nobody unlocks it.
const DefaultLockTTL = 60 * time.Second

// Locker is a best-effort distributed lock used to dedup async shortening requests.
//
// It is not a correctness-critical mutex: if a lock expires before its job runs, a
// duplicate job may be enqueued.
type Locker interface {
	// LockIfAbsent acquires key if nobody holds it and runs action exactly once.
	// It returns false without running action when key is already held. If action
	// fails the lock is released and the action's error is returned. On success the
	// lock stays held until Unlock or expiry.
	LockIfAbsent(ctx context.Context, key string, action func(ctx context.Context) error) (bool, error)
	// Unlock releases key regardless of who acquired it.
	Unlock(ctx context.Context, key string) error
}

// GenerateLockKey fingerprints a (client, url) pair.
func GenerateLockKey(client Client, url string) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(client.ID, 10)))
	h.Write([]byte{':'})
	h.Write([]byte(url))

	return LockKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
