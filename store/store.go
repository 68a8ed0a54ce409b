// Package store defines the key-value port used for session records and
// rate-limit counters. Every entry carries a TTL; backends are free to evict
// lazily as long as expired entries are never returned.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// Store is a minimal expiring key-value abstraction. Consistency is
// best-effort: concurrent writers to the same key resolve last-write-wins,
// which is acceptable for abuse-resistance bookkeeping.
type Store interface {
	// Put stores value under key with the given time-to-live.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value for key, or ErrNotFound if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
