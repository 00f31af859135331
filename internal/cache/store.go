// Package cache provides the keyed response store used by the assembler.
//
// Entries carry only the time they were written; freshness is decided at
// read time against a TTL supplied by the caller. Entries are overwritten on
// every successful refresh and never removed, which keeps a last-known-good
// payload available for stale reads indefinitely.
package cache

import (
	"context"
	"time"
)

// Entry is a single cached payload.
type Entry struct {
	Key       string
	Payload   []byte
	WrittenAt time.Time
}

// Age returns how long ago the entry was written, relative to now.
// A negative age (clock skew) is reported as zero.
func (e Entry) Age(now time.Time) time.Duration {
	age := now.Sub(e.WrittenAt)
	if age < 0 {
		return 0
	}
	return age
}

// ExpiresIn returns the remaining freshness window for ttl, or zero once the
// entry has gone stale.
func (e Entry) ExpiresIn(ttl time.Duration, now time.Time) time.Duration {
	remaining := ttl - e.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFresh reports whether now - WrittenAt < ttl.
func IsFresh(e Entry, ttl time.Duration, now time.Time) bool {
	return now.Sub(e.WrittenAt) < ttl
}

// Store is the narrow contract between the assembler and a cache backend.
//
// Callers must pass the same TTL for a given key on every read; the store
// does not remember TTLs. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry for key if it exists and is fresh for ttl.
	Get(ctx context.Context, key string, ttl time.Duration) (Entry, bool, error)

	// GetStale returns the entry for key regardless of age.
	GetStale(ctx context.Context, key string) (Entry, bool, error)

	// Set writes payload under key, replacing any previous entry, and returns
	// the entry as stored. Its WrittenAt is the one later reads will see.
	Set(ctx context.Context, key string, payload []byte) (Entry, error)
}
