package cache

import (
	"context"
	"sync"
	"time"

	"bayarea-dashboard/internal/observability/metrics"
	"bayarea-dashboard/pkg/clock"
)

// MemoryStore is a concurrency-safe in-process Store.
//
// There is no eviction: memory grows with the number of distinct keys over
// the process lifetime. Keys are expected to come from a bounded namespace
// (feed name plus category).
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]Entry
	clock clock.Clock
}

// NewMemoryStore returns an empty store. A nil clock uses the system clock.
func NewMemoryStore(c clock.Clock) *MemoryStore {
	if c == nil {
		c = clock.System{}
	}
	return &MemoryStore{
		data:  make(map[string]Entry),
		clock: c,
	}
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string, ttl time.Duration) (Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordCacheLookup("miss")
		return Entry{}, false, nil
	}
	if !IsFresh(entry, ttl, s.clock.Now()) {
		metrics.RecordCacheLookup("expired")
		return Entry{}, false, nil
	}

	metrics.RecordCacheLookup("hit")
	return entry, true, nil
}

// GetStale implements Store.GetStale.
func (s *MemoryStore) GetStale(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.data[key]
	s.mu.RUnlock()

	metrics.RecordCacheStaleRead(ok)
	return entry, ok, nil
}

// Set implements Store.Set. The payload is copied so later mutation by the
// caller cannot alter the cached bytes.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte) (Entry, error) {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	entry := Entry{
		Key:       key,
		Payload:   buf,
		WrittenAt: s.clock.Now(),
	}

	s.mu.Lock()
	s.data[key] = entry
	keys := len(s.data)
	s.mu.Unlock()

	metrics.RecordCacheWrite(keys)
	return entry, nil
}

// Len returns the number of keys held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
