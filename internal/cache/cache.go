// Package cache provides a keyed in-memory store with TTL-based expiry.
package cache

import (
	"sync"
	"time"
)

// Default TTLs for the stores used across the service.
const (
	// DefaultAQITTL is how long a fetched air quality reading stays fresh.
	DefaultAQITTL = 5 * time.Minute

	// DefaultSearchTTL is how long a search result set stays fresh.
	DefaultSearchTTL = 10 * time.Minute

	// DefaultSyntheticTTL is the shorter TTL applied to synthetic entries so
	// a recovered upstream source is retried quickly.
	DefaultSyntheticTTL = time.Minute
)

// entry holds cached data together with its validity window.
type entry[T any] struct {
	data      T
	storedAt  time.Time
	expiresAt time.Time
}

// Store is a keyed TTL cache. An entry is treated as absent once its expiry
// has passed, even while it is still physically present; expired entries are
// removed lazily on read or overwritten on the next Set.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
}

// New creates a Store with the given default TTL.
func New[T any](ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultAQITTL
	}
	return &Store[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
	}
}

// Get returns the entry for key if present and not expired.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if !time.Now().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock: a fresh Set may have raced us.
		if cur, ok := s.entries[key]; ok && !time.Now().Before(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}

	return e.data, true
}

// Set stores data under key with the store's default TTL.
func (s *Store[T]) Set(key string, data T) {
	s.SetTTL(key, data, s.ttl)
}

// SetTTL stores data under key with an explicit TTL, overriding the default.
func (s *Store[T]) SetTTL(key string, data T, ttl time.Duration) {
	now := time.Now()
	s.mu.Lock()
	s.entries[key] = entry[T]{
		data:      data,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
}

// Clear removes all entries.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry[T])
	s.mu.Unlock()
}

// Len returns the number of physically present entries, expired or not.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
