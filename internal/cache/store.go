// Package cache provides the TTL-aware store fronting expensive collaborator
// calls (search, analysis) shared across concurrent entity runs.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// entry is one stored value with its expiry bookkeeping.
type entry struct {
	value      any
	category   contracts.CacheCategory
	computedAt time.Time
	expiresAt  time.Time
}

// Store is an in-memory TTL cache. Concurrent computes for one key coalesce
// onto a single in-flight call (singleflight); a recompute after expiry
// replaces the stored entry. Under singleflight at most one writer per key is
// ever live, so replacement cannot lose a concurrent write.
//
// The store fails open: a capacity rejection skips storing and the computed
// value is still returned, and compute errors are returned to the caller and
// never cached.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	group      singleflight.Group
	ttls       map[contracts.CacheCategory]time.Duration
	defaultTTL time.Duration
	maxEntries int
	clock      func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithMaxEntries bounds the number of stored entries. Once full, new keys are
// served uncached until expired entries free capacity.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		s.maxEntries = n
	}
}

// New creates a Store with per-category TTLs. A missing category uses
// defaultTTL; a zero or negative TTL disables caching for that category.
func New(ttls map[contracts.CacheCategory]time.Duration, defaultTTL time.Duration, opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]*entry),
		ttls:       ttls,
		defaultTTL: defaultTTL,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCompute returns the cached value for key when present and fresh,
// otherwise runs compute, stores the result, and returns it. The bool reports
// whether the value came from the cache.
func (s *Store) GetOrCompute(ctx context.Context, key string, category contracts.CacheCategory, compute contracts.ComputeFunc) (any, bool, error) {
	ttl := s.ttlFor(category)
	if ttl <= 0 {
		// Caching disabled for this category.
		v, err := compute(ctx)
		return v, false, err
	}

	if v, ok := s.lookup(key); ok {
		s.hits.Add(1)
		return v, true, nil
	}

	// Concurrent misses on one key share a single compute. Followers receive
	// the leader's value but still count as misses: they paid the wait.
	v, err, _ := s.group.Do(key, func() (any, error) {
		// A follower may enter after the leader already stored the value.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		s.put(key, category, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}

	s.misses.Add(1)
	return v, false, nil
}

// Stats returns hit/miss counters and the current entry count.
func (s *Store) Stats() contracts.CacheStats {
	s.mu.RLock()
	entries := int64(len(s.entries))
	s.mu.RUnlock()

	return contracts.CacheStats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Entries: entries,
	}
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) ttlFor(category contracts.CacheCategory) time.Duration {
	if ttl, ok := s.ttls[category]; ok {
		return ttl
	}
	return s.defaultTTL
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	// Lazy expiry: the next writer for this key replaces the stale entry.
	if s.clock().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *Store) put(key string, category contracts.CacheCategory, v any, ttl time.Duration) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if _, exists := s.entries[key]; !exists {
			s.sweepLocked(now)
			if len(s.entries) >= s.maxEntries {
				// Fail open: serve uncached rather than evict live entries.
				return
			}
		}
	}

	s.entries[key] = &entry{
		value:      v,
		category:   category,
		computedAt: now,
		expiresAt:  now.Add(ttl),
	}
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
