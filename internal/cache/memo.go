package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/penshort/costboard/internal/metrics"
)

// entry is one cached value with its own TTL clock.
type entry struct {
	value     any
	fetchedAt time.Time
	ttl       time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.fetchedAt) < e.ttl
}

// Memo is an in-process keyed cache with per-entry TTL.
//
// Expiry is lazy: entries are only checked on access. Concurrent misses for
// the same key share a single fetch.
type Memo struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
	now     func() time.Time
	metrics metrics.Recorder

	// generation is bumped on Reset; fetches started under an older
	// generation are not stored.
	generation uint64
}

// MemoOption configures a Memo.
type MemoOption func(*Memo)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoOption {
	return func(m *Memo) {
		m.now = now
	}
}

// WithMetrics sets the hit/miss recorder.
func WithMetrics(recorder metrics.Recorder) MemoOption {
	return func(m *Memo) {
		if recorder != nil {
			m.metrics = recorder
		}
	}
}

// NewMemo creates an empty Memo.
func NewMemo(opts ...MemoOption) *Memo {
	m := &Memo{
		entries: make(map[string]entry),
		now:     time.Now,
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the cached value for key if it has not expired.
func (m *Memo) lookup(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.fresh(m.now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memo) store(key string, value any, ttl time.Duration, generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		return
	}
	m.entries[key] = entry{
		value:     value,
		fetchedAt: m.now(),
		ttl:       ttl,
	}
}

// Reset drops every entry. Fetches already in flight still return to their
// callers but are not stored.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
	m.generation++
}

// Len returns the number of stored entries, fresh or not.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result for ttl. Whatever fetch returns is cached, so callers that encode
// failures in T get negative caching for free.
func GetOrFetch[T any](ctx context.Context, m *Memo, key string, ttl time.Duration, fetch func(context.Context) T) T {
	return GetOrFetchTTL(ctx, m, key, func(ctx context.Context) (T, time.Duration) {
		return fetch(ctx), ttl
	})
}

// GetOrFetchTTL is GetOrFetch with the TTL chosen by fetch, for values whose
// remaining lifetime is only known once they are loaded. A non-positive TTL
// returns the value without caching it.
func GetOrFetchTTL[T any](ctx context.Context, m *Memo, key string, fetch func(context.Context) (T, time.Duration)) T {
	if v, ok := m.lookup(key); ok {
		m.metrics.IncCacheHit(key)
		out, _ := v.(T)
		return out
	}
	m.metrics.IncCacheMiss(key)

	m.mu.Lock()
	generation := m.generation
	m.mu.Unlock()

	// The flight key includes the generation so callers after a Reset never
	// join a fetch that started before it.
	flight := strconv.FormatUint(generation, 10) + ":" + key

	v, _, _ := m.group.Do(flight, func() (any, error) {
		// Another caller may have filled the slot while we waited.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		value, ttl := fetch(ctx)
		if ttl > 0 {
			m.store(key, value, ttl, generation)
		}
		return value, nil
	})
	out, _ := v.(T)
	return out
}
