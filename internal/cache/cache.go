package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	data      T
	expiresAt time.Time
}

// Cache is an in-memory TTL cache keyed by string (phone number in
// practice). Expiry is lazy: an expired entry reads as a miss but is only
// removed when overwritten or invalidated. The cache is a performance
// optimization only; every caller must keep a fetch-fresh fallback path.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	now     func() time.Time
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// NewWithClock builds a cache with an injectable clock so TTL behavior can be
// tested without real timers.
func NewWithClock[T any](now func() time.Time) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     now,
	}
}

// Get returns the cached value only while it has not expired. An expired
// read is a miss; stale data is never returned implicitly.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.data, true
}

// Set stores the value with the given TTL, unconditionally overwriting any
// prior entry. Last write wins on concurrent refreshes; staleness stays
// bounded by the TTL.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{data: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes the entry if present; no-op otherwise.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
