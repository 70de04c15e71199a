// Package cache provides a process-wide single-flight TTL cache keyed by
// root domain and logical bucket. It bounds external-provider call volume
// under bursty duplicate requests for the same domain.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the memoization window when the caller supplies none.
const DefaultTTL = 10 * time.Minute

// Key combines a root domain with a logical bucket ("competitors",
// "keywords") into a cache key.
func Key(root, bucket string) string {
	return root + "|" + bucket
}

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache memoizes computed values for a TTL and coalesces concurrent
// computations for the same key into a single flight.
type Cache[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a Cache. Non-positive ttl falls back to DefaultTTL.
func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached value for key when it is still fresh. Expired
// entries are evicted lazily on this read-time check; there is no
// background sweep.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value with a fresh timestamp.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, storedAt: c.now()}
}

// Resolve returns the cached value for key, or runs compute exactly once
// across all concurrent callers and caches its result. A failed compute is
// not cached and deregisters the flight, so a later call retries.
func (c *Cache[T]) Resolve(ctx context.Context, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have stored the value between our Get
		// and joining the group.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		val, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Len reports the number of stored entries, expired or not. Used by tests
// and debug output.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
