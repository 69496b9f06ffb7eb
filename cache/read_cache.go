// api/cache/read_cache.go
package cache

import (
	"strings"
	"sync"
	"time"
)

// Clock returns the current time. Injectable so TTL behavior is testable
// without real timers.
type Clock func() time.Time

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// ReadCache is a key-addressed store with time-based expiry, used to avoid
// redundant ledger reads for slow-changing data. Keys are case-insensitive.
// Stale entries read like absent ones; they are only deleted by the sweep
// that runs on every Put, so the structure stays self-cleaning without a
// background timer.
type ReadCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry[V]
}

type Option[V any] func(*ReadCache[V])

// WithClock overrides the time source.
func WithClock[V any](now Clock) Option[V] {
	return func(c *ReadCache[V]) {
		c.now = now
	}
}

func New[V any](ttl time.Duration, opts ...Option[V]) *ReadCache[V] {
	c := &ReadCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives a normalized cache key from the parameters that affect the
// cached value. Two logically identical queries differing only in letter
// case must collide to the same key.
func Key(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "_"))
}

// Get returns the cached value iff a live entry exists for key. An entry is
// live while its age is strictly below the TTL.
func (c *ReadCache[V]) Get(key string) (V, bool) {
	key = strings.ToLower(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put replaces any existing entry for key (last put wins), then sweeps every
// expired entry so memory stays bounded under normal traffic.
func (c *ReadCache[V]) Put(key string, value V) {
	key = strings.ToLower(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = entry[V]{value: value, fetchedAt: now}

	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of stored entries, live or stale.
func (c *ReadCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
