// api/cache/read_cache_test.go
package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerdash/ledgerdash/api/cache"
)

const ttl = 5 * time.Minute

func newFakeClock(start time.Time) (cache.Clock, *time.Time) {
	now := start
	return func() time.Time { return now }, &now
}

func TestReadCache(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("KeyNormalization", func(t *testing.T) {
		clock, _ := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		c.Put("ATTENDANCE:0xABC_2", "v1")
		value, hit := c.Get("attendance:0xabc_2")
		assert.True(t, hit)
		assert.Equal(t, "v1", value)

		// Case must not create duplicate keys
		c.Put("attendance:0xabc_2", "v2")
		assert.Equal(t, 1, c.Len())
		value, hit = c.Get("Attendance:0xAbC_2")
		assert.True(t, hit)
		assert.Equal(t, "v2", value)
	})

	t.Run("KeyHelper", func(t *testing.T) {
		assert.Equal(t, "attendance:0xabc_2", cache.Key("ATTENDANCE:0xABC", "2"))
	})

	t.Run("TTLBoundary", func(t *testing.T) {
		clock, now := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		c.Put("k", "v")

		*now = t0.Add(ttl - time.Millisecond)
		_, hit := c.Get("k")
		assert.True(t, hit, "entry younger than TTL must be a hit")

		*now = t0.Add(ttl + time.Millisecond)
		_, hit = c.Get("k")
		assert.False(t, hit, "entry older than TTL must be a miss")
	})

	t.Run("LastPutWins", func(t *testing.T) {
		clock, _ := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		c.Put("k", "v1")
		c.Put("k", "v2")

		assert.Equal(t, 1, c.Len())
		value, hit := c.Get("k")
		assert.True(t, hit)
		assert.Equal(t, "v2", value)
	})

	t.Run("StaleEntriesSurviveReads", func(t *testing.T) {
		clock, now := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		c.Put("k", "v")
		*now = t0.Add(ttl + time.Second)

		// Reads treat stale entries like absent ones but do not delete them
		_, hit := c.Get("k")
		assert.False(t, hit)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("WriteSideSweep", func(t *testing.T) {
		clock, now := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		c.Put("old1", "v")
		c.Put("old2", "v")
		*now = t0.Add(ttl + time.Second)

		c.Put("fresh", "v")
		assert.Equal(t, 1, c.Len(), "every expired entry is evicted on write")
		_, hit := c.Get("fresh")
		assert.True(t, hit)
	})

	t.Run("ConcurrentPutSameKey", func(t *testing.T) {
		clock, _ := newFakeClock(t0)
		c := cache.New[int](ttl, cache.WithClock[int](clock))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c.Put("shared", i)
				c.Get("shared")
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, c.Len(), "at most one entry per key after any sequence of operations")
	})

	t.Run("DistinctKeysCoexist", func(t *testing.T) {
		clock, _ := newFakeClock(t0)
		c := cache.New[string](ttl, cache.WithClock[string](clock))

		for i := 0; i < 10; i++ {
			c.Put(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i))
		}
		assert.Equal(t, 10, c.Len())
		value, hit := c.Get("k7")
		assert.True(t, hit)
		assert.Equal(t, "v7", value)
	})
}
