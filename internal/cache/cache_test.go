package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixtures/internal/record"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func coll(ids ...int) record.Collection {
	out := make(record.Collection, len(ids))
	for i, id := range ids {
		out[i] = record.FromPairs("id", id)
	}
	return out
}

func TestCache_TTLBoundary(t *testing.T) {
	clock := newFakeClock()
	c := New(0, WithClock(clock.Now))
	c.Set("k", coll(1), 100*time.Millisecond)

	clock.Advance(50 * time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok, "hit at t=50ms")

	clock.Advance(100 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "miss at t=150ms")
	assert.Equal(t, 0, c.Len(), "stale entry is removed on get")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Expirations)
}

func TestCache_StaleExactlyAtExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(0, WithClock(clock.Now))
	c.Set("k", coll(1), 100*time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	assert.False(t, c.Has("k"))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	c := New(0, WithClock(clock.Now))
	c.Set("k", coll(1), 0)

	clock.Advance(24 * 365 * time.Hour)
	e, ok := c.Get("k")
	require.True(t, ok)
	assert.True(t, e.ExpiresAt().IsZero())
}

func TestCache_EvictsLeastRecentlyInserted(t *testing.T) {
	c := New(2)
	c.Set("A", coll(1), time.Minute)
	c.Set("B", coll(2), time.Minute)
	c.Set("C", coll(3), time.Minute)

	_, okA := c.Get("A")
	_, okB := c.Get("B")
	_, okC := c.Get("C")
	assert.False(t, okA)
	assert.True(t, okB)
	assert.True(t, okC)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Set("A", coll(1), time.Minute)
	c.Set("B", coll(2), time.Minute)
	_, ok := c.Get("A")
	require.True(t, ok)

	c.Set("C", coll(3), time.Minute)
	assert.True(t, c.Has("A"))
	assert.False(t, c.Has("B"))
	assert.True(t, c.Has("C"))
}

func TestCache_HasIsNotAnAccess(t *testing.T) {
	c := New(2)
	c.Set("A", coll(1), time.Minute)
	c.Set("B", coll(2), time.Minute)
	assert.True(t, c.Has("A"))

	c.Set("C", coll(3), time.Minute)
	assert.False(t, c.Has("A"))
	assert.Equal(t, int64(0), c.Stats().Hits)
}

func TestCache_PeekIsNotAnAccess(t *testing.T) {
	c := New(2)
	c.Set("A", coll(1), time.Minute)
	c.Set("B", coll(2), time.Minute)

	e, ok := c.Peek("A")
	require.True(t, ok)
	assert.Len(t, e.Value, 1)

	c.Set("C", coll(3), time.Minute)
	_, ok = c.Peek("A")
	assert.False(t, ok, "peek must not refresh recency")

	_, ok = c.Peek("missing")
	assert.False(t, ok)
	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
}

func TestCache_OversizedEntryIsStillAccepted(t *testing.T) {
	c := New(3, WithWeigher(WeighRecords))
	c.Set("small", coll(1), time.Minute)
	c.Set("big", coll(1, 2, 3, 4, 5), time.Minute)

	e, ok := c.Get("big")
	require.True(t, ok)
	assert.Len(t, e.Value, 5)
	assert.False(t, c.Has("small"))

	s := c.Stats()
	assert.Equal(t, 5, s.CurrentSize)
	assert.Equal(t, 3, s.MaxSize)
	assert.Greater(t, s.CurrentSize, s.MaxSize)
}

func TestCache_WeighRecordsEvictsUntilItFits(t *testing.T) {
	c := New(5, WithWeigher(WeighRecords))
	c.Set("a", coll(1, 2), time.Minute)
	c.Set("b", coll(1, 2), time.Minute)
	c.Set("c", coll(1, 2, 3), time.Minute)

	assert.Equal(t, []string{"b", "c"}, c.Keys())
	assert.Equal(t, 5, c.Stats().CurrentSize)
	assert.Equal(t, 1, WeighRecords(nil))
}

func TestCache_ReplaceReinserts(t *testing.T) {
	clock := newFakeClock()
	c := New(2, WithClock(clock.Now))
	c.Set("A", coll(1), 100*time.Millisecond)
	c.Set("B", coll(2), time.Minute)

	clock.Advance(90 * time.Millisecond)
	c.Set("A", coll(9), 100*time.Millisecond)
	c.Set("C", coll(3), time.Minute)

	// B is now the oldest insertion
	assert.False(t, c.Has("B"))

	clock.Advance(50 * time.Millisecond)
	e, ok := c.Get("A")
	require.True(t, ok, "replacement carries a fresh ttl")
	assert.True(t, record.EqualCollections(coll(9), e.Value))
	assert.Equal(t, 2, c.Stats().CurrentSize)
}

func TestCache_DeletePruneClear(t *testing.T) {
	clock := newFakeClock()
	c := New(0, WithClock(clock.Now))
	c.Set("short-1", coll(1), time.Second)
	c.Set("short-2", coll(2), time.Second)
	c.Set("long", coll(3), time.Hour)
	c.Set("other", coll(4), time.Hour)

	assert.True(t, c.Delete("other"))
	assert.False(t, c.Delete("other"))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 2, c.Prune())
	assert.Equal(t, []string{"long"}, c.Keys())
	assert.Equal(t, int64(2), c.Stats().Expirations)

	_, _ = c.Get("long")
	c.Clear()
	s := c.Stats()
	assert.Equal(t, 0, s.Entries)
	assert.Equal(t, 0, s.CurrentSize)
	assert.Equal(t, int64(1), s.Hits, "counters survive Clear")
}

func TestCache_DeleteFunc(t *testing.T) {
	c := New(0)
	c.Set("json|a.json", coll(1), 0)
	c.Set("csv|a.json", coll(1), 0)
	c.Set("json|b.json", coll(1), 0)

	n := c.DeleteFunc(func(k string) bool { return k[len(k)-6:] == "a.json" })
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"json|b.json"}, c.Keys())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*7+i)%32)
				if i%3 == 0 {
					c.Set(key, coll(i), time.Minute)
				} else {
					c.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	s := c.Stats()
	assert.LessOrEqual(t, s.CurrentSize, 16)
	assert.Equal(t, s.Entries, s.CurrentSize)
}
