package cache

import (
	"sort"
	"sync"
	"time"

	list "github.com/bahlo/generic-list-go"

	"fixtures/internal/record"
)

// ── Cache ──────────────────────────────────────────────────
// Key → collection store with per-entry TTL and a size bound.
//
// Staleness is checked lazily: an entry is dropped the first time a Get
// finds it expired (or on Prune). The size bound is enforced on Set by
// evicting least-recently-used entries; recency is the order of a list
// where Set appends and Get moves to the back, so entries never accessed
// leave in insertion order.

// Weigher returns the weight of a value in the units of maxSize.
type Weigher func(record.Collection) int

// WeighEntries counts every entry as 1.
func WeighEntries(record.Collection) int { return 1 }

// WeighRecords weighs an entry by its number of records (at least 1).
func WeighRecords(c record.Collection) int {
	if len(c) == 0 {
		return 1
	}
	return len(c)
}

// Entry is a snapshot of a cached value and its bookkeeping.
type Entry struct {
	Key            string
	Value          record.Collection
	InsertedAt     time.Time
	LastAccessedAt time.Time
	TTL            time.Duration
	Weight         int
}

// ExpiresAt returns the instant the entry turns stale, zero when it never does.
func (e Entry) ExpiresAt() time.Time {
	if e.TTL <= 0 {
		return time.Time{}
	}
	return e.InsertedAt.Add(e.TTL)
}

func (e *Entry) staleAt(now time.Time) bool {
	return e.TTL > 0 && !now.Before(e.InsertedAt.Add(e.TTL))
}

// Stats are cumulative counters plus the current occupancy.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	CurrentSize int   `json:"currentSize"`
	MaxSize     int   `json:"maxSize"`
	Entries     int   `json:"entries"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithWeigher sets how entries are weighed against maxSize. Default: WeighEntries.
func WithWeigher(w Weigher) Option {
	return func(c *Cache) { c.weigh = w }
}

// Cache is safe for concurrent use. Every operation holds one mutex, so a
// caller never observes a half-written entry.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element[*Entry]
	recency *list.List[*Entry] // front = least recently used
	size    int
	maxSize int
	weigh   Weigher
	now     func() time.Time
	stats   Stats
}

// New creates a cache bounded by maxSize weight units; maxSize <= 0 means unbounded.
func New(maxSize int, opts ...Option) *Cache {
	c := &Cache{
		items:   make(map[string]*list.Element[*Entry]),
		recency: list.New[*Entry](),
		maxSize: maxSize,
		weigh:   WeighEntries,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live entry stored under key and marks it as used.
// A stale entry is removed and reported as a miss.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}
	now := c.now()
	if el.Value.staleAt(now) {
		c.removeLocked(el)
		c.stats.Expirations++
		c.stats.Misses++
		return Entry{}, false
	}

	el.Value.LastAccessedAt = now
	c.recency.MoveToBack(el)
	c.stats.Hits++
	return *el.Value, true
}

// Set stores value under key for ttl (ttl <= 0 never expires), evicting
// least-recently-used entries until it fits. A value heavier than maxSize
// on its own is still stored; Stats then shows CurrentSize > MaxSize.
// Replacing a key counts as a fresh insertion.
func (c *Cache) Set(key string, value record.Collection, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}

	w := c.weigh(value)
	if c.maxSize > 0 {
		for c.size+w > c.maxSize && c.recency.Len() > 0 {
			c.removeLocked(c.recency.Front())
			c.stats.Evictions++
		}
	}

	now := c.now()
	e := &Entry{
		Key:            key,
		Value:          value,
		InsertedAt:     now,
		LastAccessedAt: now,
		TTL:            ttl,
		Weight:         w,
	}
	c.items[key] = c.recency.PushBack(e)
	c.size += w
}

// Has reports whether a live entry exists under key. It does not count as
// an access and does not touch the counters.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	return ok && !el.Value.staleAt(c.now())
}

// Peek returns the live entry under key like Get, but leaves recency and
// counters untouched.
func (c *Cache) Peek(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok || el.Value.staleAt(c.now()) {
		return Entry{}, false
	}
	return *el.Value, true
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.removeLocked(el)
	}
	return ok
}

// DeleteFunc removes every key for which match returns true.
func (c *Cache) DeleteFunc(match func(key string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, el := range c.items {
		if match(key) {
			c.removeLocked(el)
			n++
		}
	}
	return n
}

// Prune removes every stale entry and returns how many were dropped.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for el := c.recency.Front(); el != nil; {
		next := el.Next()
		if el.Value.staleAt(now) {
			c.removeLocked(el)
			n++
		}
		el = next
	}
	c.stats.Expirations += int64(n)
	return n
}

// Clear drops every entry. Counters are cumulative and survive.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element[*Entry])
	c.recency.Init()
	c.size = 0
}

// Keys returns the stored keys (stale ones included until swept), sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.CurrentSize = c.size
	s.MaxSize = c.maxSize
	s.Entries = len(c.items)
	return s
}

func (c *Cache) removeLocked(el *list.Element[*Entry]) {
	e := c.recency.Remove(el)
	delete(c.items, e.Key)
	c.size -= e.Weight
}
