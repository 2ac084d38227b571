// Package cache provides the category-scoped TTL store used by the gateway.
//
// Every entry carries its own absolute expiry. Expired entries are treated as
// absent and removed by the read that notices them; there is no sweeper.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chain-gateway/internal/config"
	"chain-gateway/internal/observability"
)

// Category scopes keys and selects the default TTL.
type Category string

const (
	Prices    Category = "prices"
	Liquidity Category = "liquidity"
	Gas       Category = "gas"
	Volume    Category = "volume"
	Routes    Category = "routes"
)

// Categories lists every known category.
var Categories = []Category{Prices, Liquidity, Gas, Volume, Routes}

// entry is owned by Cache and never handed out.
type entry struct {
	value     any
	writtenAt time.Time
	expiresAt time.Time
	version   uint64
}

type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Cache is a concurrency-safe TTL map partitioned by category.
type Cache struct {
	mu      sync.RWMutex
	ttls    map[Category]time.Duration
	entries map[Category]map[string]*entry
	stats   map[Category]*counters
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache with the given per-category default TTLs.
func New(ttls config.CacheTTLs, opts ...Option) *Cache {
	c := &Cache{
		ttls: map[Category]time.Duration{
			Prices:    ttls.Prices,
			Liquidity: ttls.Liquidity,
			Gas:       ttls.Gas,
			Volume:    ttls.Volume,
			Routes:    ttls.Routes,
		},
		entries: make(map[Category]map[string]*entry, len(Categories)),
		stats:   make(map[Category]*counters, len(Categories)),
		now:     time.Now,
	}
	for _, cat := range Categories {
		c.entries[cat] = make(map[string]*entry)
		c.stats[cat] = &counters{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the default TTL for a category.
func (c *Cache) TTL(cat Category) time.Duration {
	return c.ttls[cat]
}

// Get returns the live value for key, or false if absent or expired.
func (c *Cache) Get(cat Category, key string) (any, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[cat][key]
	ctr := c.stats[cat]
	live := ok && now.Before(e.expiresAt)
	var value any
	if live {
		value = e.value
	}
	c.mu.RUnlock()

	if ctr != nil {
		if live {
			ctr.hits.Add(1)
		} else {
			ctr.misses.Add(1)
		}
	}

	if ok && !live {
		c.mu.Lock()
		// Evict only if nobody replaced the entry in between.
		if c.entries[cat][key] == e {
			delete(c.entries[cat], key)
		}
		c.mu.Unlock()
	}

	observability.RecordCacheLookup(string(cat), live)
	return value, live
}

// Set stores value under key. ttl <= 0 selects the category default.
func (c *Cache) Set(cat Category, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttls[cat]
	}
	now := c.now()

	c.mu.Lock()
	bucket, ok := c.entries[cat]
	if !ok {
		bucket = make(map[string]*entry)
		c.entries[cat] = bucket
		c.stats[cat] = &counters{}
	}
	var version uint64 = 1
	if prev, ok := bucket[key]; ok {
		version = prev.version + 1
	}
	bucket[key] = &entry{
		value:     value,
		writtenAt: now,
		expiresAt: now.Add(ttl),
		version:   version,
	}
	c.mu.Unlock()

	observability.RecordCacheSet(string(cat))
}

// Version returns the write counter of a stored key (0 if not stored).
func (c *Cache) Version(cat Category, key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[cat][key]; ok {
		return e.version
	}
	return 0
}

// Len returns the number of stored entries in a category, expired ones included.
func (c *Cache) Len(cat Category) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[cat])
}

// Stats is a snapshot of lookup counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Stats returns overall lookup counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	for _, ctr := range c.stats {
		s.Hits += ctr.hits.Load()
		s.Misses += ctr.misses.Load()
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Key joins key parts with "|". Strings are lower-cased so token symbols
// and addresses match regardless of caller casing.
func Key(parts ...any) string {
	strs := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case string:
			strs[i] = strings.ToLower(v)
		default:
			strs[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(strs, "|")
}
