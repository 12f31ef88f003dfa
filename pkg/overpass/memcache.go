package overpass

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/mapscene/internal/store"
)

// memCache is a concurrent-safe LRU cache for fetch records with TTL
// expiration, sitting in front of the persistent store.
type memCache struct {
	mu         sync.Mutex
	entries    map[string]*memEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

type memEntry struct {
	rec *store.Record
}

// MemStats contains in-memory cache performance counters.
type MemStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

func newMemCache(maxEntries int) *memCache {
	return &memCache{
		entries:    make(map[string]*memEntry),
		maxEntries: maxEntries,
	}
}

// get returns a cached record, or nil on miss or expiration.
func (c *memCache) get(key store.CacheKey, now time.Time) *store.Record {
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[k]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	if entry.rec.Expired(now) {
		delete(c.entries, k)
		c.removeFromOrder(k)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(k)
	c.order = append(c.order, k)
	c.hits.Add(1)
	return entry.rec
}

// put stores a record, evicting the oldest entry at capacity.
func (c *memCache) put(rec *store.Record) {
	k := rec.Key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[k]; ok {
		c.entries[k] = &memEntry{rec: rec}
		c.removeFromOrder(k)
		c.order = append(c.order, k)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[k] = &memEntry{rec: rec}
	c.order = append(c.order, k)
}

// clear drops every entry.
func (c *memCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memEntry)
	c.order = nil
}

// stats returns performance counters.
func (c *memCache) stats() MemStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return MemStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *memCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
