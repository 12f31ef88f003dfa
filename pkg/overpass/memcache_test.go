package overpass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapscene/internal/store"
)

func memRecord(lat float64, ttlHours int, fetchedAt time.Time) *store.Record {
	return &store.Record{
		Key:       store.NewCacheKey(lat, 13.0, 500),
		Response:  "resp",
		Source:    "test",
		FetchedAt: fetchedAt,
		TTLHours:  ttlHours,
	}
}

func TestMemCache_GetPut(t *testing.T) {
	c := newMemCache(10)
	now := time.Now().UTC()

	rec := memRecord(52.0, 24, now)
	assert.Nil(t, c.get(rec.Key, now))

	c.put(rec)
	got := c.get(rec.Key, now)
	require.NotNil(t, got)
	assert.Equal(t, "resp", got.Response)

	// A different key is still a miss.
	assert.Nil(t, c.get(store.NewCacheKey(48.0, 2.0, 500), now))
}

func TestMemCache_TTLExpiration(t *testing.T) {
	c := newMemCache(10)
	now := time.Now().UTC()

	rec := memRecord(52.0, 1, now.Add(-2*time.Hour))
	c.put(rec)
	assert.Nil(t, c.get(rec.Key, now))

	// Expired entry is evicted from the map.
	c.mu.Lock()
	_, exists := c.entries[rec.Key.String()]
	c.mu.Unlock()
	assert.False(t, exists)
}

func TestMemCache_ZeroTTLNeverExpires(t *testing.T) {
	c := newMemCache(10)
	now := time.Now().UTC()

	rec := memRecord(52.0, 0, now.Add(-1000*time.Hour))
	c.put(rec)
	assert.NotNil(t, c.get(rec.Key, now))
}

func TestMemCache_LRUEviction(t *testing.T) {
	c := newMemCache(2)
	now := time.Now().UTC()

	a := memRecord(50.0, 24, now)
	b := memRecord(51.0, 24, now)
	d := memRecord(53.0, 24, now)

	c.put(a)
	c.put(b)
	// Touch a so b becomes the oldest.
	require.NotNil(t, c.get(a.Key, now))

	c.put(d)
	assert.NotNil(t, c.get(a.Key, now))
	assert.Nil(t, c.get(b.Key, now))
	assert.NotNil(t, c.get(d.Key, now))
}

func TestMemCache_Stats(t *testing.T) {
	c := newMemCache(10)
	now := time.Now().UTC()

	rec := memRecord(52.0, 24, now)
	c.get(rec.Key, now) // miss
	c.put(rec)
	c.get(rec.Key, now) // hit

	s := c.stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, 10, s.MaxEntries)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 0.5, s.HitRate, 1e-9)
}

func TestMemCache_Clear(t *testing.T) {
	c := newMemCache(10)
	now := time.Now().UTC()

	rec := memRecord(52.0, 24, now)
	c.put(rec)
	c.clear()
	assert.Nil(t, c.get(rec.Key, now))
	assert.Zero(t, c.stats().Entries)
}
