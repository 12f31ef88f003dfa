// Package store persists map-service fetch-cache records. The cache is
// the only state that outlives a generation run; entities never do.
package store

import (
	"context"
	"fmt"
	"math"
	"time"
)

// CacheKey identifies one fetch request. Latitude and longitude are
// rounded to four decimals and the radius to whole meters, so requests
// for effectively the same region share a record.
type CacheKey struct {
	Lat     float64
	Lon     float64
	RadiusM int
}

// NewCacheKey rounds raw request coordinates into a cache key.
func NewCacheKey(lat, lon, radiusM float64) CacheKey {
	return CacheKey{
		Lat:     math.Round(lat*1e4) / 1e4,
		Lon:     math.Round(lon*1e4) / 1e4,
		RadiusM: int(math.Round(radiusM)),
	}
}

// String returns the canonical key form used as the primary key.
func (k CacheKey) String() string {
	return fmt.Sprintf("%.4f,%.4f,%d", k.Lat, k.Lon, k.RadiusM)
}

// Record is one cached fetch: the raw response text plus enough metadata
// to expire it.
type Record struct {
	Key       CacheKey
	Response  string
	Source    string // endpoint URL, or "synthetic"
	FetchedAt time.Time
	TTLHours  int
}

// Expired reports whether the record's TTL has elapsed at the given time.
func (r *Record) Expired(now time.Time) bool {
	if r.TTLHours <= 0 {
		return false
	}
	return now.Sub(r.FetchedAt) > time.Duration(r.TTLHours)*time.Hour
}

// Stats summarizes the persistent cache contents.
type Stats struct {
	Records int       `json:"records"`
	Oldest  time.Time `json:"oldest,omitempty"`
}

// Store is the persistence interface for fetch-cache records.
type Store interface {
	// GetFetch returns the record for key, or nil when absent or expired.
	GetFetch(ctx context.Context, key CacheKey) (*Record, error)
	// SetFetch inserts or replaces the record for its key.
	SetFetch(ctx context.Context, rec *Record) error
	// DeleteExpired removes expired records and returns the count.
	DeleteExpired(ctx context.Context) (int, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
	// Stats reports cache contents.
	Stats(ctx context.Context) (Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}
