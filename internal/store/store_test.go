package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCacheKey_Rounding(t *testing.T) {
	tests := []struct {
		name             string
		lat, lon, radius float64
		want             string
	}{
		{"exact", 52.5, 13.4, 500, "52.5000,13.4000,500"},
		{"rounds_down", 52.50004, 13.40004, 500.4, "52.5000,13.4000,500"},
		{"rounds_up", 52.50005, 13.40006, 500.5, "52.5001,13.4001,501"},
		{"negative", -33.8688, 151.2093, 250, "-33.8688,151.2093,250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCacheKey(tt.lat, tt.lon, tt.radius).String())
		})
	}
}

func TestNewCacheKey_NearbyRequestsShareKey(t *testing.T) {
	a := NewCacheKey(52.52000, 13.40500, 500)
	b := NewCacheKey(52.52003, 13.40497, 499.8)
	assert.Equal(t, a, b)

	c := NewCacheKey(52.521, 13.405, 500)
	assert.NotEqual(t, a, c)
}

func TestRecord_Expired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	fresh := &Record{FetchedAt: now.Add(-23 * time.Hour), TTLHours: 24}
	assert.False(t, fresh.Expired(now))

	stale := &Record{FetchedAt: now.Add(-25 * time.Hour), TTLHours: 24}
	assert.True(t, stale.Expired(now))

	// Zero TTL never expires.
	eternal := &Record{FetchedAt: now.Add(-10000 * time.Hour), TTLHours: 0}
	assert.False(t, eternal.Expired(now))
}
