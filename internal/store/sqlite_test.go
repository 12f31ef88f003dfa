package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRecord(lat float64, ttlHours int, fetchedAt time.Time) *Record {
	return &Record{
		Key:       NewCacheKey(lat, 13.405, 500),
		Response:  `{"elements":[]}`,
		Source:    "https://overpass.test/api",
		FetchedAt: fetchedAt.Truncate(time.Second),
		TTLHours:  ttlHours,
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := testRecord(52.52, 24, now)
	require.NoError(t, s.SetFetch(ctx, rec))

	got, err := s.GetFetch(ctx, rec.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, rec.Response, got.Response)
	assert.Equal(t, rec.Source, got.Source)
	assert.Equal(t, rec.TTLHours, got.TTLHours)
	assert.WithinDuration(t, now, got.FetchedAt, time.Second)
}

func TestSQLiteStore_MissReturnsNil(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetFetch(context.Background(), NewCacheKey(1, 2, 300))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := testRecord(52.52, 24, now)
	require.NoError(t, s.SetFetch(ctx, rec))

	rec2 := testRecord(52.52, 48, now)
	rec2.Response = `{"elements":[1]}`
	require.NoError(t, s.SetFetch(ctx, rec2))

	got, err := s.GetFetch(ctx, rec.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"elements":[1]}`, got.Response)
	assert.Equal(t, 48, got.TTLHours)
}

func TestSQLiteStore_ExpiredRecordNotReturned(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := testRecord(52.52, 1, time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, s.SetFetch(ctx, rec))

	got, err := s.GetFetch(ctx, rec.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SetFetch(ctx, testRecord(50.0, 1, now.Add(-2*time.Hour))))
	require.NoError(t, s.SetFetch(ctx, testRecord(51.0, 24, now)))
	require.NoError(t, s.SetFetch(ctx, testRecord(52.0, 0, now.Add(-1000*time.Hour)))) // no TTL

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Records)
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SetFetch(ctx, testRecord(50.0, 24, time.Now().UTC())))
	require.NoError(t, s.Clear(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Records)
}

func TestSQLiteStore_Stats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Records)
	assert.True(t, st.Oldest.IsZero())

	old := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.SetFetch(ctx, testRecord(50.0, 0, old)))
	require.NoError(t, s.SetFetch(ctx, testRecord(51.0, 0, time.Now().UTC())))

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Records)
	assert.WithinDuration(t, old, st.Oldest, time.Second)
}
