package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mapscene/internal/db"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore from a connection string.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	key        TEXT PRIMARY KEY,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	radius_m   INTEGER NOT NULL,
	response   TEXT NOT NULL,
	source     TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	ttl_hours  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_cache_fetched_at ON fetch_cache(fetched_at);
`

// Migrate creates the cache schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// GetFetch implements Store.
func (s *PostgresStore) GetFetch(ctx context.Context, key CacheKey) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT lat, lon, radius_m, response, source, fetched_at, ttl_hours
		 FROM fetch_cache WHERE key = $1`,
		key.String(),
	)

	var rec Record
	err := row.Scan(&rec.Key.Lat, &rec.Key.Lon, &rec.Key.RadiusM,
		&rec.Response, &rec.Source, &rec.FetchedAt, &rec.TTLHours)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get fetch %s", key)
	}
	if rec.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return &rec, nil
}

// SetFetch implements Store.
func (s *PostgresStore) SetFetch(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fetch_cache (key, lat, lon, radius_m, response, source, fetched_at, ttl_hours)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (key) DO UPDATE SET
			response   = EXCLUDED.response,
			source     = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at,
			ttl_hours  = EXCLUDED.ttl_hours`,
		rec.Key.String(), rec.Key.Lat, rec.Key.Lon, rec.Key.RadiusM,
		rec.Response, rec.Source, rec.FetchedAt.UTC(), rec.TTLHours,
	)
	return eris.Wrapf(err, "postgres: set fetch %s", rec.Key)
}

// DeleteExpired implements Store.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM fetch_cache
		 WHERE ttl_hours > 0
		   AND fetched_at + make_interval(hours => ttl_hours) <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM fetch_cache`)
	return eris.Wrap(err, "postgres: clear")
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest *time.Time
	row := s.pool.QueryRow(ctx, `SELECT COUNT(*), MIN(fetched_at) FROM fetch_cache`)
	if err := row.Scan(&st.Records, &oldest); err != nil {
		return Stats{}, eris.Wrap(err, "postgres: stats")
	}
	if oldest != nil {
		st.Oldest = *oldest
	}
	return st, nil
}
