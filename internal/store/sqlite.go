package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fetch_cache (
	key        TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	radius_m   INTEGER NOT NULL,
	response   TEXT NOT NULL,
	source     TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	ttl_hours  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_cache_fetched_at ON fetch_cache(fetched_at);
`

// Migrate creates the cache schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetFetch implements Store.
func (s *SQLiteStore) GetFetch(ctx context.Context, key CacheKey) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, radius_m, response, source, fetched_at, ttl_hours
		 FROM fetch_cache WHERE key = ?`,
		key.String(),
	)

	var rec Record
	err := row.Scan(&rec.Key.Lat, &rec.Key.Lon, &rec.Key.RadiusM,
		&rec.Response, &rec.Source, &rec.FetchedAt, &rec.TTLHours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get fetch %s", key)
	}
	if rec.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return &rec, nil
}

// SetFetch implements Store.
func (s *SQLiteStore) SetFetch(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_cache (key, lat, lon, radius_m, response, source, fetched_at, ttl_hours)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			response   = excluded.response,
			source     = excluded.source,
			fetched_at = excluded.fetched_at,
			ttl_hours  = excluded.ttl_hours`,
		rec.Key.String(), rec.Key.Lat, rec.Key.Lon, rec.Key.RadiusM,
		rec.Response, rec.Source, rec.FetchedAt.UTC(), rec.TTLHours,
	)
	return eris.Wrapf(err, "sqlite: set fetch %s", rec.Key)
}

// DeleteExpired implements Store.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM fetch_cache
		 WHERE ttl_hours > 0
		   AND datetime(fetched_at, '+' || ttl_hours || ' hours') <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fetch_cache`)
	return eris.Wrap(err, "sqlite: clear")
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest sql.NullTime
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(fetched_at) FROM fetch_cache`,
	)
	if err := row.Scan(&st.Records, &oldest); err != nil {
		return Stats{}, eris.Wrap(err, "sqlite: stats")
	}
	if oldest.Valid {
		st.Oldest = oldest.Time
	}
	return st, nil
}
