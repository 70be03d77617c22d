// Package cache persists provider lookup results in a local SQLite
// database so repeated runs skip the network for recently fetched
// publications.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frantsen/citewatch/internal/source"
	_ "modernc.org/sqlite"
)

// Store is a provider response cache backed by SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the cache database at path. Entries older than
// ttl are treated as absent and pruned at open; a non-positive ttl
// keeps entries forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.prune(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pruning cache: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS fetch_cache (
			provider TEXT NOT NULL,
			lookup_key TEXT NOT NULL,
			bundle_json TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (provider, lookup_key)
		);
	`
	_, err := db.Exec(schema)
	return err
}

// prune deletes entries past their lifetime.
func (s *Store) prune() error {
	if s.ttl <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	_, err := s.db.Exec("DELETE FROM fetch_cache WHERE fetched_at < ?", cutoff)
	return err
}

// Get returns the cached bundle for one provider lookup, with false
// when the entry is absent or expired.
func (s *Store) Get(provider, key string) (source.Bundle, bool, error) {
	var (
		raw       string
		fetchedAt int64
	)
	err := s.db.QueryRow(
		"SELECT bundle_json, fetched_at FROM fetch_cache WHERE provider = ? AND lookup_key = ?",
		provider, key,
	).Scan(&raw, &fetchedAt)
	if err == sql.ErrNoRows {
		return source.Bundle{}, false, nil
	}
	if err != nil {
		return source.Bundle{}, false, fmt.Errorf("reading cache: %w", err)
	}

	if s.ttl > 0 && time.Unix(fetchedAt, 0).Add(s.ttl).Before(s.now()) {
		return source.Bundle{}, false, nil
	}

	var bundle source.Bundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return source.Bundle{}, false, fmt.Errorf("decoding cached bundle: %w", err)
	}
	return bundle, true, nil
}

// Put stores one provider lookup result, replacing any earlier entry
// for the same key.
func (s *Store) Put(provider, key string, bundle source.Bundle) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO fetch_cache (provider, lookup_key, bundle_json, fetched_at) VALUES (?, ?, ?, ?)",
		provider, key, string(raw), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Len reports the number of live entries, expired ones included until
// the next open prunes them.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM fetch_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
