// Package kvstore provides a persistent, lexicographically-ordered
// key/value table backed by SQLite, shared by the attribute cache (C1)
// and the settings store (C2). A single indexed TEXT PRIMARY KEY column
// gives the ordered-key semantics both callers need for prefix scans.
package kvstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Entry is one row: an opaque byte value plus bookkeeping timestamps.
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a disabled-or-open handle to one SQLite-backed table. A
// disabled store (zero value with disabled=true) fails every operation
// without side effect, per §4.1.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	table    string
	disabled bool
}

// Option configures a new Store.
type Option func(*Store)

// Disabled constructs a store that rejects every operation immediately.
// Used when a component's persistence directory failed to open at
// startup but the rest of the system should keep running (§7).
func Disabled() *Store {
	return &Store{disabled: true}
}

// Open opens (creating if necessary) a SQLite database at path and
// ensures the named table exists.
func Open(path, table string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("kvstore: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kvstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`, table)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: schema: %w", err)
	}

	log.Info().Str("path", path).Str("table", table).Msg("kvstore opened")
	return &Store{db: db, table: table}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Set writes key/value, flushing before returning.
func (s *Store) Set(key string, value []byte) error {
	if s.disabled {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().Unix()
	q := fmt.Sprintf(`INSERT INTO %s (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, s.table)
	_, err := s.db.Exec(q, key, value, now, now)
	if err != nil {
		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}
	return nil
}

// Get returns the value for key, or ok=false on miss (never on error
// beyond that — a read error is treated as a miss, per §4.1).
func (s *Store) Get(key string) (value []byte, ok bool) {
	if s.disabled {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table)
	var v []byte
	if err := s.db.QueryRow(q, key).Scan(&v); err != nil {
		return nil, false
	}
	return v, true
}

// Remove deletes key, reporting whether it existed.
func (s *Store) Remove(key string) (bool, error) {
	if s.disabled {
		return false, ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table)
	res, err := s.db.Exec(q, key)
	if err != nil {
		return false, fmt.Errorf("kvstore: remove %q: %w", key, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if s.disabled {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s`, s.table))
	return err
}

// Cleanup removes entries whose updated_at is older than maxAge.
func (s *Store) Cleanup(maxAge time.Duration) (int64, error) {
	if s.disabled {
		return 0, ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-maxAge).Unix()
	q := fmt.Sprintf(`DELETE FROM %s WHERE updated_at < ?`, s.table)
	res, err := s.db.Exec(q, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListKeys returns keys with the given prefix, lexicographically
// ordered, relying on the primary-key index for ordering.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	if s.disabled {
		return nil, ErrDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := fmt.Sprintf(`SELECT key FROM %s WHERE key >= ? AND key < ? ORDER BY key`, s.table)
	rows, err := s.db.Query(q, prefix, prefixUpperBound(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ListEntries returns full entries with the given prefix, ordered by key.
func (s *Store) ListEntries(prefix string) ([]Entry, error) {
	if s.disabled {
		return nil, ErrDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := fmt.Sprintf(`SELECT key, value, created_at, updated_at FROM %s WHERE key >= ? AND key < ? ORDER BY key`, s.table)
	rows, err := s.db.Query(q, prefix, prefixUpperBound(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, updated int64
		if err := rows.Scan(&e.Key, &e.Value, &created, &updated); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0)
		e.UpdatedAt = time.Unix(updated, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// prefixUpperBound returns the smallest string that sorts after every
// string with the given prefix, letting a BETWEEN-style range query
// stand in for a LIKE scan without defeating the primary-key index.
func prefixUpperBound(prefix string) string {
	if prefix == "" {
		return "\xff\xff\xff\xff"
	}
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return prefix + "\xff"
}

// ErrDisabled is returned by every operation on a disabled store.
var ErrDisabled = fmt.Errorf("kvstore: disabled")
