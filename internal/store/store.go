package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups and updates that match no row.
var ErrNotFound = errors.New("store: record not found")

// Store is the persistence layer for accounts, schedule groups, schedule
// entries, and share grants. It is the record source and the write
// collaborator behind the calendar engine.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
// Sets WAL mode and enables foreign keys.
// Runs migrations automatically.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would otherwise see its own
	// empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL gives better concurrent read behavior for the HTTP handlers.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed-width on purpose: the window queries compare stored
// timestamps as strings, and RFC3339Nano drops trailing fractional zeros,
// which breaks lexicographic ordering across differing precision
// ("...00.5Z" would sort before "...00Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// encodeTime converts a timestamp to its stored form. Zero times map to NULL.
func encodeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// decodeTime parses a stored timestamp. NULL maps to the zero time; a
// malformed value also maps to zero so that a corrupt row degrades to
// "no timestamp" instead of failing the whole read. Parsing stays on
// RFC3339Nano, which accepts both the fixed-width form and rows written
// before it.
func decodeTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
