// Package store keeps the user photo carousel in SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store wraps the SQLite connection that holds uploaded photos.
type Store struct {
	db       *sql.DB
	path     string
	capacity int
}

// New opens the database at dbPath and runs migrations. capacity bounds
// the number of photos kept.
func New(dbPath string, capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("photo capacity must be positive, got %d", capacity)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection.
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if dbPath != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		capacity: capacity,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location, or MemoryPath.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Capacity returns the maximum number of photos kept.
func (s *Store) Capacity() int {
	return s.capacity
}
