// Package store owns all local durability: the readings table, the outbound
// sync queue, and the conflict table.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const dbFile = "glucolog.db"

// Store wraps the local sqlite database
type Store struct {
	conn *sql.DB

	// Serializes writes. sqlite allows one writer at a time; funneling
	// writes through this mutex keeps SQLITE_BUSY out of normal operation.
	writeMu sync.Mutex

	watchMu  sync.Mutex
	watchers map[int]*watcher
	nextWID  int
}

// Open opens an existing database and runs any pending migrations
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: run 'glucolog init' first")
	}

	return open(dbPath)
}

// Initialize creates the database (and parent directory) and runs migrations
func Initialize(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StorageError{Op: "open database", Err: err}
	}

	// WAL for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, &StorageError{Op: "enable WAL mode", Err: err}
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, &StorageError{Op: "set busy timeout", Err: err}
	}
	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	s := &Store{conn: conn, watchers: make(map[int]*watcher)}

	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// NewWithConn wraps an already-opened database connection and runs migrations.
// Used by tests that open an in-memory database with a different driver.
func NewWithConn(conn *sql.DB) (*Store, error) {
	s := &Store{conn: conn, watchers: make(map[int]*watcher)}
	if err := s.runMigrations(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying connection, for diagnostics
func (s *Store) Conn() *sql.DB {
	return s.conn
}

func (s *Store) withWriteLock(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

// GetSchemaVersion returns the current schema version
func (s *Store) GetSchemaVersion() (int, error) {
	var version int
	err := s.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err != nil {
		// Missing row or missing table both mean pre-migration
		return 0, nil
	}
	return version, nil
}

func (s *Store) setSchemaVersion(version int) error {
	_, err := s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`, version)
	return err
}

func (s *Store) runMigrations() error {
	current, _ := s.GetSchemaVersion()
	if current >= SchemaVersion {
		return nil
	}

	return s.withWriteLock(func() error {
		if _, err := s.conn.Exec(schema); err != nil {
			return &StorageError{Op: "create schema", Err: err}
		}
		if err := s.setSchemaVersion(SchemaVersion); err != nil {
			return &StorageError{Op: "set schema version", Err: err}
		}
		return nil
	})
}
