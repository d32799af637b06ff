// Package db provides the durable key-value substrate for MerchSync.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Well-known keys in the kv_entries table. The cache snapshot and the
// action queue each live under a single key as one JSON record.
const (
	KeyOfflineCache     = "offline_cache"
	KeyOfflineActions   = "offline_actions"
	KeyConfirmedActions = "offline_confirmed"
	KeyDeadLetters      = "offline_dead_letters"
	KeyBackendToken     = "backend_token"
)

// Store provides get/set/delete access to the kv_entries table.
// Statements are prepared on first use and cached for reuse.
type Store struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewStore creates a new Store instance.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// PrepareStmt gets or creates a prepared statement from cache.
// Key is the query string, value is the prepared statement.
func (s *Store) PrepareStmt(query string) (*sql.Stmt, error) {
	// Try to get from cache first
	if stmt, ok := s.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	// Prepare and cache
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	// Store in cache (if already stored by another goroutine, use existing)
	actual, loaded := s.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}

	return stmt, nil
}

// Get returns the value stored under key. The second return value reports
// whether the key was present.
func (s *Store) Get(key string) ([]byte, bool, error) {
	query := `SELECT value FROM kv_entries WHERE key = ?`
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return nil, false, err
	}

	var value []byte
	err = stmt.QueryRow(key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key string, value []byte) error {
	query := `
	INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(key, value, time.Now().Unix())
	return err
}

// Delete removes the value stored under key. Deleting a missing key is
// not an error.
func (s *Store) Delete(key string) error {
	query := `DELETE FROM kv_entries WHERE key = ?`
	stmt, err := s.PrepareStmt(query)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(key)
	return err
}

// Close closes all cached prepared statements.
// Should be called when the Store is no longer needed.
func (s *Store) Close() error {
	var firstErr error
	s.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}
