// Package sqlite implements client-local key/value storage with SQLite as
// the query engine and a JSONL file as the source of truth. The database is
// rebuilt from the JSONL file on every Attach, so it never needs migrating.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// File names inside DataDir.
const (
	dbFileName   = "storefront.db"
	storageJSONL = "storage.jsonl"
)

// Backend implements types.Storage.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.StorageConfig
	db       *sql.DB

	// dirty is set when an on_close write has not reached the JSONL file.
	dirty bool
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds the SQLite schema, and loads
// the JSONL file into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.StorageConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is a cache of the JSONL file; start from a fresh one.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	jsonlPath := filepath.Join(dataDir, storageJSONL)
	if err := ensureEntriesFile(jsonlPath); err != nil {
		db.Close()
		return err
	}
	if err := loadEntries(db, jsonlPath); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.dirty = false
	b.attached = true
	return nil
}

// Detach flushes pending writes and closes the database.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.dirty {
		if err := b.flushEntriesLocked(); err != nil {
			return fmt.Errorf("flush pending writes: %w", err)
		}
		b.dirty = false
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// GetItem returns the value stored under key.
func (b *Backend) GetItem(key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", false, types.ErrStorageDetached
	}
	var value string
	err := b.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (b *Backend) SetItem(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStorageDetached
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := b.db.Exec(upsertEntry, key, value, now); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return b.persistLocked()
}

// RemoveItem deletes key.
func (b *Backend) RemoveItem(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStorageDetached
	}
	res, err := b.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	return b.persistLocked()
}

// Keys returns all stored keys in lexical order.
func (b *Backend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStorageDetached
	}
	rows, err := b.db.Query(`SELECT key FROM kv ORDER BY key`)
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

// persistLocked writes the JSONL file now or marks it for Detach, depending
// on the sync strategy. The caller must hold b.mu.
func (b *Backend) persistLocked() error {
	if b.config.EffectiveSyncStrategy() == types.SyncOnClose {
		b.dirty = true
		return nil
	}
	return b.flushEntriesLocked()
}

// flushEntriesLocked dumps the kv table to storage.jsonl atomically.
// The caller must hold b.mu.
func (b *Backend) flushEntriesLocked() error {
	entries, err := queryEntries(b.db)
	if err != nil {
		return err
	}
	return writeEntries(filepath.Join(b.config.DataDir, storageJSONL), entries)
}
