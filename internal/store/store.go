// Package store provides the key-value persistence used for preferences and
// counters. Values are stored JSON-encoded, one row per key.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Driver names accepted by Open.
const (
	// DriverSQLite is the pure Go modernc.org/sqlite driver.
	DriverSQLite = "sqlite"
	// DriverSQLite3 is the cgo mattn/go-sqlite3 driver.
	DriverSQLite3 = "sqlite3"
	// DriverMemory keeps values in process memory only.
	DriverMemory = "memory"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// KV is a JSON key-value store.
type KV interface {
	// Get decodes the value for key into dest. It reports false when the key
	// does not exist, leaving dest untouched.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// DefaultPath returns the default database location.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "breathe", "breathe.db")
}

// Open returns the store for driver. An empty driver means DriverSQLite and an
// empty path means DefaultPath.
func Open(driver, path string) (KV, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case "", DriverSQLite, DriverSQLite3:
		if driver == "" {
			driver = DriverSQLite
		}
		if path == "" {
			path = DefaultPath()
		}
		db, err := OpenSQLite(driver, path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
