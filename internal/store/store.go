// Package store provides the key-value persistence used for the cached
// palette.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// DefaultDir returns the per-user directory for accent's stores.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "accent"), nil
}

// DefaultPath returns the default store location for backend.
func DefaultPath(backend string) (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	switch backend {
	case BackendFile, "":
		return filepath.Join(dir, "store.json"), nil
	case BackendSQLite:
		return filepath.Join(dir, "store.db"), nil
	default:
		return "", fmt.Errorf("unknown store backend %q", backend)
	}
}

// Open opens a store of the given backend at path. An empty path selects
// the backend's default location.
func Open(backend, path string) (Store, error) {
	if path == "" {
		p, err := DefaultPath(backend)
		if err != nil {
			return nil, err
		}
		path = p
	}

	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected %s or %s)", backend, BackendFile, BackendSQLite)
	}
}
