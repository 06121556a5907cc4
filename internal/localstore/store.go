// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("key must not be empty")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// backend is the storage engine behind a Store. Implementations need not
// be safe for concurrent use; Store serializes writers.
type backend interface {
	get(ctx context.Context, key string) (string, bool, error)
	set(ctx context.Context, key, value string) error
	remove(ctx context.Context, key string) error
	keys(ctx context.Context) ([]string, error)
	close() error
}

// Store is a persistent string key/value store. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	b       backend
	path    string
	backend string
	closed  bool
}

// Open opens (creating if needed) the SQLite store at path. The special
// path ":memory:" opens a private in-memory store.
func Open(path string) (*Store, error) {
	return OpenBackend(path, BackendSQLite)
}

// OpenBackend opens the store at path with the named backend. An empty
// name selects SQLite.
func OpenBackend(path, name string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path cannot be empty")
	}
	if name == "" {
		name = BackendSQLite
	}

	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	var (
		b   backend
		err error
	)
	switch name {
	case BackendSQLite:
		b, err = openSQLite(path)
	case BackendBolt:
		if inMemory {
			return nil, fmt.Errorf("%s backend has no in-memory mode", name)
		}
		b, err = openBolt(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	if err != nil {
		return nil, err
	}

	if !inMemory {
		// Keys are secrets; keep the file private.
		_ = os.Chmod(path, 0o600)
	}

	return &Store{b: b, path: path, backend: name}, nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Backend returns the backend name.
func (s *Store) Backend() string {
	return s.backend
}

// Get returns the value for key. The boolean is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}

	v, ok, err := s.b.get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.b.set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.b.remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key in ascending order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	keys, err := s.b.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Close releases the underlying file. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.b.close()
}
