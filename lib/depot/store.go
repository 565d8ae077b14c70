// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package depot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var (
	// ErrNotFound reports a key with no value.
	ErrNotFound = errors.New("depot: not found")

	// ErrStaleRevision reports a mutable block stored at a revision
	// that does not exceed the one already held.
	ErrStaleRevision = errors.New("depot: stale revision")
)

// MaximumKeyLength bounds keys in every backend.
const MaximumKeyLength = 512

// Store is a key-value space. Implementations are safe for concurrent
// use. Load returns a copy the caller owns.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte) error
	Erase(ctx context.Context, key string) error
}

// Backend is a Store holding resources.
type Backend interface {
	Store
	io.Closer
}

// ValidateKey rejects keys no backend accepts.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("depot: empty key")
	case len(key) > MaximumKeyLength:
		return fmt.Errorf("depot: key is %d bytes, maximum is %d", len(key), MaximumKeyLength)
	case strings.ContainsRune(key, 0):
		return fmt.Errorf("depot: key %q contains NUL", key)
	}
	return nil
}

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendDirectory = "directory"
	BackendSQLite    = "sqlite"
)

// Config selects and parameterizes a backend.
type Config struct {
	// Backend is one of the Backend constants. Empty means memory.
	Backend string

	// Path is the directory of a directory backend or the database
	// file of a sqlite backend.
	Path string

	// PoolSize is the sqlite connection count; zero picks a default.
	PoolSize int

	Logger *slog.Logger
}

// Open creates the configured backend.
func Open(config Config) (Backend, error) {
	switch config.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendDirectory:
		return NewDirectory(config.Path, config.Logger)
	case BackendSQLite:
		return NewSQLite(config.Path, config.PoolSize, config.Logger)
	default:
		return nil, fmt.Errorf("depot: unknown backend %q", config.Backend)
	}
}
