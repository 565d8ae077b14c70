// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package depot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/nucleus/lib/testutil"
)

// backends opens one of each backend under a temporary directory.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	root := t.TempDir()
	result := make(map[string]Backend)
	for _, config := range []Config{
		{Backend: BackendMemory},
		{Backend: BackendDirectory, Path: filepath.Join(root, "directory")},
		{Backend: BackendSQLite, Path: filepath.Join(root, "depot.db"), PoolSize: 2},
	} {
		backend, err := Open(config)
		if err != nil {
			t.Fatalf("Open(%s): %v", config.Backend, err)
		}
		t.Cleanup(func() {
			if err := backend.Close(); err != nil {
				t.Errorf("Close(%s): %v", config.Backend, err)
			}
		})
		result[config.Backend] = backend
	}
	return result
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if exists, err := store.Exists(ctx, "missing"); err != nil || exists {
				t.Fatalf("Exists(missing) = %v, %v", exists, err)
			}
			if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load(missing): got %v, want ErrNotFound", err)
			}
			if err := store.Erase(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Erase(missing): got %v, want ErrNotFound", err)
			}

			if err := store.Store(ctx, "block/a", []byte("first")); err != nil {
				t.Fatalf("Store: %v", err)
			}
			if err := store.Store(ctx, "block/a", []byte("second")); err != nil {
				t.Fatalf("Store: %v", err)
			}
			value, err := store.Load(ctx, "block/a")
			if err != nil || string(value) != "second" {
				t.Fatalf("Load = %q, %v; want second", value, err)
			}
			value[0] = 'X'
			if again, _ := store.Load(ctx, "block/a"); string(again) != "second" {
				t.Fatal("modifying a loaded value changed the store")
			}

			if err := store.Store(ctx, "empty", nil); err != nil {
				t.Fatalf("Store(empty): %v", err)
			}
			if value, err := store.Load(ctx, "empty"); err != nil || len(value) != 0 {
				t.Fatalf("Load(empty) = %q, %v", value, err)
			}

			if err := store.Erase(ctx, "block/a"); err != nil {
				t.Fatalf("Erase: %v", err)
			}
			if exists, _ := store.Exists(ctx, "block/a"); exists {
				t.Fatal("erased key still exists")
			}
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		for _, key := range []string{"", "a\x00b", strings.Repeat("k", MaximumKeyLength+1)} {
			if err := store.Store(ctx, key, []byte("v")); err == nil {
				t.Errorf("%s: Store accepted key of %d bytes", name, len(key))
			}
		}
	}
}

func TestConcurrentStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var group sync.WaitGroup
			failures := make(chan error, 16)
			for index := range 16 {
				group.Add(1)
				go func() {
					defer group.Done()
					key := testutil.UniqueID("key/" + string(rune('a'+index)))
					if err := store.Store(ctx, key, []byte(key)); err != nil {
						failures <- err
						return
					}
					if value, err := store.Load(ctx, key); err != nil || string(value) != key {
						failures <- errors.Join(err, errors.New("value mismatch for "+key))
					}
				}()
			}
			group.Wait()
			close(failures)
			for err := range failures {
				t.Error(err)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(Config{Backend: "tape"}); err == nil {
		t.Fatal("Open accepted an unknown backend")
	}
	if _, err := Open(Config{Backend: BackendDirectory}); err == nil {
		t.Fatal("Open accepted a directory backend without a path")
	}
}
