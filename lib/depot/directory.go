// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package depot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

var keyDomain = cryptography.NewDomain("nucleus.depot.key")

// record is the content of one file of a Directory. The key is kept so
// a file can be traced back to it and checked on load.
type record struct {
	Key   string `cbor:"1,keyasint"`
	Value []byte `cbor:"2,keyasint"`
}

// Directory is a Store with one CBOR file per key:
//
//	<root>/<hash[:2]>/<hash[2:4]>/<hash>.cbor
//
// where hash is the keyed BLAKE3 digest of the key. Writes go to a
// temporary file renamed into place, so readers never see a partial
// value.
type Directory struct {
	root   string
	logger *slog.Logger
}

var _ Backend = (*Directory)(nil)

// NewDirectory creates root if needed and returns a Directory over it.
func NewDirectory(root string, logger *slog.Logger) (*Directory, error) {
	if root == "" {
		return nil, fmt.Errorf("depot: directory backend needs a path")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("depot: creating %s: %w", root, err)
	}
	logger.Debug("directory depot opened", "root", root)
	return &Directory{root: root, logger: logger}, nil
}

func (d *Directory) path(key string) string {
	name := cryptography.Hash(keyDomain, []byte(key)).String()
	return filepath.Join(d.root, name[:2], name[2:4], name+".cbor")
}

func (d *Directory) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(d.path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("depot: %s: %w", key, err)
	}
}

func (d *Directory) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("depot: reading %s: %w", path, err)
	}
	var stored record
	if err := codec.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("depot: decoding %s: %w", path, err)
	}
	if stored.Key != key {
		return nil, fmt.Errorf("depot: %s holds key %q, not %q", path, stored.Key, key)
	}
	if stored.Value == nil {
		stored.Value = []byte{}
	}
	return stored.Value, nil
}

func (d *Directory) Store(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := codec.Marshal(record{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("depot: encoding %s: %w", key, err)
	}

	final := d.path(key)
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("depot: creating shard directory: %w", err)
	}
	temporary, err := os.CreateTemp(d.root, "store-*.cbor")
	if err != nil {
		return fmt.Errorf("depot: creating temporary file: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(temporary.Name())
		}
	}()

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return fmt.Errorf("depot: writing %s: %w", key, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("depot: closing temporary file: %w", err)
	}
	if err := os.Rename(temporary.Name(), final); err != nil {
		return fmt.Errorf("depot: renaming into %s: %w", final, err)
	}
	renamed = true
	return nil
}

func (d *Directory) Erase(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("depot: erasing %s: %w", key, err)
	}
	return nil
}

// Close does nothing; files are closed after every operation.
func (d *Directory) Close() error { return nil }
