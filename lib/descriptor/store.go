// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/nucleus/lib/depot"
)

// Store keeps descriptors in a depot under
// "descriptors/<user>/<network>".
type Store struct {
	depot  depot.Store
	logger *slog.Logger
}

// NewStore returns a Store over backend.
func NewStore(backend depot.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{depot: backend, logger: logger}
}

func storeKey(user, network string) (string, error) {
	for _, part := range []string{user, network} {
		if part == "" || strings.ContainsAny(part, "/\x00") {
			return "", fmt.Errorf("descriptor: invalid user or network name %q", part)
		}
	}
	return "descriptors/" + user + "/" + network, nil
}

// Exists reports whether user holds a descriptor of network.
func (s *Store) Exists(ctx context.Context, user, network string) (bool, error) {
	key, err := storeKey(user, network)
	if err != nil {
		return false, err
	}
	return s.depot.Exists(ctx, key)
}

// Load returns the descriptor user holds of network. It is decoded
// but not validated.
func (s *Store) Load(ctx context.Context, user, network string) (*Descriptor, error) {
	key, err := storeKey(user, network)
	if err != nil {
		return nil, err
	}
	data, err := s.depot.Load(ctx, key)
	if errors.Is(err, depot.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, user, network)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Store saves d as the descriptor user holds of network.
func (s *Store) Store(ctx context.Context, user, network string, d *Descriptor) error {
	key, err := storeKey(user, network)
	if err != nil {
		return err
	}
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := s.depot.Store(ctx, key, data); err != nil {
		return err
	}
	s.logger.Info("descriptor stored", "user", user, "network", network)
	return nil
}

// Erase removes the descriptor user holds of network.
func (s *Store) Erase(ctx context.Context, user, network string) error {
	key, err := storeKey(user, network)
	if err != nil {
		return err
	}
	err = s.depot.Erase(ctx, key)
	if errors.Is(err, depot.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, user, network)
	}
	return err
}
