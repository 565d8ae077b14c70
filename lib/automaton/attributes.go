// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package automaton

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/neutron"
)

// Set stores the attribute called name. Only the owner sets
// attributes.
func (c *Context) Set(ctx context.Context, name string, value []byte) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	if _, err := c.writeSecret(ctx); err != nil {
		return err
	}
	attributes, err := c.attributesCollection(ctx)
	if err != nil {
		return err
	}
	door, err := attributes.Lookup(ctx, name)
	if err != nil {
		return err
	}
	changed, err := door.Value().Set(name, value)
	door.Close()
	if err != nil || !changed {
		return err
	}
	c.changed.attributes = true
	return attributes.Update(ctx, name)
}

// Get returns the attribute called name.
func (c *Context) Get(ctx context.Context, name string) ([]byte, error) {
	attributes, err := c.attributesCollection(ctx)
	if err != nil {
		return nil, err
	}
	door, err := attributes.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	defer door.Close()
	value, found := door.Value().Get(name)
	if !found {
		return nil, fmt.Errorf("%w: attribute %q", neutron.ErrNotFound, name)
	}
	return append([]byte(nil), value...), nil
}

// Fetch returns up to size attributes in name order from index.
func (c *Context) Fetch(ctx context.Context, index, size uint64) ([]neutron.Trait, error) {
	attributes, err := c.attributesCollection(ctx)
	if err != nil {
		return nil, err
	}
	var traits []neutron.Trait
	for position := index; position < attributes.Size() && uint64(len(traits)) < size; {
		door, base, err := attributes.Seek(ctx, position)
		if err != nil {
			return nil, err
		}
		node := door.Value().Traits[position-base:]
		take := min(uint64(len(node)), size-uint64(len(traits)))
		traits = append(traits, node[:take]...)
		door.Close()
		position += take
	}
	return traits, nil
}

// Omit removes the attribute called name. Only the owner omits
// attributes.
func (c *Context) Omit(ctx context.Context, name string) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	attributes, err := c.attributesCollection(ctx)
	if err != nil {
		return err
	}
	door, err := attributes.Lookup(ctx, name)
	if err != nil {
		return err
	}
	err = door.Value().Omit(name)
	door.Close()
	if err != nil {
		return err
	}
	c.changed.attributes = true
	return attributes.Update(ctx, name)
}
