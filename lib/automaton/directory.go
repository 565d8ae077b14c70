// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package automaton

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// writableCatalog checks write access and returns the catalog with the
// collection secret issued.
func (c *Context) writableCatalog(ctx context.Context) (*porcupine.Porcupine[string, *neutron.Catalog], error) {
	if err := c.authorize(ctx, neutron.PermissionsWrite); err != nil {
		return nil, err
	}
	catalog, err := c.catalogCollection(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.writeSecret(ctx); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Add inserts an entry called name pointing at address.
func (c *Context) Add(ctx context.Context, name string, address proton.Address) error {
	catalog, err := c.writableCatalog(ctx)
	if err != nil {
		return err
	}
	door, err := catalog.Lookup(ctx, name)
	if err != nil {
		return err
	}
	err = door.Value().Insert(neutron.Entry{Name: name, Address: address})
	door.Close()
	if err != nil {
		return err
	}
	c.changed.contents = true
	return catalog.Update(ctx, name)
}

// Entry returns the entry called name.
func (c *Context) Entry(ctx context.Context, name string) (neutron.Entry, error) {
	if err := c.authorize(ctx, neutron.PermissionsRead); err != nil {
		return neutron.Entry{}, err
	}
	catalog, err := c.catalogCollection(ctx)
	if err != nil {
		return neutron.Entry{}, err
	}
	door, err := catalog.Lookup(ctx, name)
	if err != nil {
		return neutron.Entry{}, err
	}
	defer door.Close()
	entry, found := door.Value().Lookup(name)
	if !found {
		return neutron.Entry{}, fmt.Errorf("%w: %q", neutron.ErrNotFound, name)
	}
	return entry, nil
}

// List returns up to size entries in name order, starting at
// position index.
func (c *Context) List(ctx context.Context, index, size uint64) ([]neutron.Entry, error) {
	if err := c.authorize(ctx, neutron.PermissionsRead); err != nil {
		return nil, err
	}
	catalog, err := c.catalogCollection(ctx)
	if err != nil {
		return nil, err
	}
	var entries []neutron.Entry
	for position := index; position < catalog.Size() && uint64(len(entries)) < size; {
		door, base, err := catalog.Seek(ctx, position)
		if err != nil {
			return nil, err
		}
		node := door.Value().Entries[position-base:]
		take := min(uint64(len(node)), size-uint64(len(entries)))
		entries = append(entries, node[:take]...)
		door.Close()
		position += take
	}
	return entries, nil
}

// Remove deletes the entry called name and returns it.
func (c *Context) Remove(ctx context.Context, name string) (neutron.Entry, error) {
	catalog, err := c.writableCatalog(ctx)
	if err != nil {
		return neutron.Entry{}, err
	}
	door, err := catalog.Lookup(ctx, name)
	if err != nil {
		return neutron.Entry{}, err
	}
	entry, err := door.Value().Remove(name)
	door.Close()
	if err != nil {
		return neutron.Entry{}, err
	}
	c.changed.contents = true
	return entry, catalog.Update(ctx, name)
}

// Rename moves the entry called from to to. It fails if to exists.
func (c *Context) Rename(ctx context.Context, from, to string) error {
	if from == to {
		return nil
	}
	if err := neutron.ValidateName(to); err != nil {
		return err
	}
	if _, err := c.Entry(ctx, to); err == nil {
		return fmt.Errorf("%w: %q", neutron.ErrExists, to)
	}
	entry, err := c.Remove(ctx, from)
	if err != nil {
		return err
	}
	return c.Add(ctx, to, entry.Address)
}
