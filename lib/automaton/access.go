// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package automaton

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/neutron"
)

// errStop ends an Each walk early.
var errStop = errors.New("stop")

func (c *Context) lookupRecord(ctx context.Context, subject neutron.Subject) (neutron.Record, bool, error) {
	access, err := c.accessCollection(ctx)
	if err != nil {
		return neutron.Record{}, false, err
	}
	door, err := access.Lookup(ctx, subject.Identifier())
	if err != nil {
		return neutron.Record{}, false, err
	}
	defer door.Close()
	record, _, found := door.Value().Lookup(subject)
	return record, found, nil
}

// position returns the index of subject's record in the access list.
func (c *Context) position(ctx context.Context, subject neutron.Subject) (uint64, bool, error) {
	access, err := c.accessCollection(ctx)
	if err != nil {
		return 0, false, err
	}
	var index uint64
	found := false
	err = access.Each(ctx, func(node *neutron.Access) error {
		_, offset, ok := node.Lookup(subject)
		if ok {
			index += uint64(offset)
			found = true
			return errStop
		}
		index += node.Capacity()
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return 0, false, err
	}
	return index, found, nil
}

// putRecord grants record in the access list.
func (c *Context) putRecord(ctx context.Context, record neutron.Record) error {
	access, err := c.accessCollection(ctx)
	if err != nil {
		return err
	}
	key := record.Subject.Identifier()
	door, err := access.Lookup(ctx, key)
	if err != nil {
		return err
	}
	err = door.Value().Grant(record)
	door.Close()
	if err != nil {
		return err
	}
	c.changed.access = true
	return access.Update(ctx, key)
}

// Grant gives subject permissions, replacing any previous grant. Users
// that may read receive a token for the collection secret. Only the
// owner grants, and not to itself: its own permissions are set with
// SetOwnerPermissions.
func (c *Context) Grant(ctx context.Context, subject neutron.Subject, permissions neutron.Permissions) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	if err := subject.Validate(); err != nil {
		return err
	}
	if subject == neutron.UserSubject(c.object.Owner()) {
		return fmt.Errorf("automaton: the owner's permissions are not granted through the access list")
	}
	record := neutron.Record{Subject: subject, Permissions: permissions}
	if subject.Kind == neutron.SubjectUser && permissions.Has(neutron.PermissionsRead) {
		secret, err := c.writeSecret(ctx)
		if err != nil {
			return err
		}
		if record.Token, err = cryptography.WrapSecret(secret, subject.Key); err != nil {
			return err
		}
	}
	if err := c.putRecord(ctx, record); err != nil {
		return err
	}
	c.logger.Info("access granted", "subject", subject.String(), "permissions", permissions.String())
	return nil
}

// Lookup returns the record of subject. The owner's is derived from
// the meta section.
func (c *Context) Lookup(ctx context.Context, subject neutron.Subject) (neutron.Record, bool, error) {
	if subject == neutron.UserSubject(c.object.Owner()) {
		return c.object.OwnerRecord(), true, nil
	}
	return c.lookupRecord(ctx, subject)
}

// Consult returns up to size records of the access list from index.
func (c *Context) Consult(ctx context.Context, index, size uint64) ([]neutron.Record, error) {
	access, err := c.accessCollection(ctx)
	if err != nil {
		return nil, err
	}
	var records []neutron.Record
	for position := index; position < access.Size() && uint64(len(records)) < size; {
		door, base, err := access.Seek(ctx, position)
		if err != nil {
			return nil, err
		}
		node := door.Value().Records[position-base:]
		take := min(uint64(len(node)), size-uint64(len(records)))
		records = append(records, node[:take]...)
		door.Close()
		position += take
	}
	return records, nil
}

// Revoke removes subject's record. Revoking a record that held a token
// rotates the collection secret: Store reseals the contents and
// attributes and every remaining reader gets a new token.
func (c *Context) Revoke(ctx context.Context, subject neutron.Subject) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	access, err := c.accessCollection(ctx)
	if err != nil {
		return err
	}
	key := subject.Identifier()
	door, err := access.Lookup(ctx, key)
	if err != nil {
		return err
	}
	previous, _, found := door.Value().Lookup(subject)
	if found {
		err = door.Value().Revoke(subject)
	} else {
		err = fmt.Errorf("%w: access record %s", neutron.ErrNotFound, subject)
	}
	door.Close()
	if err != nil {
		return err
	}
	c.changed.access = true
	if err := access.Update(ctx, key); err != nil {
		return err
	}
	c.logger.Info("access revoked", "subject", subject.String())

	if previous.Token.IsEmpty() {
		return nil
	}
	return c.rekey(ctx)
}

// rekey rotates the collection secret and rewraps every reader token.
func (c *Context) rekey(ctx context.Context) error {
	if _, err := c.readSecret(ctx); err != nil {
		return err
	}
	if err := c.openForRekey(ctx); err != nil {
		return err
	}
	secret, err := c.rotate()
	if err != nil {
		return err
	}

	access, err := c.accessCollection(ctx)
	if err != nil {
		return err
	}
	var readers []neutron.Record
	err = access.Each(ctx, func(node *neutron.Access) error {
		for _, record := range node.Records {
			if !record.Token.IsEmpty() {
				readers = append(readers, record)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, record := range readers {
		if record.Token, err = cryptography.WrapSecret(secret, record.Subject.Key); err != nil {
			return err
		}
		if err := c.putRecord(ctx, record); err != nil {
			return err
		}
	}
	c.changed.contents = true
	c.logger.Info("collection secret rotated", "readers", len(readers))
	return nil
}

// SetOwnerPermissions changes the owner's own permissions. They take
// effect at once and are signed by the next Store.
func (c *Context) SetOwnerPermissions(permissions neutron.Permissions) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	if !permissions.Valid() {
		return fmt.Errorf("automaton: invalid permissions %d", permissions)
	}
	c.object.Administrate(c.object.Meta.Attributes, permissions)
	return nil
}
