// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
)

// Record grants permissions on an object to a subject. Token wraps the
// object's collection secret for the subject when it may read.
type Record struct {
	Subject     Subject            `cbor:"1,keyasint"`
	Permissions Permissions        `cbor:"2,keyasint"`
	Token       cryptography.Token `cbor:"3,keyasint,omitempty"`
}

func (r Record) footprint() int {
	return len(r.Subject.Identifier()) + len(r.Token) + recordOverhead
}

// Access is a node of an object's access control list, sorted by
// subject identifier.
type Access struct {
	Records []Record `cbor:"1,keyasint"`
}

var _ porcupine.Value[string, *Access] = (*Access)(nil)

// NewAccess returns an empty access node.
func NewAccess() *Access { return &Access{} }

func (a *Access) Kind() string { return "access" }

func (a *Access) Minor() string {
	if len(a.Records) == 0 {
		return ""
	}
	return a.Records[0].Subject.Identifier()
}

func (a *Access) Mayor() string {
	if len(a.Records) == 0 {
		return ""
	}
	return a.Records[len(a.Records)-1].Subject.Identifier()
}

func (a *Access) Capacity() uint64 { return uint64(len(a.Records)) }

func (a *Access) Footprint() int {
	total := nodeOverhead
	for _, record := range a.Records {
		total += record.footprint()
	}
	return total
}

func (a *Access) Empty() bool { return len(a.Records) == 0 }

func (a *Access) Split(limit int) (*Access, error) {
	keep := splitPoint(len(a.Records), limit, func(index int) int { return a.Records[index].footprint() })
	right := &Access{}
	if keep < len(a.Records) {
		right.Records = slices.Clone(a.Records[keep:])
		a.Records = slices.Clip(a.Records[:keep])
	}
	return right, nil
}

func (a *Access) Merge(right *Access) error {
	if len(a.Records) > 0 && len(right.Records) > 0 && right.Minor() <= a.Mayor() {
		return fmt.Errorf("neutron: access record %s does not follow %s", right.Minor(), a.Mayor())
	}
	a.Records = append(a.Records, right.Records...)
	return nil
}

func (a *Access) Validate() error {
	for index, record := range a.Records {
		if err := record.Subject.Validate(); err != nil {
			return err
		}
		if !record.Permissions.Valid() {
			return fmt.Errorf("neutron: access record %s has invalid permissions %d", record.Subject, record.Permissions)
		}
		if index > 0 && a.Records[index-1].Subject.Identifier() >= record.Subject.Identifier() {
			return fmt.Errorf("neutron: access record %s does not follow %s", record.Subject, a.Records[index-1].Subject)
		}
	}
	return nil
}

func (a *Access) search(subject Subject) (int, bool) {
	identifier := subject.Identifier()
	return slices.BinarySearchFunc(a.Records, identifier, func(record Record, target string) int {
		return strings.Compare(record.Subject.Identifier(), target)
	})
}

// Grant adds a record or replaces the record of the same subject.
func (a *Access) Grant(record Record) error {
	if err := record.Subject.Validate(); err != nil {
		return err
	}
	if !record.Permissions.Valid() {
		return fmt.Errorf("neutron: invalid permissions %d", record.Permissions)
	}
	index, found := a.search(record.Subject)
	if found {
		a.Records[index] = record
		return nil
	}
	a.Records = slices.Insert(a.Records, index, record)
	return nil
}

// Lookup returns the record of subject and its position in the node.
func (a *Access) Lookup(subject Subject) (Record, int, bool) {
	index, found := a.search(subject)
	if !found {
		return Record{}, 0, false
	}
	return a.Records[index], index, true
}

// Revoke removes the record of subject.
func (a *Access) Revoke(subject Subject) error {
	index, found := a.search(subject)
	if !found {
		return fmt.Errorf("%w: access record %s", ErrNotFound, subject)
	}
	a.Records = slices.Delete(a.Records, index, index+1)
	return nil
}

// Records resolves lord authors: the access record at a position of
// an object's access collection.
type Records interface {
	Record(ctx context.Context, index uint64) (Record, error)
}

// AccessRecords resolves positions through an access collection.
type AccessRecords struct {
	Collection *porcupine.Porcupine[string, *Access]
}

// Record implements Records.
func (r AccessRecords) Record(ctx context.Context, index uint64) (Record, error) {
	if r.Collection == nil || index >= r.Collection.Size() {
		return Record{}, fmt.Errorf("%w: no access record at %d", ErrNotFound, index)
	}
	door, base, err := r.Collection.Seek(ctx, index)
	if err != nil {
		return Record{}, err
	}
	defer door.Close()
	return door.Value().Records[index-base], nil
}

var fingerprintDomain = cryptography.NewDomain("nucleus.neutron.fingerprint")

// Fingerprint digests the ordered (subject, permissions) pairs of an
// access collection. Tokens are left out so rewrapping a secret does
// not change it. A nil or empty collection has the zero digest.
func Fingerprint(ctx context.Context, access *porcupine.Porcupine[string, *Access]) (cryptography.Digest, error) {
	if access == nil || access.Empty() {
		return cryptography.Digest{}, nil
	}
	var parts [][]byte
	err := access.Each(ctx, func(node *Access) error {
		for _, record := range node.Records {
			part, err := codec.Tuple(record.Subject, record.Permissions)
			if err != nil {
				return fmt.Errorf("neutron: encoding access record: %w", err)
			}
			parts = append(parts, part)
		}
		return nil
	})
	if err != nil {
		return cryptography.Digest{}, err
	}
	return cryptography.Hash(fingerprintDomain, parts...), nil
}
