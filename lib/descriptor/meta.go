// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/clock"
	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// MetaFields are the signed fields of a Meta section.
type MetaFields struct {
	Identifier    string                 `cbor:"1,keyasint"`
	Administrator cryptography.PublicKey `cbor:"2,keyasint"`
	Model         Model                  `cbor:"3,keyasint"`

	// Root is the address of the root directory and RootObject the
	// encoded object as sealed when the network was created.
	Root       proton.Address `cbor:"4,keyasint"`
	RootObject []byte         `cbor:"5,keyasint"`

	// Everybody is the address of the group every user belongs to.
	Everybody proton.Address `cbor:"6,keyasint"`

	History bool   `cbor:"7,keyasint"`
	Extent  uint32 `cbor:"8,keyasint"`
}

// Meta is the authority-signed section of a descriptor.
type Meta struct {
	MetaFields
	Signature cryptography.Signature `cbor:"9,keyasint"`
}

// payload is the tuple the authority signs.
func (f *MetaFields) payload() ([]byte, error) {
	return codec.Tuple(
		f.Identifier,
		f.Administrator,
		f.Model,
		f.Root,
		f.RootObject,
		f.Everybody,
		f.History,
		f.Extent,
	)
}

func (f *MetaFields) check() error {
	switch {
	case f.Identifier == "":
		return fmt.Errorf("descriptor: empty network identifier")
	case f.Administrator.IsZero():
		return fmt.Errorf("descriptor: no administrator key")
	case f.Model != ModelStandard:
		return fmt.Errorf("descriptor: unknown model %s", f.Model)
	case f.Root.Family != proton.FamilyMutable || f.Root.Component != proton.ComponentObject:
		return fmt.Errorf("descriptor: root %s is not a mutable object", f.Root)
	case f.Extent == 0:
		return fmt.Errorf("descriptor: zero extent")
	}
	return nil
}

// NewMeta assembles a Meta from fields and a signature made elsewhere.
// The signature is not checked; Validate does that.
func NewMeta(fields MetaFields, signature cryptography.Signature) *Meta {
	return &Meta{MetaFields: fields, Signature: signature}
}

// SignMeta checks fields and signs them with authority.
func SignMeta(fields MetaFields, authority cryptography.Signer) (*Meta, error) {
	if err := fields.check(); err != nil {
		return nil, err
	}
	payload, err := fields.payload()
	if err != nil {
		return nil, fmt.Errorf("descriptor: encoding meta: %w", err)
	}
	return NewMeta(fields, authority.Sign(payload)), nil
}

// Validate checks the section against the authority's key.
func (m *Meta) Validate(authority cryptography.PublicKey) error {
	if err := m.check(); err != nil {
		return &ValidationError{Section: SectionMeta, Err: err}
	}
	payload, err := m.payload()
	if err != nil {
		return &ValidationError{Section: SectionMeta, Err: err}
	}
	if !authority.Verify(payload, m.Signature) {
		return &ValidationError{Section: SectionMeta, Err: fmt.Errorf("signature does not verify against authority %s", authority)}
	}
	return nil
}

// RootSnapshot decodes the root object snapshot and validates it against the
// root address. The snapshot predates any access grant, so it is
// validated with the empty fingerprint.
func (m *Meta) RootSnapshot(ctx context.Context, clk clock.Clock) (*neutron.Object, error) {
	object, err := neutron.Decode(m.RootObject, clk)
	if err != nil {
		return nil, fmt.Errorf("descriptor: root object: %w", err)
	}
	if err := object.Validate(ctx, m.Root, cryptography.Digest{}, nil); err != nil {
		return nil, fmt.Errorf("descriptor: root object: %w", err)
	}
	return object, nil
}
