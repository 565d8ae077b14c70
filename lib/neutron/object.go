// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/clock"
	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// ObjectFormat is the newest object encoding this package writes.
// Decode accepts formats 1 through ObjectFormat.
const ObjectFormat uint16 = 1

// Owner holds the owner's own access to an object.
type Owner struct {
	Permissions Permissions        `cbor:"1,keyasint"`
	Token       cryptography.Token `cbor:"2,keyasint,omitempty"`
}

// MetaSection is the owner-signed half of an object. Access is kept
// here but signed as part of the data section.
type MetaSection struct {
	Owner                 Owner                  `cbor:"1,keyasint"`
	Genre                 Genre                  `cbor:"2,keyasint"`
	ModificationTimestamp int64                  `cbor:"3,keyasint"`
	Attributes            proton.Radix           `cbor:"4,keyasint"`
	Access                proton.Radix           `cbor:"5,keyasint"`
	Revision              uint64                 `cbor:"6,keyasint"`
	Signature             cryptography.Signature `cbor:"7,keyasint"`
	State                 proton.State           `cbor:"-"`
}

// DataSection is the author-signed half of an object.
type DataSection struct {
	Contents              proton.Radix           `cbor:"1,keyasint"`
	Size                  uint64                 `cbor:"2,keyasint"`
	Author                Author                 `cbor:"3,keyasint"`
	ModificationTimestamp int64                  `cbor:"4,keyasint"`
	Revision              uint64                 `cbor:"5,keyasint"`
	Signature             cryptography.Signature `cbor:"6,keyasint"`
	State                 proton.State           `cbor:"-"`
}

// Object is a versioned filesystem object stored as a mutable block.
//
// Object is not safe for concurrent mutation. Validate may run from
// several goroutines on an object nobody mutates.
type Object struct {
	Block  proton.MutableBlock `cbor:"1,keyasint"`
	Format uint16              `cbor:"2,keyasint"`
	Meta   MetaSection         `cbor:"3,keyasint"`
	Data   DataSection         `cbor:"4,keyasint"`

	clock       clock.Clock
	ownerRecord Record
}

// New returns an object of genre owned by owner, with empty contents,
// the owner as author and read-write owner permissions. Both sections
// are dirty until the first Seal.
func New(genre Genre, owner cryptography.PublicKey, clk clock.Clock) (*Object, error) {
	if !genre.Valid() {
		return nil, fmt.Errorf("neutron: invalid genre %d", genre)
	}
	if owner.IsZero() {
		return nil, fmt.Errorf("neutron: object without an owner")
	}
	block, err := proton.NewMutableBlock(proton.ComponentObject, owner)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	object := &Object{
		Block:  block,
		Format: ObjectFormat,
		Meta:   MetaSection{Genre: genre},
		clock:  clk,
	}
	object.Administrate(proton.Radix{}, PermissionsReadWrite)
	object.Update(OwnerAuthor(), proton.Radix{}, 0, proton.Radix{}, nil)
	return object, nil
}

// Address returns the address the object is stored at.
func (o *Object) Address() proton.Address { return o.Block.Address() }

// Owner returns the owner's public key.
func (o *Object) Owner() cryptography.PublicKey { return o.Block.Owner }

// OwnerRecord returns the owner's access record, derived from the meta
// section. It is never serialized.
func (o *Object) OwnerRecord() Record { return o.ownerRecord }

// Dirty reports whether either section awaits a Seal.
func (o *Object) Dirty() bool {
	return o.Meta.State == proton.StateDirty || o.Data.State == proton.StateDirty
}

// Update records a write of the data section by author.
func (o *Object) Update(author Author, contents proton.Radix, size uint64, access proton.Radix, token cryptography.Token) {
	o.Data.Author = author
	o.Data.ModificationTimestamp = o.now()
	if !o.Data.Contents.Equal(contents) {
		o.Data.Contents = contents.Clone()
	}
	o.Data.Size = size
	if !o.Meta.Access.Equal(access) {
		o.Meta.Access = access.Clone()
	}
	o.Meta.Owner.Token = append(cryptography.Token(nil), token...)
	o.deriveOwnerRecord()

	o.Data.State = proton.StateDirty
	o.Block.State = proton.StateDirty
}

// Administrate records a change of the meta section by the owner.
func (o *Object) Administrate(attributes proton.Radix, permissions Permissions) {
	o.Meta.ModificationTimestamp = o.now()
	if !o.Meta.Attributes.Equal(attributes) {
		o.Meta.Attributes = attributes.Clone()
	}
	o.Meta.Owner.Permissions = permissions
	o.deriveOwnerRecord()

	o.Meta.State = proton.StateDirty
	o.Block.State = proton.StateDirty
}

func (o *Object) deriveOwnerRecord() {
	o.ownerRecord = Record{
		Subject:     UserSubject(o.Block.Owner),
		Permissions: o.Meta.Owner.Permissions,
		Token:       o.Meta.Owner.Token,
	}
}

func (o *Object) now() int64 {
	if o.clock == nil {
		o.clock = clock.Real()
	}
	return o.clock.Now().UnixNano()
}

// metaPayload is the byte string the owner signs for the meta section.
func (o *Object) metaPayload(meta *MetaSection, fingerprint cryptography.Digest) ([]byte, error) {
	return codec.Tuple(
		meta.Owner.Permissions,
		meta.Genre,
		meta.ModificationTimestamp,
		meta.Attributes,
		meta.Revision,
		fingerprint,
	)
}

// dataPayload is the byte string the author signs for the data
// section. Token and access come from the meta section.
func (o *Object) dataPayload(data *DataSection, meta *MetaSection) ([]byte, error) {
	return codec.Tuple(
		data.Contents,
		data.Size,
		data.ModificationTimestamp,
		data.Revision,
		meta.Owner.Token,
		meta.Access,
	)
}

// Seal signs every dirty section with signer, bumping its revision,
// and sets the block revision to the sum of both. The meta section can
// only be signed by the owner; so can data authored by the owner.
// fingerprint must digest the access collection referenced by
// Meta.Access. On error the object is unchanged.
func (o *Object) Seal(signer cryptography.Signer, fingerprint cryptography.Digest) error {
	metaDirty := o.Meta.State == proton.StateDirty
	dataDirty := o.Data.State == proton.StateDirty
	if !metaDirty && !dataDirty {
		return nil
	}
	signerKey := signer.Public()
	if metaDirty && signerKey != o.Block.Owner {
		return fmt.Errorf("%w: meta section changed, signer is %s", ErrNotOwner, signerKey)
	}
	if dataDirty && o.Data.Author.Role == RoleOwner && signerKey != o.Block.Owner {
		return fmt.Errorf("%w: data authored by the owner, signer is %s", ErrNotOwner, signerKey)
	}

	meta, data := o.Meta, o.Data
	if metaDirty {
		meta.Revision++
		payload, err := o.metaPayload(&meta, fingerprint)
		if err != nil {
			return fmt.Errorf("neutron: encoding meta section: %w", err)
		}
		meta.Signature = signer.Sign(payload)
		meta.State = proton.StateConsistent
	}
	if dataDirty {
		data.Revision++
		payload, err := o.dataPayload(&data, &meta)
		if err != nil {
			return fmt.Errorf("neutron: encoding data section: %w", err)
		}
		data.Signature = signer.Sign(payload)
		data.State = proton.StateConsistent
	}

	revision := meta.Revision + data.Revision
	if revision <= o.Block.Revision {
		return fmt.Errorf("neutron: sealed revision %d does not exceed %d", revision, o.Block.Revision)
	}
	o.Meta, o.Data = meta, data
	o.Block.Revision = revision
	o.Block.State = proton.StateConsistent
	return nil
}

// Validate checks that the object is the one stored at address and
// that both sections are signed by the right keys. The data signer is
// resolved from the author: the owner directly, a lord through records
// (which may be nil when no lord is expected). Failures are
// *ValidationError naming the failing check.
func (o *Object) Validate(ctx context.Context, address proton.Address, fingerprint cryptography.Digest, records Records) error {
	if err := o.Block.Bind(address); err != nil {
		return &ValidationError{Check: CheckAddress, Err: err}
	}
	if o.Block.Component != proton.ComponentObject {
		return invalid(CheckAddress, "block holds a %s, not an object", o.Block.Component)
	}
	if o.Format == 0 || o.Format > ObjectFormat {
		return &ValidationError{Check: CheckFormat, Err: fmt.Errorf("%w: %d", ErrFormat, o.Format)}
	}

	payload, err := o.metaPayload(&o.Meta, fingerprint)
	if err != nil {
		return &ValidationError{Check: CheckMetaSignature, Err: err}
	}
	if !o.Block.Owner.Verify(payload, o.Meta.Signature) {
		return invalid(CheckMetaSignature, "signature does not verify against owner %s", o.Block.Owner)
	}

	signer, err := o.author(ctx, records)
	if err != nil {
		return &ValidationError{Check: CheckAuthor, Err: err}
	}

	payload, err = o.dataPayload(&o.Data, &o.Meta)
	if err != nil {
		return &ValidationError{Check: CheckDataSignature, Err: err}
	}
	if !signer.Verify(payload, o.Data.Signature) {
		return invalid(CheckDataSignature, "signature does not verify against %s author %s", o.Data.Author, signer)
	}

	if sum := o.Meta.Revision + o.Data.Revision; o.Block.Revision != sum {
		return invalid(CheckRevision, "block revision %d, sections sum to %d", o.Block.Revision, sum)
	}
	return nil
}

// author resolves the key that must have signed the data section. The
// owner's permissions are not consulted.
func (o *Object) author(ctx context.Context, records Records) (cryptography.PublicKey, error) {
	switch o.Data.Author.Role {
	case RoleOwner:
		return o.Block.Owner, nil

	case RoleLord:
		if records == nil {
			return cryptography.PublicKey{}, fmt.Errorf("%w: lord author without access records", ErrUnsupportedRole)
		}
		record, err := records.Record(ctx, o.Data.Author.Index)
		if err != nil {
			return cryptography.PublicKey{}, fmt.Errorf("resolving lord %d: %w", o.Data.Author.Index, err)
		}
		if record.Subject.Kind != SubjectUser {
			return cryptography.PublicKey{}, fmt.Errorf("%w: lord %d is a %s", ErrUnsupportedRole, o.Data.Author.Index, record.Subject.Kind)
		}
		if !record.Permissions.Has(PermissionsWrite) {
			return cryptography.PublicKey{}, fmt.Errorf("lord %s lacks write permission", record.Subject)
		}
		return record.Subject.Key, nil

	case RoleVassal:
		return cryptography.PublicKey{}, fmt.Errorf("%w: vassal", ErrUnsupportedRole)

	default:
		return cryptography.PublicKey{}, fmt.Errorf("unknown author role %d", o.Data.Author.Role)
	}
}

// Encode returns the persisted form of the object.
func (o *Object) Encode() ([]byte, error) {
	data, err := codec.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("neutron: encoding object: %w", err)
	}
	return data, nil
}

// Decode parses an object written by Encode. The result is clean;
// callers validate it before trusting it. clk stamps later updates.
func Decode(data []byte, clk clock.Clock) (*Object, error) {
	object := &Object{}
	if err := codec.Unmarshal(data, object); err != nil {
		return nil, fmt.Errorf("neutron: decoding object: %w", err)
	}
	if object.Format == 0 || object.Format > ObjectFormat {
		return nil, fmt.Errorf("%w: %d", ErrFormat, object.Format)
	}
	if !object.Meta.Genre.Valid() {
		return nil, fmt.Errorf("neutron: decoding object: invalid genre %d", object.Meta.Genre)
	}
	for _, radix := range []proton.Radix{object.Data.Contents, object.Meta.Attributes, object.Meta.Access} {
		if err := radix.Validate(); err != nil {
			return nil, fmt.Errorf("neutron: decoding object: %w", err)
		}
	}
	if clk == nil {
		clk = clock.Real()
	}
	object.clock = clk
	object.Block.State = proton.StateClean
	object.Meta.State = proton.StateClean
	object.Data.State = proton.StateClean
	object.deriveOwnerRecord()
	return object, nil
}
