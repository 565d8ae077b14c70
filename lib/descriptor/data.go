// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/proton"
	"github.com/bureau-foundation/nucleus/lib/version"
)

// ContentsFormat is the format of sealed porcupine nodes this build
// writes.
const ContentsFormat uint16 = 1

// Formats maps a block component to the format it is written in.
type Formats map[proton.Component]uint16

// CurrentFormats returns the formats this build writes.
func CurrentFormats() Formats {
	return Formats{
		proton.ComponentContents: ContentsFormat,
		proton.ComponentObject:   neutron.ObjectFormat,
	}
}

// Snapshot is a block handed out with the descriptor so new members
// can bootstrap before reaching any depot.
type Snapshot struct {
	Address proton.Address `cbor:"1,keyasint"`
	Data    []byte         `cbor:"2,keyasint"`
}

// DataFields are the signed fields of a Data section.
type DataFields struct {
	Name     string          `cbor:"1,keyasint"`
	Openness Openness        `cbor:"2,keyasint"`
	Policy   Policy          `cbor:"3,keyasint"`
	Blocks   []Snapshot      `cbor:"4,keyasint"`
	Version  version.Version `cbor:"5,keyasint"`
	Formats  Formats         `cbor:"6,keyasint"`
}

// Data is the administrator-signed section of a descriptor.
type Data struct {
	DataFields
	Signature cryptography.Signature `cbor:"7,keyasint"`
}

// payload is the tuple the administrator signs. Formats are spread in
// component order after the fixed fields.
func (f *DataFields) payload() ([]byte, error) {
	values := []any{f.Name, f.Openness, f.Policy, f.Blocks, f.Version}
	for _, component := range slices.Sorted(maps.Keys(f.Formats)) {
		values = append(values, component, f.Formats[component])
	}
	return codec.Tuple(values...)
}

func (f *DataFields) check() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("descriptor: empty network name")
	case !f.Openness.Valid():
		return fmt.Errorf("descriptor: invalid openness %d", f.Openness)
	case !f.Policy.Valid():
		return fmt.Errorf("descriptor: invalid policy %d", f.Policy)
	}
	for _, snapshot := range f.Blocks {
		if snapshot.Address.Family == proton.FamilyImmutable {
			if _, err := proton.LoadContents(snapshot.Address, snapshot.Data); err != nil {
				return fmt.Errorf("descriptor: snapshot: %w", err)
			}
		}
	}
	return nil
}

// NewData assembles a Data from fields and a signature made elsewhere.
func NewData(fields DataFields, signature cryptography.Signature) *Data {
	return &Data{DataFields: fields, Signature: signature}
}

// SignData checks fields and signs them with administrator.
func SignData(fields DataFields, administrator cryptography.Signer) (*Data, error) {
	if err := fields.check(); err != nil {
		return nil, err
	}
	payload, err := fields.payload()
	if err != nil {
		return nil, fmt.Errorf("descriptor: encoding data: %w", err)
	}
	return NewData(fields, administrator.Sign(payload)), nil
}

// Validate checks the section against the administrator's key.
func (d *Data) Validate(administrator cryptography.PublicKey) error {
	if err := d.check(); err != nil {
		return &ValidationError{Section: SectionData, Err: err}
	}
	payload, err := d.payload()
	if err != nil {
		return &ValidationError{Section: SectionData, Err: err}
	}
	if !administrator.Verify(payload, d.Signature) {
		return &ValidationError{Section: SectionData, Err: fmt.Errorf("signature does not verify against administrator %s", administrator)}
	}
	return nil
}

// Supports returns nil when a build at current can take part in the
// network: neither the network's release nor any of its block formats
// is newer than what the build writes. A block type the build does not
// know is unsupported.
func (d *Data) Supports(current version.Version) error {
	if current.Less(d.Version) {
		return fmt.Errorf("%w: network is at %s, this build is %s", ErrUnsupported, d.Version, current)
	}
	known := CurrentFormats()
	for _, component := range slices.Sorted(maps.Keys(d.Formats)) {
		writes, ok := known[component]
		if !ok {
			return fmt.Errorf("%w: unknown block type %s", ErrUnsupported, component)
		}
		if d.Formats[component] > writes {
			return fmt.Errorf("%w: %s blocks are at format %d, this build writes %d", ErrUnsupported, component, d.Formats[component], writes)
		}
	}
	return nil
}
