// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/neutron"
)

// Format is the persisted format of descriptors this build writes.
const Format uint16 = 1

// Descriptor is a network descriptor.
type Descriptor struct {
	Format uint16 `cbor:"1,keyasint"`
	Meta   *Meta  `cbor:"2,keyasint"`
	Data   *Data  `cbor:"3,keyasint"`

	everybody *neutron.Subject
}

// New pairs two sections.
func New(meta *Meta, data *Data) *Descriptor {
	return &Descriptor{Format: Format, Meta: meta, Data: data}
}

// Validate checks Meta against authority, then Data against the
// administrator Meta names.
func (d *Descriptor) Validate(authority cryptography.PublicKey) error {
	if d.Meta == nil {
		return &ValidationError{Section: SectionMeta, Err: fmt.Errorf("missing")}
	}
	if d.Data == nil {
		return &ValidationError{Section: SectionData, Err: fmt.Errorf("missing")}
	}
	if err := d.Meta.Validate(authority); err != nil {
		return err
	}
	return d.Data.Validate(d.Meta.Administrator)
}

// Everybody returns the subject of the everybody group, derived from
// Meta on first use. A descriptor without Meta has no such group.
func (d *Descriptor) Everybody() (neutron.Subject, error) {
	if d.everybody == nil {
		if d.Meta == nil {
			return neutron.Subject{}, &ValidationError{Section: SectionMeta, Err: fmt.Errorf("missing")}
		}
		subject := neutron.GroupSubject(d.Meta.Everybody)
		d.everybody = &subject
	}
	return *d.everybody, nil
}

// Update replaces the data section. newData must already be signed by
// the administrator; nothing is re-signed here.
func (d *Descriptor) Update(newData *Data) {
	d.Data = newData
}

// Encode returns the persisted form.
func (d *Descriptor) Encode() ([]byte, error) {
	data, err := codec.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("descriptor: encoding: %w", err)
	}
	return data, nil
}

// Decode parses a descriptor written by Encode. It does not validate
// signatures.
func Decode(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := codec.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("descriptor: decoding: %w", err)
	}
	if d.Format == 0 || d.Format > Format {
		return nil, fmt.Errorf("%w: descriptor format %d", ErrUnsupported, d.Format)
	}
	if d.Meta == nil || d.Data == nil {
		return nil, fmt.Errorf("descriptor: decoding: missing section")
	}
	return &d, nil
}
