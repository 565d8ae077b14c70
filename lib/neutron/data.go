// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/buffer"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
)

// dataOverhead is the footprint of a Data node besides its bytes.
const dataOverhead = 16

// Data is a node of a file: the bytes starting at Offset. Its keys are
// byte offsets; the fence key is the offset of its last byte.
type Data struct {
	Offset uint64 `cbor:"1,keyasint"`
	Bytes  []byte `cbor:"2,keyasint"`
}

var _ porcupine.Value[uint64, *Data] = (*Data)(nil)

// NewData returns an empty data node at offset zero.
func NewData() *Data { return &Data{} }

// Kind implements porcupine.Value.
func (d *Data) Kind() string { return "data" }

// Minor implements porcupine.Value.
func (d *Data) Minor() uint64 { return d.Offset }

// Mayor implements porcupine.Value. An empty node reports its offset.
func (d *Data) Mayor() uint64 {
	if len(d.Bytes) == 0 {
		return d.Offset
	}
	return d.Offset + uint64(len(d.Bytes)) - 1
}

// Capacity implements porcupine.Value: the number of bytes.
func (d *Data) Capacity() uint64 { return uint64(len(d.Bytes)) }

// Footprint implements porcupine.Value.
func (d *Data) Footprint() int { return dataOverhead + len(d.Bytes) }

// Empty implements porcupine.Value.
func (d *Data) Empty() bool { return len(d.Bytes) == 0 }

// Split implements porcupine.Value.
func (d *Data) Split(limit int) (*Data, error) {
	keep := max(limit-dataOverhead, 1)
	right := &Data{Offset: d.Offset + uint64(len(d.Bytes))}
	if keep < len(d.Bytes) {
		right.Offset = d.Offset + uint64(keep)
		right.Bytes = append([]byte(nil), d.Bytes[keep:]...)
		d.Bytes = d.Bytes[:keep:keep]
	}
	return right, nil
}

// Merge implements porcupine.Value.
func (d *Data) Merge(right *Data) error {
	if len(right.Bytes) == 0 {
		return nil
	}
	if end := d.Offset + uint64(len(d.Bytes)); right.Offset != end {
		return fmt.Errorf("neutron: data at %d does not continue data ending at %d", right.Offset, end)
	}
	merged := buffer.From(d.Bytes)
	merged.Append(right.Bytes)
	d.Bytes = merged.Release()
	return nil
}

// WriteAt overwrites the node from position, relative to Offset,
// extending it as needed. position may not lie past the end.
func (d *Data) WriteAt(position uint64, data []byte) error {
	if position > uint64(len(d.Bytes)) {
		return fmt.Errorf("neutron: write at %d leaves a hole after %d bytes", position, len(d.Bytes))
	}
	region := buffer.From(d.Bytes)
	if end := position + uint64(len(data)); end > uint64(region.Size()) {
		region.Resize(int(end))
	}
	copy(region.Bytes()[position:], data)
	d.Bytes = region.Release()
	return nil
}

// ReadAt copies bytes from position, relative to Offset, into p and
// returns how many were copied.
func (d *Data) ReadAt(p []byte, position uint64) int {
	if position >= uint64(len(d.Bytes)) {
		return 0
	}
	return copy(p, d.Bytes[position:])
}

// Truncate keeps the first size bytes.
func (d *Data) Truncate(size uint64) {
	if size < uint64(len(d.Bytes)) {
		d.Bytes = d.Bytes[:size]
	}
}
