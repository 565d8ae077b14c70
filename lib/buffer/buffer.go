// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"bytes"
	"errors"
	"fmt"
	"math"
)

const (
	// MinimumCapacity is the smallest capacity a growing buffer
	// allocates.
	MinimumCapacity = 32

	// DoublingThreshold is the capacity below which growth doubles.
	// At or above it, growth is by a factor of 1.5.
	DoublingThreshold = 4096
)

// ErrAllocation is the panic value raised when a requested capacity
// cannot be represented. Allocation failure is not recoverable: the
// runtime aborts on genuine memory exhaustion, and this is its
// equivalent for impossible sizes.
var ErrAllocation = errors.New("buffer: allocation failure")

// Buffer is an owning, growable byte region. The zero value is an
// empty buffer ready for use. A Buffer must not be copied after first
// use; pass *Buffer.
type Buffer struct {
	region []byte
}

// New returns an empty buffer with at least the given capacity.
func New(capacity int) *Buffer {
	if capacity < 0 {
		panic(fmt.Errorf("%w: negative capacity %d", ErrAllocation, capacity))
	}
	return &Buffer{region: make([]byte, 0, capacity)}
}

// From returns a buffer holding a copy of data.
func From(data []byte) *Buffer {
	buffer := New(len(data))
	buffer.region = append(buffer.region, data...)
	return buffer
}

// Size returns the number of bytes held.
func (b *Buffer) Size() int { return len(b.region) }

// Capacity returns the size of the owned region.
func (b *Buffer) Capacity() int { return cap(b.region) }

// Bytes returns the contents. The slice aliases the buffer and is
// invalidated by the next growth or Release.
func (b *Buffer) Bytes() []byte {
	if b.region == nil {
		b.region = []byte{}
	}
	return b.region
}

// Append copies data to the end of the buffer, growing it if needed.
// data may alias the buffer's own contents.
func (b *Buffer) Append(data []byte) {
	size := len(b.region)
	required := size + len(data)
	if required < size {
		panic(fmt.Errorf("%w: size overflow appending %d bytes", ErrAllocation, len(data)))
	}
	if required > cap(b.region) {
		// The old region stays intact until the copy below, so an
		// aliasing source is still readable.
		b.reallocate(grow(cap(b.region), required))
	}
	b.region = b.region[:required]
	copy(b.region[size:], data)
}

// Write implements io.Writer. It never fails.
func (b *Buffer) Write(data []byte) (int, error) {
	b.Append(data)
	return len(data), nil
}

// Resize sets the size to n. The region is reallocated only when n
// exceeds the capacity; shrinking keeps the region. Bytes exposed by
// growing within capacity are zeroed.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		panic(fmt.Errorf("%w: negative size %d", ErrAllocation, n))
	}
	if n > cap(b.region) {
		b.reallocate(grow(cap(b.region), n))
	}
	previous := len(b.region)
	b.region = b.region[:n]
	if n > previous {
		clear(b.region[previous:])
	}
}

// Release transfers the contents to the caller and resets the buffer to
// a fresh empty region.
func (b *Buffer) Release() []byte {
	released := b.Bytes()
	b.region = []byte{}
	return released
}

// Equal reports whether both buffers hold the same bytes.
func (b *Buffer) Equal(other *Buffer) bool {
	if len(b.region) != len(other.region) {
		return false
	}
	return bytes.Equal(b.region, other.region)
}

// Compare orders buffers by size, then bytewise. It returns -1, 0 or +1.
func (b *Buffer) Compare(other *Buffer) int {
	switch {
	case len(b.region) < len(other.region):
		return -1
	case len(b.region) > len(other.region):
		return 1
	}
	return bytes.Compare(b.region, other.region)
}

// Less reports whether b orders before other.
func (b *Buffer) Less(other *Buffer) bool { return b.Compare(other) < 0 }

// String renders the contents as lowercase hex, abbreviated past 64
// bytes.
func (b *Buffer) String() string {
	if len(b.region) > 64 {
		return fmt.Sprintf("%x...(%d bytes)", b.region[:64], len(b.region))
	}
	return fmt.Sprintf("%x", b.region)
}

func (b *Buffer) reallocate(capacity int) {
	region := make([]byte, len(b.region), capacity)
	copy(region, b.region)
	b.region = region
}

// grow returns the capacity to allocate when a buffer of the given
// capacity must hold required bytes.
func grow(capacity, required int) int {
	next := max(capacity, MinimumCapacity)
	for next < required {
		if next < DoublingThreshold {
			next *= 2
		} else {
			if next > math.MaxInt/3*2 {
				panic(fmt.Errorf("%w: cannot grow beyond %d bytes", ErrAllocation, next))
			}
			next += next / 2
		}
	}
	return next
}
