// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import (
	"cmp"

	"github.com/bureau-foundation/nucleus/lib/proton"
)

// Footprint estimates used for nodules. They only need to be stable:
// Check compares recorded footprints against recomputed ones.
const (
	noduleOverhead = 8
	inletOverhead  = 56
	maximumHeight  = 32
)

// inlet is one child reference of a nodule. Only the exported fields
// are sealed; the rest is the resident state of the child.
type inlet[K cmp.Ordered, V Value[K, V]] struct {
	Key       K              `cbor:"1,keyasint"`
	Capacity  uint64         `cbor:"2,keyasint"`
	Footprint int            `cbor:"3,keyasint"`
	Address   proton.Address `cbor:"4,keyasint"`

	// nodule is the child when the owning nodule has height > 0,
	// value when it is a quill (height 0).
	nodule *nodule[K, V]
	value  V
	loaded bool

	// dirty means the child changed since it was sealed at Address.
	dirty bool
}

// nodule is an interior node of the tree.
type nodule[K cmp.Ordered, V Value[K, V]] struct {
	Height int            `cbor:"1,keyasint"`
	Inlets []*inlet[K, V] `cbor:"2,keyasint"`
}

func (n *nodule[K, V]) footprint() int {
	total := noduleOverhead
	for _, child := range n.Inlets {
		total += inletFootprint(child)
	}
	return total
}

func (n *nodule[K, V]) capacity() uint64 {
	var total uint64
	for _, child := range n.Inlets {
		total += child.Capacity
	}
	return total
}

func (n *nodule[K, V]) mayor() K {
	if len(n.Inlets) == 0 {
		var zero K
		return zero
	}
	return n.Inlets[len(n.Inlets)-1].Key
}

// route returns the index of the child whose range holds key: the
// first child whose fence key is not below key, or the last child.
func (n *nodule[K, V]) route(key K) int {
	for index, child := range n.Inlets {
		if child.Key >= key {
			return index
		}
	}
	return len(n.Inlets) - 1
}

func inletFootprint[K cmp.Ordered, V Value[K, V]](child *inlet[K, V]) int {
	return inletOverhead + keyFootprint(child.Key)
}

// keyFootprint estimates the encoded size of a key.
func keyFootprint[K cmp.Ordered](key K) int {
	switch typed := any(key).(type) {
	case string:
		return len(typed) + 3
	default:
		return 9
	}
}
