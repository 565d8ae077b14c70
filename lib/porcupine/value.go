// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import "cmp"

// Value is the capability set a node type needs to live in a
// Porcupine. V is the node type itself and must be a pointer, since
// nodes are decoded in place and mutated through doors.
type Value[K cmp.Ordered, V any] interface {
	// Kind names the collection, such as "catalog". It is bound
	// into every sealed node so nodes cannot be swapped between
	// collections of different kinds.
	Kind() string

	// Minor returns the smallest key the node holds and Mayor the
	// largest. Mayor is the fence key recorded in the parent. What an
	// empty node returns is up to the node type; empty nodes never
	// stay in a tree.
	Minor() K
	Mayor() K

	// Capacity returns the node's logical size: items for keyed
	// collections, bytes for file data. Seek walks capacities.
	Capacity() uint64

	// Footprint estimates the encoded size of the node in bytes.
	Footprint() int

	// Empty reports whether the node holds nothing.
	Empty() bool

	// Split keeps the leading items whose cumulative footprint fits
	// in limit (at least one) and moves the rest into a new node,
	// which is returned. The result is empty when nothing moved.
	Split(limit int) (V, error)

	// Merge appends every item of right, whose keys all follow this
	// node's keys.
	Merge(right V) error
}

// Validator is implemented by node types that can check their own
// internal ordering. Check calls it when present.
type Validator interface {
	Validate() error
}

// Door is a handle on one node returned by Lookup and Seek. Mutations
// made through it must be followed by Update.
type Door[V any] struct {
	value  V
	closed bool
}

// Value returns the node. Panics once the door is closed.
func (d *Door[V]) Value() V {
	if d.closed {
		panic("porcupine: use of closed door")
	}
	return d.value
}

// Close releases the door.
func (d *Door[V]) Close() {
	d.closed = true
}
