// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package porcupine implements the paginated collection that stores
// the variable-size children of an object: directory entries, file
// bytes, attributes and access records.
//
// A [Porcupine] holds an ordered sequence of nodes of one [Value] type.
// While everything fits in a single node of at most [Layout.Extent]
// bytes, that node is sealed inline into the collection's
// [proton.Radix] (the value strategy). Once it outgrows the extent, the
// collection becomes a tree: values hang off quills (height 0), quills
// off nodules of increasing height, and each node is sealed into its
// own immutable block pushed through a [nest.Nest] (the tree strategy).
// Shrinking back under one extent collapses the tree again.
//
// Usage follows the door protocol:
//
//	door, err := collection.Lookup(ctx, "README.md")
//	if err != nil {
//	    return err
//	}
//	door.Value().Insert(entry)
//	door.Close()
//	if err := collection.Update(ctx, "README.md"); err != nil {
//	    return err
//	}
//
// Update after every mutation is what keeps fence keys, capacities and
// footprints correct up to the root, and it is where nodes split, merge
// and rebalance.
//
// Splits cut a node where its cumulative footprint passes
// Extent*Contention, so the halves are balanced by bytes rather than
// by item count. A node updated below Extent*Balancing is merged into a
// sibling, or rebalanced with it when both together would overflow.
//
// [Porcupine.Seal] encodes every dirty node with lib/codec, compresses
// it per [Layout.Compression] and encrypts it under the collection's
// secret key. Superseded blocks are wiped. A second Seal without an
// intervening Update returns the same Radix.
//
// [Porcupine.Check] validates the structure and is meant for tests and
// for auditing collections received from untrusted peers. Nothing in
// this package panics on malformed sealed input; such input surfaces as
// [ErrCorrupt] or an [InconsistencyError].
//
// A Porcupine is not safe for concurrent use.
package porcupine
