// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package neutron defines filesystem objects and the node types their
// collections are paginated into.
//
// An [Object] is a mutable, owner-addressed block with two sections
// that are dirtied, signed and revisioned independently:
//
//   - the meta section, always signed by the owner: genre, owner
//     permissions and token, the attributes radix, and a fingerprint of
//     the access collection;
//   - the data section, signed by whoever last wrote the contents: the
//     contents radix, size, author, and (cross-coupled from meta) the
//     owner token and the access radix.
//
// After [Object.Seal] the block revision equals the sum of the two
// section revisions. [Object.Validate] lets a reader holding nothing but
// the address re-derive every signer and check both signatures and the
// revision sum.
//
// The variable-size parts of an object live in porcupine collections of
// the node types declared here: [Catalog] for directory entries, [Data]
// for file bytes, [Attributes] for extended attributes and [Access] for
// access records.
package neutron
