// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package proton defines blocks: the addressed units nucleus stores.
//
// Every block has an [Address] made of a [Family], a [Component] and a
// 32-byte digest. Immutable blocks are content-addressed: the digest
// is a keyed BLAKE3 hash of the block bytes, so any tampering is caught
// by recomputing it. Mutable blocks are owner-addressed: the digest
// hashes the owner's public key with a random salt, the bytes may be
// replaced, and each replacement carries a strictly larger revision.
//
// Key exports:
//
//   - [Contents] -- an immutable block holding one sealed porcupine
//     node. [Pack] and [Unpack] convert between a node's encoded form
//     and a Contents block (compress, then encrypt).
//   - [MutableBlock] -- the owner, salt, revision and [State] shared by
//     every mutable block (objects embed it).
//   - [Radix] -- a reference to a collection: nothing, an inline
//     sealed node, or the address of a sealed root node.
//   - [Transcript] -- the ordered push/wipe actions a nest accumulated,
//     for the depot to apply.
//   - [Compression] -- none, lz4 or zstd, applied before encryption
//     when it actually shrinks the payload.
package proton
