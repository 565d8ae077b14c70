// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package depot persists blocks and descriptors.
//
// A [Store] is a flat key-value space. Three backends implement it:
// [Memory] for tests and throwaway networks, [Directory] for one file
// per key under a sharded tree, and [SQLite] for a single database
// file. [Open] picks one from a [Config].
//
// [Blocks] layers block semantics over any Store. Immutable blocks are
// stored under their address key and checked against it on every
// fetch, so a Blocks satisfies nest.Source directly. Mutable blocks are
// wrapped in an envelope carrying their revision, and a store that
// does not raise the revision is refused with [ErrStaleRevision]. When
// history is enabled the previous envelope of a mutable block is kept
// under a revision-suffixed key before it is replaced.
//
// [Blocks.Apply] writes a nest transcript in order. Pushes of blocks
// already present and wipes of blocks already gone are skipped, so a
// transcript whose application failed midway can be applied again.
package depot
