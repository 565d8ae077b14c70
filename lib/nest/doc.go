// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nest is the block cache that porcupines load their sealed
// nodes through.
//
// [Nest] is the interface collections depend on. Every Load must be
// matched by an Unload; Push and Wipe record changes that stay pending
// until [Nest.Transcribe] hands them over as a [proton.Transcript] for
// the depot to apply.
//
// [Cache] is the implementation: a reference-counted, byte-budgeted
// cache in front of a [Source] (normally a depot.Blocks). Blocks in
// use are never evicted; released blocks are kept in least recently
// used order until the budget is exceeded. Pushed blocks are served
// from memory before they are transcribed, and a wipe of a block that
// was pushed and never transcribed cancels both actions.
//
// Cache is safe for concurrent use by several porcupines.
package nest
