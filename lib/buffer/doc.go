// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buffer provides [Buffer], an owning, growable byte region.
//
// A Buffer owns the region [0, Capacity) and exposes the prefix
// [0, Size) as its contents. Growth is geometric: capacities are
// rounded up to at least [MinimumCapacity], doubled while below
// [DoublingThreshold] and grown by half above it, so repeated appends
// are amortized O(1) without overshooting badly for large payloads.
//
// [Buffer.Append] tolerates a source that aliases the buffer's own
// storage. [Buffer.Release] hands the region to the caller and leaves
// the buffer holding a fresh, valid, zero-length region. Buffers order
// by size first and then bytewise.
//
// Sealing in lib/proton assembles encoded, compressed and encrypted
// node images in a Buffer before they become block content.
package buffer
