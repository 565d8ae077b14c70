// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps key material out of the Go heap.
//
// A [Buffer] is an anonymous mmap region locked into RAM (mlock) and
// excluded from core dumps (MADV_DONTDUMP). The garbage collector never
// sees it, so it is never copied or relocated, and [Buffer.Close] zeroes
// it before unmapping.
//
// Nucleus holds two kinds of secrets this way: the ed25519 seeds read
// from key files by [ReadFile], and the per-object collection secrets
// an automaton context unwraps from an object's owner token for the
// duration of an editing session.
//
// Depends on golang.org/x/sys/unix only.
package secret
