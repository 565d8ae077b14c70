// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for nucleus packages.
//
// [RequireReceive] bounds a channel receive with a wall-clock timeout.
// It is the only place tests wait on real time; object timestamps in
// tests come from a clock.Fake.
//
// [KeyPair] and [KeyPairs] generate ed25519 key pairs for owners,
// readers and lords of test objects.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as directory entry names and depot keys.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
