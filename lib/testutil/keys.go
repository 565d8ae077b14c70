// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

// KeyPair generates a fresh key pair or fails the test.
func KeyPair(t testing.TB) *cryptography.KeyPair {
	t.Helper()
	keys, err := cryptography.Generate()
	if err != nil {
		t.Fatalf("generating key pair: %v", err)
	}
	return keys
}

// KeyPairs generates count distinct key pairs.
func KeyPairs(t testing.TB, count int) []*cryptography.KeyPair {
	t.Helper()
	pairs := make([]*cryptography.KeyPair, count)
	for index := range pairs {
		pairs[index] = KeyPair(t)
	}
	return pairs
}
