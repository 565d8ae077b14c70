// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptography

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// DigestSize is the length of every nucleus digest.
const DigestSize = 32

// Digest is a 32-byte BLAKE3 output.
type Digest [DigestSize]byte

// IsZero reports whether d is the all-zero digest, which nucleus uses
// as the fingerprint of an empty collection.
func (d Digest) IsZero() bool { return d == Digest{} }

// String returns the lowercase hex encoding.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 12 hex characters, for logs.
func (d Digest) Short() string { return hex.EncodeToString(d[:6]) }

// ParseDigest decodes a 64-character hex string.
func ParseDigest(text string) (Digest, error) {
	var digest Digest
	if len(text) != hex.EncodedLen(DigestSize) {
		return digest, fmt.Errorf("cryptography: digest must be %d hex characters, got %d", hex.EncodedLen(DigestSize), len(text))
	}
	if _, err := hex.Decode(digest[:], []byte(text)); err != nil {
		return digest, fmt.Errorf("cryptography: decoding digest: %w", err)
	}
	return digest, nil
}

// Domain is a BLAKE3 key that separates one hashing purpose from all
// others. Domains are the ASCII name of the purpose, zero-padded, which
// keeps them readable in hex dumps.
type Domain [32]byte

// NewDomain builds a Domain from its name. Panics if the name is empty
// or longer than 32 bytes; domains are package-level constants.
func NewDomain(name string) Domain {
	if name == "" || len(name) > len(Domain{}) {
		panic(fmt.Sprintf("cryptography: domain name %q must be 1 to 32 bytes", name))
	}
	var domain Domain
	copy(domain[:], name)
	return domain
}

// Hash computes the keyed BLAKE3 digest of the concatenation of parts.
// Parts are not length-prefixed: callers either hash fixed-size values
// or a single self-delimiting encoding.
func Hash(domain Domain, parts ...[]byte) Digest {
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		panic("cryptography: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	for _, part := range parts {
		hasher.Write(part)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
