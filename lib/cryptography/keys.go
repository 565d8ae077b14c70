// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptography

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// PublicKeySize is the length of an ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize

	// SignatureSize is the length of an ed25519 signature.
	SignatureSize = ed25519.SignatureSize

	// SeedSize is the length of the private seed a KeyPair is derived
	// from. Key files store the seed, not the expanded key.
	SeedSize = ed25519.SeedSize
)

// ErrKeyFormat reports malformed key material.
var ErrKeyFormat = errors.New("cryptography: malformed key")

// PublicKey is an ed25519 public key. It encodes to CBOR as a byte
// string and to text as lowercase hex.
type PublicKey [PublicKeySize]byte

// Verify reports whether signature is a valid signature of payload by
// this key. The zero key verifies nothing.
func (k PublicKey) Verify(payload []byte, signature Signature) bool {
	if k.IsZero() {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(k[:]), payload, signature[:])
}

// IsZero reports whether k is unset.
func (k PublicKey) IsZero() bool { return k == PublicKey{} }

// String returns the lowercase hex encoding.
func (k PublicKey) String() string { return hex.EncodeToString(k[:]) }

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParsePublicKey decodes a hex-encoded public key.
func ParsePublicKey(text string) (PublicKey, error) {
	var key PublicKey
	if len(text) != hex.EncodedLen(PublicKeySize) {
		return key, fmt.Errorf("%w: public key must be %d hex characters, got %d", ErrKeyFormat, hex.EncodedLen(PublicKeySize), len(text))
	}
	if _, err := hex.Decode(key[:], []byte(text)); err != nil {
		return key, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	return key, nil
}

// Signature is an ed25519 signature. The zero value marks a section
// that has never been sealed.
type Signature [SignatureSize]byte

// IsZero reports whether s is unset.
func (s Signature) IsZero() bool { return s == Signature{} }

// String returns the lowercase hex encoding.
func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// Signer produces signatures verifiable with Public. A descriptor
// authority, a network administrator and an object owner are all
// Signers.
type Signer interface {
	Public() PublicKey
	Sign(payload []byte) Signature
}

// KeyPair is an ed25519 identity.
type KeyPair struct {
	public  PublicKey
	private ed25519.PrivateKey
}

// Generate creates a new random KeyPair.
func Generate() (*KeyPair, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptography: generating ed25519 key: %w", err)
	}
	pair := &KeyPair{private: private}
	copy(pair.public[:], public)
	return pair, nil
}

// FromSeed derives the KeyPair for a 32-byte seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrKeyFormat, SeedSize, len(seed))
	}
	private := ed25519.NewKeyFromSeed(seed)
	pair := &KeyPair{private: private}
	copy(pair.public[:], private.Public().(ed25519.PublicKey))
	return pair, nil
}

// Public returns the public half.
func (p *KeyPair) Public() PublicKey { return p.public }

// Sign signs payload.
func (p *KeyPair) Sign(payload []byte) Signature {
	var signature Signature
	copy(signature[:], ed25519.Sign(p.private, payload))
	return signature
}

// Seed returns the private seed. The caller owns the returned slice and
// should zero it once persisted.
func (p *KeyPair) Seed() []byte {
	seed := make([]byte, SeedSize)
	copy(seed, p.private.Seed())
	return seed
}
