// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptography

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// SecretKeySize is the length of a collection secret.
const SecretKeySize = 32

// sealVersion is the first byte of every sealed blob.
const sealVersion byte = 1

// SealOverhead is the number of bytes Seal adds to a plaintext: the
// version byte, the 24-byte nonce and the 16-byte tag.
const SealOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// sealInfo is the HKDF info string for the AEAD key. Bumping the seal
// version requires a new info string.
var sealInfo = []byte("nucleus.cryptography.seal.v1")

var (
	// ErrDecryption reports a blob that does not authenticate under
	// the key: the wrong secret, or corrupted or truncated bytes.
	ErrDecryption = errors.New("cryptography: decryption failed")

	// ErrSealVersion reports a blob with an unknown version byte.
	ErrSealVersion = errors.New("cryptography: unsupported seal version")
)

// SecretKey is the symmetric key of a collection. Every node of every
// porcupine belonging to one object is sealed under the same
// SecretKey.
type SecretKey [SecretKeySize]byte

// GenerateSecretKey returns a random SecretKey.
func GenerateSecretKey() (SecretKey, error) {
	var key SecretKey
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("cryptography: generating secret key: %w", err)
	}
	return key, nil
}

// IsZero reports whether k is unset.
func (k SecretKey) IsZero() bool { return k == SecretKey{} }

// Seal encrypts plaintext, binding associated as additional
// authenticated data. The result is
//
//	[version][24-byte nonce][ciphertext || tag]
//
// Nonces are random, so sealing the same plaintext twice yields
// different blobs.
func (k SecretKey) Seal(plaintext, associated []byte) ([]byte, error) {
	aead, err := k.aead()
	if err != nil {
		return nil, err
	}

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, len(plaintext)+SealOverhead)
	output[0] = sealVersion
	nonce := output[1 : 1+chacha20poly1305.NonceSizeX]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptography: generating nonce: %w", err)
	}
	return aead.Seal(output, nonce, plaintext, k.additional(associated)), nil
}

// Open decrypts a blob produced by Seal with the same key and
// associated data.
func (k SecretKey) Open(blob, associated []byte) ([]byte, error) {
	if len(blob) < SealOverhead {
		return nil, fmt.Errorf("%w: blob of %d bytes is shorter than the %d-byte overhead", ErrDecryption, len(blob), SealOverhead)
	}
	if blob[0] != sealVersion {
		return nil, fmt.Errorf("%w: %d", ErrSealVersion, blob[0])
	}
	aead, err := k.aead()
	if err != nil {
		return nil, err
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSizeX:], k.additional(associated))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

func (k SecretKey) aead() (cipher.AEAD, error) {
	derived := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, k[:], nil, sealInfo)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("cryptography: HKDF derivation: %w", err)
	}
	aead, err := chacha20poly1305.NewX(derived)
	clear(derived)
	if err != nil {
		return nil, fmt.Errorf("cryptography: creating XChaCha20-Poly1305: %w", err)
	}
	return aead, nil
}

func (k SecretKey) additional(associated []byte) []byte {
	data := make([]byte, 1+len(associated))
	data[0] = sealVersion
	copy(data[1:], associated)
	return data
}
