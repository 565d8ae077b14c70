// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cryptography

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"filippo.io/age/agessh"
	"golang.org/x/crypto/ssh"
)

// ErrNoToken reports an attempt to unwrap an empty token.
var ErrNoToken = errors.New("cryptography: no token")

// Token is a SecretKey encrypted with age to a single ed25519 subject.
// The nil Token means no secret has been issued yet.
type Token []byte

// IsEmpty reports whether the token carries nothing.
func (t Token) IsEmpty() bool { return len(t) == 0 }

// WrapSecret encrypts key so that only the holder of recipient's
// private key can recover it.
func WrapSecret(key SecretKey, recipient PublicKey) (Token, error) {
	sshKey, err := ssh.NewPublicKey(ed25519.PublicKey(recipient[:]))
	if err != nil {
		return nil, fmt.Errorf("cryptography: converting recipient %s: %w", recipient, err)
	}
	ageRecipient, err := agessh.NewEd25519Recipient(sshKey)
	if err != nil {
		return nil, fmt.Errorf("cryptography: creating age recipient: %w", err)
	}

	var output bytes.Buffer
	writer, err := age.Encrypt(&output, ageRecipient)
	if err != nil {
		return nil, fmt.Errorf("cryptography: starting age encryption: %w", err)
	}
	if _, err := writer.Write(key[:]); err != nil {
		return nil, fmt.Errorf("cryptography: writing token payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("cryptography: finishing age encryption: %w", err)
	}
	return Token(output.Bytes()), nil
}

// UnwrapSecret recovers the SecretKey from a token addressed to p.
func (p *KeyPair) UnwrapSecret(token Token) (SecretKey, error) {
	var key SecretKey
	if token.IsEmpty() {
		return key, ErrNoToken
	}
	identity, err := agessh.NewEd25519Identity(p.private)
	if err != nil {
		return key, fmt.Errorf("cryptography: creating age identity: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(token), identity)
	if err != nil {
		return key, fmt.Errorf("cryptography: decrypting token: %w", err)
	}
	payload, err := io.ReadAll(io.LimitReader(reader, SecretKeySize+1))
	if err != nil {
		return key, fmt.Errorf("cryptography: reading token payload: %w", err)
	}
	defer clear(payload)
	if len(payload) != SecretKeySize {
		return key, fmt.Errorf("cryptography: token payload is %d bytes, want %d", len(payload), SecretKeySize)
	}
	copy(key[:], payload)
	return key, nil
}
