// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

// Seal turns an encoded node image into the bytes stored for it:
// compressed per compression, then encrypted under key. label is bound
// as associated data so that a sealed node of one collection kind
// cannot be substituted for another.
func Seal(image []byte, compression Compression, key cryptography.SecretKey, label string) ([]byte, error) {
	frame, err := Compress(image, compression)
	if err != nil {
		return nil, err
	}
	sealed, err := key.Seal(frame, []byte(label))
	if err != nil {
		return nil, fmt.Errorf("proton: sealing %s node: %w", label, err)
	}
	return sealed, nil
}

// Open reverses Seal.
func Open(sealed []byte, key cryptography.SecretKey, label string) ([]byte, error) {
	frame, err := key.Open(sealed, []byte(label))
	if err != nil {
		return nil, fmt.Errorf("proton: opening %s node: %w", label, err)
	}
	return Decompress(frame)
}

// Pack seals image into a new Contents block.
func Pack(image []byte, compression Compression, key cryptography.SecretKey, label string) (*Contents, error) {
	sealed, err := Seal(image, compression, key, label)
	if err != nil {
		return nil, err
	}
	return NewContents(sealed), nil
}

// Unpack opens the node sealed in a Contents block.
func Unpack(contents *Contents, key cryptography.SecretKey, label string) ([]byte, error) {
	return Open(contents.Data(), key, label)
}
