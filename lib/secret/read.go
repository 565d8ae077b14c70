// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
)

// ReadFile reads a hex-encoded secret from path and decodes it straight
// into protected memory. Surrounding whitespace is ignored. The heap
// copy of the file contents is zeroed before returning.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secret: reading %s: %w", path, err)
	}
	defer Zero(data)

	text := bytes.TrimSpace(data)
	if len(text) == 0 {
		return nil, fmt.Errorf("secret: %s is empty", path)
	}
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("secret: %s: odd-length hex", path)
	}

	buffer, err := New(len(text) / 2)
	if err != nil {
		return nil, err
	}
	if _, err := hex.Decode(buffer.Bytes(), text); err != nil {
		buffer.Close()
		return nil, fmt.Errorf("secret: %s: %w", path, err)
	}
	return buffer, nil
}

// WriteFile writes data hex-encoded to path with owner-only permissions.
// The file must not already exist.
func WriteFile(path string, data []byte) error {
	encoded := make([]byte, hex.EncodedLen(len(data))+1)
	defer Zero(encoded)
	hex.Encode(encoded, data)
	encoded[len(encoded)-1] = '\n'

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("secret: creating %s: %w", path, err)
	}
	if _, err := file.Write(encoded); err != nil {
		file.Close()
		return fmt.Errorf("secret: writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("secret: closing %s: %w", path, err)
	}
	return nil
}
