// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewZeroFilled(t *testing.T) {
	buffer, err := New(32)
	if err != nil {
		t.Fatalf("New(32): %v", err)
	}
	defer buffer.Close()

	if buffer.Len() != 32 {
		t.Errorf("Len() = %d, want 32", buffer.Len())
	}
	for index, value := range buffer.Bytes() {
		if value != 0 {
			t.Fatalf("byte %d = %d, want 0", index, value)
		}
	}
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("New(%d) succeeded", size)
		}
	}
}

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("collection-secret-material-32by")
	want := string(source)

	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if string(buffer.Bytes()) != want {
		t.Errorf("contents = %q, want %q", buffer.Bytes(), want)
	}
	if !buffer.Equal([]byte(want)) {
		t.Error("Equal returned false for identical contents")
	}
	for index, value := range source {
		if value != 0 {
			t.Fatalf("source byte %d not zeroed", index)
		}
	}
}

func TestCloseIdempotentAndPanicsAfter(t *testing.T) {
	buffer, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok || !errors.Is(err, ErrClosed) {
			t.Errorf("recovered %v, want ErrClosed", recovered)
		}
	}()
	buffer.Bytes()
}

func TestWriteFileReadFileRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed")
	seed := []byte{0x00, 0x01, 0xfe, 0xff, 0x42}

	if err := WriteFile(path, seed); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	buffer, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	defer buffer.Close()
	if !buffer.Equal(seed) {
		t.Errorf("read %x, want %x", buffer.Bytes(), seed)
	}

	if err := WriteFile(path, seed); err == nil {
		t.Error("WriteFile overwrote an existing file")
	}
}

func TestReadFileRejectsMalformed(t *testing.T) {
	directory := t.TempDir()
	cases := map[string]string{
		"empty":      "  \n",
		"odd length": "abc",
		"not hex":    "zzzz",
	}
	for name, contents := range cases {
		path := filepath.Join(directory, name)
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		if _, err := ReadFile(path); err == nil {
			t.Errorf("%s: ReadFile succeeded", name)
		}
	}

	if _, err := ReadFile(filepath.Join(directory, "missing")); err == nil {
		t.Error("ReadFile of a missing file succeeded")
	}
}
