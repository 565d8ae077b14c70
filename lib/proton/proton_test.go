// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

func TestImmutableAddressTracksContent(t *testing.T) {
	first := NewContents([]byte("sealed node"))
	second := NewContents([]byte("sealed node"))
	if first.Address() != second.Address() {
		t.Error("identical content produced different addresses")
	}

	third := NewContents([]byte("sealed nodf"))
	if first.Address() == third.Address() {
		t.Error("different content produced the same address")
	}
	if first.Address().Family != FamilyImmutable || first.Address().Component != ComponentContents {
		t.Errorf("address = %s, want immutable/contents", first.Address())
	}

	if _, err := LoadContents(first.Address(), []byte("sealed nodf")); !errors.Is(err, ErrAddressMismatch) {
		t.Errorf("LoadContents with tampered data: error = %v, want ErrAddressMismatch", err)
	}
	loaded, err := LoadContents(first.Address(), []byte("sealed node"))
	if err != nil {
		t.Fatalf("LoadContents: %v", err)
	}
	if loaded.Footprint() != len("sealed node") {
		t.Errorf("Footprint() = %d", loaded.Footprint())
	}
}

func TestMutableBlockBinding(t *testing.T) {
	owner, err := cryptography.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	block, err := NewMutableBlock(ComponentObject, owner.Public())
	if err != nil {
		t.Fatalf("NewMutableBlock: %v", err)
	}
	if block.State != StateDirty || block.Revision != 0 {
		t.Errorf("new block state=%s revision=%d, want dirty/0", block.State, block.Revision)
	}

	address := block.Address()
	if err := block.Bind(address); err != nil {
		t.Errorf("Bind(own address): %v", err)
	}

	// Revision does not participate in the address.
	block.Revision = 42
	if block.Address() != address {
		t.Error("revision changed the mutable address")
	}

	other, _ := NewMutableBlock(ComponentObject, owner.Public())
	if other.Address() == address {
		t.Error("two salts produced the same address")
	}
	if err := other.Bind(address); !errors.Is(err, ErrAddressMismatch) {
		t.Errorf("Bind(foreign address): error = %v, want ErrAddressMismatch", err)
	}
}

func TestAddressStringRoundtrip(t *testing.T) {
	address := NewContents([]byte("x")).Address()
	parsed, err := ParseAddress(address.String())
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", address.String(), err)
	}
	if parsed != address {
		t.Errorf("parsed %s, want %s", parsed, address)
	}
	if !strings.HasPrefix(address.Key(), "0101") {
		t.Errorf("Key() = %q, want prefix 0101", address.Key())
	}

	for _, bad := range []string{"", "immutable/contents", "other/contents/00", "immutable/contents/zz"} {
		if _, err := ParseAddress(bad); !errors.Is(err, ErrAddressFormat) {
			t.Errorf("ParseAddress(%q): error = %v, want ErrAddressFormat", bad, err)
		}
	}
}

func TestRadixValidate(t *testing.T) {
	root := NewContents([]byte("root")).Address()
	tests := []struct {
		name  string
		radix Radix
		valid bool
	}{
		{"empty", Radix{}, true},
		{"value", ValueRadix([]byte{1, 2}), true},
		{"tree", TreeRadix(root), true},
		{"value without bytes", Radix{Strategy: StrategyValue}, false},
		{"tree without address", Radix{Strategy: StrategyTree}, false},
		{"none with value", Radix{Value: []byte{1}}, false},
		{"tree to a mutable block", TreeRadix(Address{Family: FamilyMutable, Component: ComponentContents, Digest: root.Digest}), false},
		{"unknown strategy", Radix{Strategy: 9}, false},
	}
	for _, test := range tests {
		err := test.radix.Validate()
		if test.valid && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", test.name, err)
		}
		if !test.valid && !errors.Is(err, ErrRadix) {
			t.Errorf("%s: Validate() = %v, want ErrRadix", test.name, err)
		}
	}
}

func TestRadixEncodingRoundtrip(t *testing.T) {
	original := TreeRadix(NewContents([]byte("root")).Address())
	data, err := codec.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Radix
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("decoded %s, want %s", decoded, original)
	}
}

func TestCompressionRoundtrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("directory entry "), 200)
	random := make([]byte, 512)
	for index := range random {
		random[index] = byte(index*131 + index/7)
	}

	for _, algorithm := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for name, image := range map[string][]byte{"compressible": compressible, "short": []byte("ab")} {
			frame, err := Compress(image, algorithm)
			if err != nil {
				t.Fatalf("%s/%s: Compress: %v", algorithm, name, err)
			}
			restored, err := Decompress(frame)
			if err != nil {
				t.Fatalf("%s/%s: Decompress: %v", algorithm, name, err)
			}
			if !bytes.Equal(restored, image) {
				t.Errorf("%s/%s: roundtrip mismatch", algorithm, name)
			}
		}
	}

	frame, err := Compress(compressible, CompressionZstd)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if Compression(frame[0]) != CompressionZstd || len(frame) >= len(compressible) {
		t.Errorf("zstd frame: algorithm %s, %d bytes for %d input", Compression(frame[0]), len(frame), len(compressible))
	}

	// Two bytes never shrink, so the frame falls back to none.
	short, err := Compress([]byte("ab"), CompressionLZ4)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if Compression(short[0]) != CompressionNone {
		t.Errorf("incompressible frame algorithm = %s, want none", Compression(short[0]))
	}
}

func TestDecompressRejectsMalformed(t *testing.T) {
	for name, frame := range map[string][]byte{
		"empty":         nil,
		"size mismatch": {byte(CompressionNone), 5, 'a'},
		"too large":     {byte(CompressionNone), 0xff, 0xff, 0xff, 0xff, 0x7f},
		"unknown":       {9, 1, 'a'},
		"bad lz4":       {byte(CompressionLZ4), 10, 0xff, 0xff},
	} {
		if _, err := Decompress(frame); !errors.Is(err, ErrCompression) {
			t.Errorf("%s: error = %v, want ErrCompression", name, err)
		}
	}
}

func TestPackUnpack(t *testing.T) {
	key, err := cryptography.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	image := bytes.Repeat([]byte("node"), 64)

	contents, err := Pack(image, CompressionLZ4, key, "catalog")
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	restored, err := Unpack(contents, key, "catalog")
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !bytes.Equal(restored, image) {
		t.Error("Unpack did not restore the image")
	}

	if _, err := Unpack(contents, key, "data"); !errors.Is(err, cryptography.ErrDecryption) {
		t.Errorf("wrong label: error = %v, want ErrDecryption", err)
	}
	other, _ := cryptography.GenerateSecretKey()
	if _, err := Unpack(contents, other, "catalog"); !errors.Is(err, cryptography.ErrDecryption) {
		t.Errorf("wrong key: error = %v, want ErrDecryption", err)
	}
}

func TestTranscriptCounts(t *testing.T) {
	contents := NewContents([]byte("a"))
	transcript := Transcript{
		{Operation: OperationPush, Address: contents.Address(), Contents: contents},
		{Operation: OperationWipe, Address: NewContents([]byte("b")).Address()},
		{Operation: OperationPush, Address: contents.Address(), Contents: contents},
	}
	if transcript.Pushes() != 2 || transcript.Wipes() != 1 {
		t.Errorf("pushes=%d wipes=%d, want 2/1", transcript.Pushes(), transcript.Wipes())
	}
}
