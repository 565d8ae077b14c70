// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the canonical CBOR encoding used by every
// nucleus component.
//
// The same bytes serve two purposes: they are what gets persisted in
// blocks (sealed porcupine nodes, objects, descriptors) and they are
// what gets hashed and signed. A signature is verified by re-encoding
// the signed fields and checking the result, so the encoding must be
// reproducible bit for bit across processes. The encoder therefore uses
// Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items.
//
// For whole values:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For signed tuples, [Tuple] encodes its arguments as a single CBOR
// array. Order matters and is part of the signature contract:
//
//	payload, err := codec.Tuple(contents, size, timestamp, revision)
//
// The decoder rejects duplicate map keys and indefinite-length items so
// that two different byte strings can never decode to the same value
// and then verify under the same signature.
//
// Types persisted by nucleus use `cbor` struct tags with integer keys
// (`cbor:"1,keyasint"`), which keeps sealed nodes small and makes field
// renames free.
package codec
