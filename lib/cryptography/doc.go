// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cryptography holds the primitives nucleus signs, hashes and
// encrypts with.
//
// Key exports:
//
//   - [KeyPair], [PublicKey], [Signature] -- ed25519 identities. Owners
//     sign objects, authorities sign descriptor meta sections and
//     administrators sign descriptor data sections. [Signer] is the
//     capability the signing side needs.
//   - [Digest], [Domain], [Hash] -- BLAKE3 keyed hashing with a
//     distinct 32-byte key per use, so a digest computed for one
//     purpose can never be replayed as another.
//   - [SecretKey] -- symmetric XChaCha20-Poly1305 key protecting every
//     sealed porcupine node of a collection. The AEAD key is derived
//     with HKDF-SHA256 rather than used directly.
//   - [Token] -- a SecretKey wrapped with age to one ed25519 subject.
//     Owners and readers with an access record each get their own.
//
// Signatures cover canonical CBOR tuples produced by lib/codec; this
// package signs and verifies opaque payloads and does not know about
// tuple layout.
package cryptography
