// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package automaton performs filesystem operations on neutron objects.
//
// A [Context] binds one object to the key pair acting on it, the nest
// its collections load nodes through and the depot blocks persist to.
// Operations read and mutate the object's collections: the catalog of
// a directory, the data of a file or link, the attributes and the
// access list. Nothing reaches the depot until [Context.Store] seals
// the dirty collections, records them in the object, signs it and
// writes the new blocks followed by the object itself.
//
// Contents and attributes are sealed under the object's collection
// secret. The owner holds it through the token in the object's meta
// section; every user granted read access holds it through the token
// of their access record. Revoking a user rotates the secret, reseals
// the collections and rewraps the remaining tokens. The access list
// itself is sealed under a key derived from the object's address, so
// any holder of the address can check who may do what and validate
// lord-authored writes.
//
// Only the owner changes attributes, the access list and its own
// permissions, since those changes alter the owner-signed meta
// section. Users granted write access change contents and sign the
// data section as lords, identified by the position of their record
// in the access list. Group subjects can be granted permissions, but
// membership is not resolved here: a group record never authorizes an
// operation.
//
// A Context keeps the unwrapped collection secret in locked memory
// until [Context.Close]. A Context is not safe for concurrent use.
package automaton
