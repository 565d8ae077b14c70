// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

// Family tells how a block's address is derived.
type Family uint8

const (
	// FamilyImmutable addresses are hashes of the block content.
	FamilyImmutable Family = 1

	// FamilyMutable addresses are hashes of the owner key and a salt.
	FamilyMutable Family = 2
)

func (f Family) String() string {
	switch f {
	case FamilyImmutable:
		return "immutable"
	case FamilyMutable:
		return "mutable"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Component tells what a block holds.
type Component uint8

const (
	// ComponentContents is a sealed porcupine node.
	ComponentContents Component = 1

	// ComponentObject is a neutron object.
	ComponentObject Component = 2
)

func (c Component) String() string {
	switch c {
	case ComponentContents:
		return "contents"
	case ComponentObject:
		return "object"
	default:
		return fmt.Sprintf("component(%d)", uint8(c))
	}
}

// Hash domains. Changing either invalidates every address in it.
var (
	immutableDomain = cryptography.NewDomain("nucleus.proton.immutable")
	mutableDomain   = cryptography.NewDomain("nucleus.proton.mutable")
)

// ErrAddressFormat reports an address string that does not parse.
var ErrAddressFormat = errors.New("proton: malformed address")

// Address identifies a block.
type Address struct {
	Family    Family              `cbor:"1,keyasint"`
	Component Component           `cbor:"2,keyasint"`
	Digest    cryptography.Digest `cbor:"3,keyasint"`
}

// Null is the zero address. It refers to nothing.
var Null Address

// IsNull reports whether a is the zero address.
func (a Address) IsNull() bool { return a == Null }

// String renders the address as family/component/digest, which
// ParseAddress reverses.
func (a Address) String() string {
	return a.Family.String() + "/" + a.Component.String() + "/" + a.Digest.String()
}

// Key returns the name under which the block is stored in a depot.
func (a Address) Key() string {
	return fmt.Sprintf("%02x%02x%s", uint8(a.Family), uint8(a.Component), a.Digest)
}

// ParseAddress decodes the String form of an address.
func ParseAddress(text string) (Address, error) {
	parts := strings.Split(text, "/")
	if len(parts) != 3 {
		return Null, fmt.Errorf("%w: %q", ErrAddressFormat, text)
	}
	var address Address
	switch parts[0] {
	case "immutable":
		address.Family = FamilyImmutable
	case "mutable":
		address.Family = FamilyMutable
	default:
		return Null, fmt.Errorf("%w: unknown family %q", ErrAddressFormat, parts[0])
	}
	switch parts[1] {
	case "contents":
		address.Component = ComponentContents
	case "object":
		address.Component = ComponentObject
	default:
		return Null, fmt.Errorf("%w: unknown component %q", ErrAddressFormat, parts[1])
	}
	digest, err := cryptography.ParseDigest(parts[2])
	if err != nil {
		return Null, fmt.Errorf("%w: %v", ErrAddressFormat, err)
	}
	address.Digest = digest
	return address, nil
}

// ImmutableAddress computes the address of an immutable block.
func ImmutableAddress(component Component, content []byte) Address {
	return Address{
		Family:    FamilyImmutable,
		Component: component,
		Digest:    cryptography.Hash(immutableDomain, []byte{byte(component)}, content),
	}
}

// MutableAddress computes the address of a mutable block.
func MutableAddress(component Component, owner cryptography.PublicKey, salt Salt) Address {
	return Address{
		Family:    FamilyMutable,
		Component: component,
		Digest:    cryptography.Hash(mutableDomain, []byte{byte(component)}, owner[:], salt[:]),
	}
}
