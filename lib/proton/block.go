// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
)

// State is the lifecycle of a block or of one section of an object.
type State uint8

const (
	// StateClean has not changed since it was loaded or created.
	StateClean State = iota

	// StateDirty has been modified and must be sealed.
	StateDirty

	// StateConsistent has been sealed since its last modification.
	StateConsistent
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateConsistent:
		return "consistent"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// ErrAddressMismatch reports a block whose content or owner does not
// hash to the address it was fetched under.
var ErrAddressMismatch = errors.New("proton: address mismatch")

// Salt is the random discriminator of a mutable block address.
type Salt [32]byte

// NewSalt returns a random Salt.
func NewSalt() (Salt, error) {
	var salt Salt
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return salt, fmt.Errorf("proton: generating salt: %w", err)
	}
	return salt, nil
}

// MutableBlock is the header shared by every owner-addressed block.
// Revision strictly increases with each seal; State is never persisted.
type MutableBlock struct {
	Component Component              `cbor:"1,keyasint"`
	Owner     cryptography.PublicKey `cbor:"2,keyasint"`
	Salt      Salt                   `cbor:"3,keyasint"`
	Revision  uint64                 `cbor:"4,keyasint"`
	State     State                  `cbor:"-"`
}

// NewMutableBlock returns a dirty header at revision zero with a fresh
// salt.
func NewMutableBlock(component Component, owner cryptography.PublicKey) (MutableBlock, error) {
	salt, err := NewSalt()
	if err != nil {
		return MutableBlock{}, err
	}
	return MutableBlock{
		Component: component,
		Owner:     owner,
		Salt:      salt,
		State:     StateDirty,
	}, nil
}

// Address returns the block's address.
func (b *MutableBlock) Address() Address {
	return MutableAddress(b.Component, b.Owner, b.Salt)
}

// Bind checks that the header hashes to address.
func (b *MutableBlock) Bind(address Address) error {
	if computed := b.Address(); computed != address {
		return fmt.Errorf("%w: block hashes to %s, fetched as %s", ErrAddressMismatch, computed, address)
	}
	return nil
}

// Contents is an immutable block holding one sealed porcupine node.
type Contents struct {
	data    []byte
	address Address
}

// NewContents wraps sealed bytes in a block and computes its address.
func NewContents(data []byte) *Contents {
	return &Contents{
		data:    data,
		address: ImmutableAddress(ComponentContents, data),
	}
}

// LoadContents rebuilds a block fetched under address and checks the
// content against it.
func LoadContents(address Address, data []byte) (*Contents, error) {
	contents := NewContents(data)
	if contents.address != address {
		return nil, fmt.Errorf("%w: content hashes to %s, fetched as %s", ErrAddressMismatch, contents.address, address)
	}
	return contents, nil
}

// Address returns the content address.
func (c *Contents) Address() Address { return c.address }

// Data returns the sealed bytes. The caller must not modify them.
func (c *Contents) Data() []byte { return c.data }

// Footprint returns the stored size in bytes.
func (c *Contents) Footprint() int { return len(c.data) }
