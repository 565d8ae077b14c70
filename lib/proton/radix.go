// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import (
	"bytes"
	"errors"
	"fmt"
)

// Strategy tells how a Radix refers to its collection.
type Strategy uint8

const (
	// StrategyNone is the empty collection.
	StrategyNone Strategy = iota

	// StrategyValue embeds the single sealed node inline.
	StrategyValue

	// StrategyTree points at the sealed root node block.
	StrategyTree
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyValue:
		return "value"
	case StrategyTree:
		return "tree"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ErrRadix reports a Radix whose fields contradict its strategy.
var ErrRadix = errors.New("proton: invalid radix")

// Radix is a reference to a sealed collection. Exactly one of Value and
// Address is meaningful, chosen by Strategy.
type Radix struct {
	Strategy Strategy `cbor:"1,keyasint"`
	Value    []byte   `cbor:"2,keyasint,omitempty"`
	Address  Address  `cbor:"3,keyasint"`
}

// ValueRadix references a node sealed inline.
func ValueRadix(sealed []byte) Radix {
	return Radix{Strategy: StrategyValue, Value: sealed}
}

// TreeRadix references a sealed root node block.
func TreeRadix(root Address) Radix {
	return Radix{Strategy: StrategyTree, Address: root}
}

// IsEmpty reports whether the radix refers to nothing.
func (r Radix) IsEmpty() bool { return r.Strategy == StrategyNone }

// Equal reports whether both radixes refer to the same sealed bytes.
func (r Radix) Equal(other Radix) bool {
	return r.Strategy == other.Strategy &&
		r.Address == other.Address &&
		bytes.Equal(r.Value, other.Value)
}

// Clone returns a copy that shares no memory with r.
func (r Radix) Clone() Radix {
	r.Value = bytes.Clone(r.Value)
	return r
}

// Validate checks that exactly the fields of the active strategy are
// set.
func (r Radix) Validate() error {
	switch r.Strategy {
	case StrategyNone:
		if len(r.Value) != 0 || !r.Address.IsNull() {
			return fmt.Errorf("%w: empty radix carries a value or address", ErrRadix)
		}
	case StrategyValue:
		if len(r.Value) == 0 {
			return fmt.Errorf("%w: value radix without a value", ErrRadix)
		}
		if !r.Address.IsNull() {
			return fmt.Errorf("%w: value radix carries an address", ErrRadix)
		}
	case StrategyTree:
		if r.Address.IsNull() || len(r.Value) != 0 {
			return fmt.Errorf("%w: tree radix must carry only an address", ErrRadix)
		}
		if r.Address.Family != FamilyImmutable || r.Address.Component != ComponentContents {
			return fmt.Errorf("%w: tree root %s is not a contents block", ErrRadix, r.Address)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %d", ErrRadix, r.Strategy)
	}
	return nil
}

func (r Radix) String() string {
	switch r.Strategy {
	case StrategyValue:
		return fmt.Sprintf("value(%d bytes)", len(r.Value))
	case StrategyTree:
		return "tree(" + r.Address.String() + ")"
	default:
		return r.Strategy.String()
	}
}
