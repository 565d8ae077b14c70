// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/nucleus/lib/porcupine"
)

// Trait is one extended attribute.
type Trait struct {
	Name  string `cbor:"1,keyasint"`
	Value []byte `cbor:"2,keyasint"`
}

func (t Trait) footprint() int { return len(t.Name) + len(t.Value) + traitOverhead }

// Attributes is a node of an object's extended attributes, sorted by
// name.
type Attributes struct {
	Traits []Trait `cbor:"1,keyasint"`
}

var _ porcupine.Value[string, *Attributes] = (*Attributes)(nil)

// NewAttributes returns an empty attributes node.
func NewAttributes() *Attributes { return &Attributes{} }

func (a *Attributes) Kind() string { return "attributes" }

func (a *Attributes) Minor() string {
	if len(a.Traits) == 0 {
		return ""
	}
	return a.Traits[0].Name
}

func (a *Attributes) Mayor() string {
	if len(a.Traits) == 0 {
		return ""
	}
	return a.Traits[len(a.Traits)-1].Name
}

func (a *Attributes) Capacity() uint64 { return uint64(len(a.Traits)) }

func (a *Attributes) Footprint() int {
	total := nodeOverhead
	for _, trait := range a.Traits {
		total += trait.footprint()
	}
	return total
}

func (a *Attributes) Empty() bool { return len(a.Traits) == 0 }

func (a *Attributes) Split(limit int) (*Attributes, error) {
	keep := splitPoint(len(a.Traits), limit, func(index int) int { return a.Traits[index].footprint() })
	right := &Attributes{}
	if keep < len(a.Traits) {
		right.Traits = slices.Clone(a.Traits[keep:])
		a.Traits = slices.Clip(a.Traits[:keep])
	}
	return right, nil
}

func (a *Attributes) Merge(right *Attributes) error {
	if len(a.Traits) > 0 && len(right.Traits) > 0 && right.Minor() <= a.Mayor() {
		return fmt.Errorf("neutron: trait %q does not follow %q", right.Minor(), a.Mayor())
	}
	a.Traits = append(a.Traits, right.Traits...)
	return nil
}

func (a *Attributes) Validate() error {
	for index := 1; index < len(a.Traits); index++ {
		if a.Traits[index-1].Name >= a.Traits[index].Name {
			return fmt.Errorf("neutron: trait %q does not follow %q", a.Traits[index].Name, a.Traits[index-1].Name)
		}
	}
	return nil
}

func (a *Attributes) search(name string) (int, bool) {
	return slices.BinarySearchFunc(a.Traits, name, func(trait Trait, target string) int {
		return strings.Compare(trait.Name, target)
	})
}

// Set adds or replaces the trait called name. It reports whether
// anything changed.
func (a *Attributes) Set(name string, value []byte) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	index, found := a.search(name)
	if found {
		if bytes.Equal(a.Traits[index].Value, value) {
			return false, nil
		}
		a.Traits[index].Value = bytes.Clone(value)
		return true, nil
	}
	a.Traits = slices.Insert(a.Traits, index, Trait{Name: name, Value: bytes.Clone(value)})
	return true, nil
}

// Get returns the value of the trait called name.
func (a *Attributes) Get(name string) ([]byte, bool) {
	index, found := a.search(name)
	if !found {
		return nil, false
	}
	return a.Traits[index].Value, true
}

// Omit removes the trait called name.
func (a *Attributes) Omit(name string) error {
	index, found := a.search(name)
	if !found {
		return fmt.Errorf("%w: attribute %q", ErrNotFound, name)
	}
	a.Traits = slices.Delete(a.Traits, index, index+1)
	return nil
}
