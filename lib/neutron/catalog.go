// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// Footprint estimates shared by the keyed node types: a fixed cost per
// node plus a fixed cost per item on top of its variable fields.
const (
	nodeOverhead   = 8
	entryOverhead  = 48
	traitOverhead  = 8
	recordOverhead = 48
)

// Entry is one name of a directory.
type Entry struct {
	Name    string         `cbor:"1,keyasint"`
	Address proton.Address `cbor:"2,keyasint"`
}

func (e Entry) footprint() int { return len(e.Name) + entryOverhead }

// Catalog is a node of a directory: entries sorted by name.
type Catalog struct {
	Entries []Entry `cbor:"1,keyasint"`
}

var _ porcupine.Value[string, *Catalog] = (*Catalog)(nil)

// NewCatalog returns an empty catalog node.
func NewCatalog() *Catalog { return &Catalog{} }

// Kind implements porcupine.Value.
func (c *Catalog) Kind() string { return "catalog" }

// Minor implements porcupine.Value.
func (c *Catalog) Minor() string {
	if len(c.Entries) == 0 {
		return ""
	}
	return c.Entries[0].Name
}

// Mayor implements porcupine.Value.
func (c *Catalog) Mayor() string {
	if len(c.Entries) == 0 {
		return ""
	}
	return c.Entries[len(c.Entries)-1].Name
}

// Capacity implements porcupine.Value: the number of entries.
func (c *Catalog) Capacity() uint64 { return uint64(len(c.Entries)) }

// Footprint implements porcupine.Value.
func (c *Catalog) Footprint() int {
	total := nodeOverhead
	for _, entry := range c.Entries {
		total += entry.footprint()
	}
	return total
}

// Empty implements porcupine.Value.
func (c *Catalog) Empty() bool { return len(c.Entries) == 0 }

// Split implements porcupine.Value.
func (c *Catalog) Split(limit int) (*Catalog, error) {
	keep := splitPoint(len(c.Entries), limit, func(index int) int { return c.Entries[index].footprint() })
	right := &Catalog{}
	if keep < len(c.Entries) {
		right.Entries = slices.Clone(c.Entries[keep:])
		c.Entries = slices.Clip(c.Entries[:keep])
	}
	return right, nil
}

// Merge implements porcupine.Value.
func (c *Catalog) Merge(right *Catalog) error {
	if len(c.Entries) > 0 && len(right.Entries) > 0 && right.Minor() <= c.Mayor() {
		return fmt.Errorf("neutron: catalog entry %q does not follow %q", right.Minor(), c.Mayor())
	}
	c.Entries = append(c.Entries, right.Entries...)
	return nil
}

// Validate implements porcupine.Validator.
func (c *Catalog) Validate() error {
	for index, entry := range c.Entries {
		if err := ValidateName(entry.Name); err != nil {
			return err
		}
		if index > 0 && c.Entries[index-1].Name >= entry.Name {
			return fmt.Errorf("neutron: catalog entry %q does not follow %q", entry.Name, c.Entries[index-1].Name)
		}
	}
	return nil
}

func (c *Catalog) search(name string) (int, bool) {
	return slices.BinarySearchFunc(c.Entries, name, func(entry Entry, target string) int {
		return strings.Compare(entry.Name, target)
	})
}

// Insert adds an entry, failing with ErrExists if the name is taken.
func (c *Catalog) Insert(entry Entry) error {
	if err := ValidateName(entry.Name); err != nil {
		return err
	}
	index, found := c.search(entry.Name)
	if found {
		return fmt.Errorf("%w: %q", ErrExists, entry.Name)
	}
	c.Entries = slices.Insert(c.Entries, index, entry)
	return nil
}

// Lookup returns the entry called name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	index, found := c.search(name)
	if !found {
		return Entry{}, false
	}
	return c.Entries[index], true
}

// Remove deletes the entry called name.
func (c *Catalog) Remove(name string) (Entry, error) {
	index, found := c.search(name)
	if !found {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	entry := c.Entries[index]
	c.Entries = slices.Delete(c.Entries, index, index+1)
	return entry, nil
}

// MaximumNameLength bounds directory entry and attribute names.
const MaximumNameLength = 255

// ValidateName checks a directory entry name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("neutron: empty name")
	case len(name) > MaximumNameLength:
		return fmt.Errorf("neutron: name of %d bytes exceeds %d", len(name), MaximumNameLength)
	case name == "." || name == "..":
		return fmt.Errorf("neutron: reserved name %q", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("neutron: name %q contains a separator or NUL", name)
	}
	return nil
}

// splitPoint returns how many leading items of count fit in limit
// bytes after the node overhead, never less than one.
func splitPoint(count, limit int, footprint func(int) int) int {
	keep, total := 0, nodeOverhead
	for keep < count && total+footprint(keep) <= limit {
		total += footprint(keep)
		keep++
	}
	return max(keep, 1)
}
