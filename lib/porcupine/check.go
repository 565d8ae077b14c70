// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"strings"
)

// CheckFlags selects what Check verifies.
type CheckFlags uint8

const (
	// CheckRecursive descends into every node instead of stopping at
	// the root.
	CheckRecursive CheckFlags = 1 << iota

	// CheckKey verifies fence keys: strictly increasing within a
	// nodule, equal to the child's largest key, and above the
	// previous sibling's range.
	CheckKey

	// CheckCapacity verifies that recorded capacities match the
	// children.
	CheckCapacity

	// CheckFootprint verifies recorded footprints and that no
	// splittable node exceeds the extent.
	CheckFootprint

	// CheckState verifies that dirty nodes only hang below dirty
	// parents and that clean nodes have been sealed.
	CheckState

	// CheckAll enables every check.
	CheckAll = CheckRecursive | CheckKey | CheckCapacity | CheckFootprint | CheckState
)

func (f CheckFlags) String() string {
	names := []string{"recursive", "key", "capacity", "footprint", "state"}
	var parts []string
	for bit, name := range names {
		if f&(1<<bit) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Check verifies the structure of the collection. It returns the first
// violation as an *InconsistencyError, or a load error.
func (p *Porcupine[K, V]) Check(ctx context.Context, flags CheckFlags) error {
	if !p.tree {
		value := p.top.value
		if flags&CheckKey != 0 {
			if err := validateValue(value); err != nil {
				return &InconsistencyError{Check: CheckKey, Reason: err.Error()}
			}
		}
		if flags&CheckFootprint != 0 && value.Footprint() > p.layout.Extent {
			return &InconsistencyError{Check: CheckFootprint, Reason: fmt.Sprintf("single value of %d bytes exceeds the %d-byte extent", value.Footprint(), p.layout.Extent)}
		}
		if flags&CheckState != 0 && p.sealed && p.top.dirty {
			return &InconsistencyError{Check: CheckState, Reason: "sealed collection holds a dirty value"}
		}
		return nil
	}

	root := p.top.nodule
	if flags&CheckFootprint != 0 && root.Height > 0 && len(root.Inlets) < 2 {
		return &InconsistencyError{Check: CheckFootprint, Reason: "root nodule with a single child"}
	}
	if flags&CheckState != 0 && p.sealed && p.top.dirty {
		return &InconsistencyError{Check: CheckState, Reason: "sealed collection with a dirty root"}
	}
	checker := &checker[K, V]{porcupine: p, flags: flags}
	return checker.nodule(ctx, root, nil, p.top.dirty, nil)
}

type checker[K cmp.Ordered, V Value[K, V]] struct {
	porcupine *Porcupine[K, V]
	flags     CheckFlags
}

func (c *checker[K, V]) enabled(flag CheckFlags) bool { return c.flags&flag != 0 }

func (c *checker[K, V]) fail(flag CheckFlags, path []int, format string, args ...any) error {
	return &InconsistencyError{Check: flag, Path: path, Reason: fmt.Sprintf(format, args...)}
}

// nodule checks n and, when recursive, its subtree. lower is the fence
// key of the preceding sibling subtree, if any.
func (c *checker[K, V]) nodule(ctx context.Context, n *nodule[K, V], path []int, parentDirty bool, lower *K) error {
	extent := c.porcupine.layout.Extent
	if len(n.Inlets) == 0 {
		return c.fail(CheckCapacity, path, "empty nodule")
	}

	for index, child := range n.Inlets {
		here := append(append([]int(nil), path...), index)

		if c.enabled(CheckKey) && index > 0 && !(n.Inlets[index-1].Key < child.Key) {
			return c.fail(CheckKey, here, "fence key %v does not follow %v", child.Key, n.Inlets[index-1].Key)
		}
		if c.enabled(CheckState) {
			if child.dirty && !parentDirty {
				return c.fail(CheckState, here, "dirty node below a clean parent")
			}
			if !child.dirty && child.Address.IsNull() {
				return c.fail(CheckState, here, "clean node was never sealed")
			}
		}
		if !c.enabled(CheckRecursive) {
			continue
		}

		if err := c.porcupine.load(ctx, n, child); err != nil {
			return err
		}
		var bound *K
		if index > 0 {
			bound = &n.Inlets[index-1].Key
		} else {
			bound = lower
		}

		if n.Height == 0 {
			if err := c.value(child, here, bound); err != nil {
				return err
			}
			continue
		}

		grandchild := child.nodule
		if grandchild.Height != n.Height-1 {
			return c.fail(CheckKey, here, "nodule of height %d below height %d", grandchild.Height, n.Height)
		}
		if c.enabled(CheckKey) && len(grandchild.Inlets) > 0 && grandchild.mayor() != child.Key {
			return c.fail(CheckKey, here, "fence key %v, subtree ends at %v", child.Key, grandchild.mayor())
		}
		if c.enabled(CheckCapacity) && grandchild.capacity() != child.Capacity {
			return c.fail(CheckCapacity, here, "recorded capacity %d, subtree holds %d", child.Capacity, grandchild.capacity())
		}
		if c.enabled(CheckFootprint) {
			if grandchild.footprint() != child.Footprint {
				return c.fail(CheckFootprint, here, "recorded footprint %d, nodule is %d", child.Footprint, grandchild.footprint())
			}
			if grandchild.footprint() > extent && len(grandchild.Inlets) > 1 {
				return c.fail(CheckFootprint, here, "nodule of %d bytes exceeds the %d-byte extent", grandchild.footprint(), extent)
			}
		}
		if err := c.nodule(ctx, grandchild, here, child.dirty, bound); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker[K, V]) value(child *inlet[K, V], path []int, lower *K) error {
	value := child.value
	extent := c.porcupine.layout.Extent

	if c.enabled(CheckKey) {
		if value.Empty() {
			return c.fail(CheckKey, path, "empty value in a tree")
		}
		if value.Mayor() != child.Key {
			return c.fail(CheckKey, path, "fence key %v, value ends at %v", child.Key, value.Mayor())
		}
		if lower != nil && !(*lower < value.Minor()) {
			return c.fail(CheckKey, path, "value starts at %v, not after %v", value.Minor(), *lower)
		}
		if err := validateValue(value); err != nil {
			return c.fail(CheckKey, path, "%v", err)
		}
	}
	if c.enabled(CheckCapacity) && value.Capacity() != child.Capacity {
		return c.fail(CheckCapacity, path, "recorded capacity %d, value holds %d", child.Capacity, value.Capacity())
	}
	if c.enabled(CheckFootprint) {
		if value.Footprint() != child.Footprint {
			return c.fail(CheckFootprint, path, "recorded footprint %d, value is %d", child.Footprint, value.Footprint())
		}
		if value.Footprint() > extent && value.Capacity() > 1 {
			return c.fail(CheckFootprint, path, "value of %d bytes exceeds the %d-byte extent", value.Footprint(), extent)
		}
	}
	return nil
}

func validateValue[V any](value V) error {
	if validator, ok := any(value).(Validator); ok {
		return validator.Validate()
	}
	return nil
}

// Each calls fn on every non-empty value in key order.
func (p *Porcupine[K, V]) Each(ctx context.Context, fn func(V) error) error {
	if !p.tree {
		if p.top.value.Empty() {
			return nil
		}
		return fn(p.top.value)
	}
	return p.walk(ctx, p.top.nodule, nil, func(n *nodule[K, V], child *inlet[K, V], _ []int) error {
		if n.Height != 0 {
			return nil
		}
		return fn(child.value)
	})
}

// Statistics summarizes the shape of a collection.
type Statistics struct {
	Strategy  string
	Height    int
	Size      uint64
	Nodules   int
	Values    int
	Footprint int

	// MinimumValue and MaximumValue are the smallest and largest
	// value footprints.
	MinimumValue int
	MaximumValue int
}

// Statistics walks the whole collection, loading every node.
func (p *Porcupine[K, V]) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{
		Strategy: p.Strategy().String(),
		Height:   p.Height(),
		Size:     p.Size(),
	}
	observe := func(footprint int) {
		stats.Values++
		stats.Footprint += footprint
		if stats.Values == 1 || footprint < stats.MinimumValue {
			stats.MinimumValue = footprint
		}
		stats.MaximumValue = max(stats.MaximumValue, footprint)
	}

	if !p.tree {
		if !p.top.value.Empty() {
			observe(p.top.value.Footprint())
		}
		return stats, nil
	}

	stats.Nodules = 1
	stats.Footprint = p.top.nodule.footprint()
	err := p.walk(ctx, p.top.nodule, nil, func(n *nodule[K, V], child *inlet[K, V], _ []int) error {
		if n.Height == 0 {
			observe(child.value.Footprint())
			return nil
		}
		stats.Nodules++
		stats.Footprint += child.nodule.footprint()
		return nil
	})
	return stats, err
}

// Dump writes an indented rendering of the tree to w.
func (p *Porcupine[K, V]) Dump(ctx context.Context, w io.Writer) error {
	if !p.tree {
		_, err := fmt.Fprintf(w, "[value] %s capacity=%d footprint=%d\n", p.label, p.top.value.Capacity(), p.top.value.Footprint())
		return err
	}
	root := p.top.nodule
	if _, err := fmt.Fprintf(w, "[nodule] %s height=%d capacity=%d footprint=%d address=%s\n",
		p.label, root.Height, root.capacity(), root.footprint(), p.top.Address); err != nil {
		return err
	}
	return p.walk(ctx, root, nil, func(n *nodule[K, V], child *inlet[K, V], path []int) error {
		indent := strings.Repeat("  ", len(path))
		kind := "value"
		if n.Height > 0 {
			kind = "nodule"
		}
		state := "clean"
		if child.dirty {
			state = "dirty"
		}
		_, err := fmt.Fprintf(w, "%s[%s] key=%v capacity=%d footprint=%d %s address=%s\n",
			indent, kind, child.Key, child.Capacity, child.Footprint, state, child.Address)
		return err
	})
}
