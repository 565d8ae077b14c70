// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/nest"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// Porcupine is a paginated collection of V nodes ordered by K.
type Porcupine[K cmp.Ordered, V Value[K, V]] struct {
	nest   nest.Nest
	layout Layout
	fresh  func() V
	label  string

	// secret is what resident clean nodes were sealed with. keyed is
	// false until the collection is opened or sealed once.
	secret cryptography.SecretKey
	keyed  bool

	// top holds the single value in the value strategy, or the root
	// nodule in the tree strategy.
	top  *inlet[K, V]
	tree bool

	// obsolete lists sealed blocks no longer referenced, wiped by the
	// next successful Seal.
	obsolete []proton.Address

	radix  proton.Radix
	sealed bool
}

// New returns an empty collection. fresh must return a new, empty,
// non-nil node each time it is called.
func New[K cmp.Ordered, V Value[K, V]](store nest.Nest, layout Layout, fresh func() V) (*Porcupine[K, V], error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	value := fresh()
	return &Porcupine[K, V]{
		nest:   store,
		layout: layout,
		fresh:  fresh,
		label:  value.Kind(),
		top:    &inlet[K, V]{value: value, loaded: true, dirty: true},
	}, nil
}

// Open reconstructs a collection from a Radix returned by Seal, using
// the secret it was sealed with.
func Open[K cmp.Ordered, V Value[K, V]](ctx context.Context, radix proton.Radix, secret cryptography.SecretKey, store nest.Nest, layout Layout, fresh func() V) (*Porcupine[K, V], error) {
	p, err := New[K, V](store, layout, fresh)
	if err != nil {
		return nil, err
	}
	if err := radix.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	p.secret = secret
	p.keyed = true

	switch radix.Strategy {
	case proton.StrategyNone:
		p.top.dirty = false

	case proton.StrategyValue:
		image, err := proton.Open(radix.Value, secret, p.label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		value, err := p.decodeValue(image)
		if err != nil {
			return nil, err
		}
		p.top = &inlet[K, V]{value: value, loaded: true}

	case proton.StrategyTree:
		root, err := p.fetchNodule(ctx, radix.Address, -1)
		if err != nil {
			return nil, err
		}
		p.top = &inlet[K, V]{Address: radix.Address, nodule: root, loaded: true}
		p.tree = true
	}
	p.refreshTop()

	p.radix = radix.Clone()
	p.sealed = true
	return p, nil
}

// Strategy reports how the collection is currently represented.
func (p *Porcupine[K, V]) Strategy() proton.Strategy {
	if p.tree {
		return proton.StrategyTree
	}
	return proton.StrategyValue
}

// Height returns 0 for the value strategy and the number of nodule
// levels for the tree strategy. A lookup loads Height+1 blocks.
func (p *Porcupine[K, V]) Height() int {
	if !p.tree {
		return 0
	}
	return p.top.nodule.Height + 1
}

// Size returns the total capacity: items, or bytes for file data.
func (p *Porcupine[K, V]) Size() uint64 {
	if !p.tree {
		return p.top.value.Capacity()
	}
	return p.top.nodule.capacity()
}

// Empty reports whether the collection holds nothing.
func (p *Porcupine[K, V]) Empty() bool {
	return !p.tree && p.top.value.Empty()
}

// Dirty reports whether the collection changed since it was last
// sealed or opened.
func (p *Porcupine[K, V]) Dirty() bool { return !p.sealed }

// Layout returns the sizing parameters.
func (p *Porcupine[K, V]) Layout() Layout { return p.layout }

// Lookup returns a door on the node responsible for key. In the value
// strategy that is the single node, empty if nothing was inserted yet.
func (p *Porcupine[K, V]) Lookup(ctx context.Context, key K) (*Door[V], error) {
	if !p.tree {
		return &Door[V]{value: p.top.value}, nil
	}
	path, err := p.descend(ctx, key)
	if err != nil {
		return nil, err
	}
	bottom := path[len(path)-1]
	return &Door[V]{value: bottom.nodule.Inlets[bottom.index].value}, nil
}

// Seek returns a door on the node covering position index together
// with the position of the node's first item. Positions past the end
// land on the last node.
func (p *Porcupine[K, V]) Seek(ctx context.Context, index uint64) (*Door[V], uint64, error) {
	if !p.tree {
		return &Door[V]{value: p.top.value}, 0, nil
	}
	var base uint64
	current := p.top.nodule
	for {
		chosen := 0
		for chosen < len(current.Inlets)-1 && index >= base+current.Inlets[chosen].Capacity {
			base += current.Inlets[chosen].Capacity
			chosen++
		}
		child := current.Inlets[chosen]
		if err := p.load(ctx, current, child); err != nil {
			return nil, 0, err
		}
		if current.Height == 0 {
			return &Door[V]{value: child.value}, base, nil
		}
		current = child.nodule
	}
}

// Update propagates a mutation of the node responsible for key: fence
// keys, capacities and footprints are refreshed up to the root, nodes
// split, merge or rebalance, and the strategy changes when the
// collection crosses one extent.
func (p *Porcupine[K, V]) Update(ctx context.Context, key K) error {
	p.sealed = false
	if !p.tree {
		p.top.dirty = true
		p.refreshTop()
		if p.top.Footprint <= p.layout.Extent {
			return nil
		}
		return p.grow(ctx)
	}

	path, err := p.descend(ctx, key)
	if err != nil {
		return err
	}
	for level := len(path) - 1; level >= 0; level-- {
		if err := p.balance(ctx, path[level].nodule, path[level].index); err != nil {
			return err
		}
	}
	p.top.dirty = true
	p.refreshTop()
	return p.reshape(ctx)
}

// Seal encrypts every dirty node under secret and returns the Radix of
// the collection. Replaced blocks are wiped through the nest. Sealing
// with a secret other than the one the collection was last sealed or
// opened with reseals every node.
func (p *Porcupine[K, V]) Seal(ctx context.Context, secret cryptography.SecretKey) (proton.Radix, error) {
	if p.keyed && secret != p.secret {
		if err := p.touchAll(ctx); err != nil {
			return proton.Radix{}, err
		}
	} else if p.sealed {
		return p.radix.Clone(), nil
	}
	p.secret = secret
	p.keyed = true

	var radix proton.Radix
	if p.tree {
		if err := p.sealInlet(p.top, false); err != nil {
			return proton.Radix{}, err
		}
		radix = proton.TreeRadix(p.top.Address)
	} else if !p.top.value.Empty() {
		image, err := codec.Marshal(p.top.value)
		if err != nil {
			return proton.Radix{}, fmt.Errorf("porcupine: encoding %s value: %w", p.label, err)
		}
		sealed, err := proton.Seal(image, p.layout.Compression, p.secret, p.label)
		if err != nil {
			return proton.Radix{}, err
		}
		radix = proton.ValueRadix(sealed)
		p.top.dirty = false
	} else {
		p.top.dirty = false
	}

	for _, address := range p.obsolete {
		p.nest.Wipe(address)
	}
	p.obsolete = nil

	p.radix = radix
	p.sealed = true
	return radix, nil
}

// step is one level of a descent: the nodule and the inlet taken.
type step[K cmp.Ordered, V Value[K, V]] struct {
	nodule *nodule[K, V]
	index  int
}

func (p *Porcupine[K, V]) descend(ctx context.Context, key K) ([]step[K, V], error) {
	var path []step[K, V]
	current := p.top.nodule
	for {
		index := current.route(key)
		path = append(path, step[K, V]{nodule: current, index: index})
		child := current.Inlets[index]
		if err := p.load(ctx, current, child); err != nil {
			return nil, err
		}
		if current.Height == 0 {
			return path, nil
		}
		current = child.nodule
	}
}

// balance refreshes the inlet at index of n from its child, then
// splits, merges or drops the child as its footprint requires.
func (p *Porcupine[K, V]) balance(ctx context.Context, n *nodule[K, V], index int) error {
	child := n.Inlets[index]
	if err := p.load(ctx, n, child); err != nil {
		return err
	}
	p.refresh(n, child)
	child.dirty = true

	switch {
	case p.childEmpty(n, child):
		p.drop(n, index)
		return nil
	case child.Footprint > p.layout.Extent:
		return p.split(ctx, n, index)
	case child.Footprint < p.layout.underflow() && len(n.Inlets) > 1:
		return p.absorb(ctx, n, index)
	}
	return nil
}

// split cuts the child at index until every piece fits the extent or
// cannot be cut further.
func (p *Porcupine[K, V]) split(ctx context.Context, n *nodule[K, V], index int) error {
	current := index
	for n.Inlets[current].Footprint > p.layout.Extent {
		right, err := p.cut(ctx, n, n.Inlets[current], p.layout.splitLimit())
		if err != nil {
			return err
		}
		if right == nil {
			return nil
		}
		n.Inlets = slices.Insert(n.Inlets, current+1, right)
		current++
	}
	return nil
}

// absorb merges the underflowing child at index with a neighbour, or
// rebalances the two when they would not fit one extent together.
func (p *Porcupine[K, V]) absorb(ctx context.Context, n *nodule[K, V], index int) error {
	leftIndex, rightIndex := index, index+1
	if rightIndex >= len(n.Inlets) {
		leftIndex, rightIndex = index-1, index
	}
	left, right := n.Inlets[leftIndex], n.Inlets[rightIndex]
	if err := p.load(ctx, n, left); err != nil {
		return err
	}
	if err := p.load(ctx, n, right); err != nil {
		return err
	}
	combined := left.Footprint + right.Footprint

	if err := p.merge(n, left, right); err != nil {
		return err
	}
	p.refresh(n, left)
	left.dirty = true

	if combined <= p.layout.Extent {
		p.drop(n, rightIndex)
		return nil
	}

	moved, err := p.cut(ctx, n, left, combined/2)
	if err != nil {
		return err
	}
	if moved == nil {
		p.drop(n, rightIndex)
		return nil
	}
	// The right inlet keeps its old address so that sealing it wipes
	// the superseded block.
	right.nodule, right.value = moved.nodule, moved.value
	right.dirty = true
	p.refresh(n, right)
	return nil
}

// cut moves the tail of child past limit bytes into a new inlet. It
// returns nil when the child cannot be cut.
func (p *Porcupine[K, V]) cut(ctx context.Context, n *nodule[K, V], child *inlet[K, V], limit int) (*inlet[K, V], error) {
	if err := p.load(ctx, n, child); err != nil {
		return nil, err
	}
	piece := &inlet[K, V]{loaded: true, dirty: true}

	if n.Height == 0 {
		right, err := child.value.Split(limit)
		if err != nil {
			return nil, fmt.Errorf("porcupine: splitting %s value: %w", p.label, err)
		}
		if right.Empty() {
			return nil, nil
		}
		piece.value = right
	} else {
		inlets := child.nodule.Inlets
		if len(inlets) < 2 {
			return nil, nil
		}
		position, total := 0, noduleOverhead
		for position < len(inlets) && total+inletFootprint(inlets[position]) <= limit {
			total += inletFootprint(inlets[position])
			position++
		}
		position = min(max(position, 1), len(inlets)-1)
		piece.nodule = &nodule[K, V]{
			Height: child.nodule.Height,
			Inlets: slices.Clone(inlets[position:]),
		}
		child.nodule.Inlets = slices.Clip(inlets[:position])
	}

	child.dirty = true
	p.refresh(n, child)
	p.refresh(n, piece)
	return piece, nil
}

func (p *Porcupine[K, V]) merge(n *nodule[K, V], left, right *inlet[K, V]) error {
	if n.Height == 0 {
		if err := left.value.Merge(right.value); err != nil {
			return fmt.Errorf("porcupine: merging %s values: %w", p.label, err)
		}
		return nil
	}
	left.nodule.Inlets = append(left.nodule.Inlets, right.nodule.Inlets...)
	return nil
}

// drop removes the inlet at index, scheduling its block for wiping.
func (p *Porcupine[K, V]) drop(n *nodule[K, V], index int) {
	p.abandon(n.Inlets[index])
	n.Inlets = slices.Delete(n.Inlets, index, index+1)
}

// abandon schedules the sealed block of an inlet for wiping.
func (p *Porcupine[K, V]) abandon(child *inlet[K, V]) {
	if !child.Address.IsNull() {
		p.obsolete = append(p.obsolete, child.Address)
		child.Address = proton.Null
	}
}

// grow turns the single value into a tree.
func (p *Porcupine[K, V]) grow(ctx context.Context) error {
	quill := &nodule[K, V]{
		Height: 0,
		Inlets: []*inlet[K, V]{{value: p.top.value, loaded: true, dirty: true}},
	}
	p.refresh(quill, quill.Inlets[0])
	p.abandon(p.top)
	p.top = &inlet[K, V]{nodule: quill, loaded: true, dirty: true}
	p.tree = true
	if err := p.split(ctx, quill, 0); err != nil {
		return err
	}
	p.refreshTop()
	return p.reshape(ctx)
}

// reshape restores the root invariants after an update: the root grows
// when it overflows, loses a level when it has a single child, and the
// tree collapses into a value when everything fits one extent.
func (p *Porcupine[K, V]) reshape(ctx context.Context) error {
	for {
		root := p.top.nodule
		switch {
		case len(root.Inlets) == 0:
			p.abandon(p.top)
			p.top = &inlet[K, V]{value: p.fresh(), loaded: true, dirty: true}
			p.tree = false
			p.refreshTop()
			return nil

		case root.footprint() > p.layout.Extent && len(root.Inlets) > 1:
			if root.Height+1 >= maximumHeight {
				return fmt.Errorf("porcupine: %s tree exceeds %d levels", p.label, maximumHeight)
			}
			previous := p.top
			previous.dirty = true
			grown := &nodule[K, V]{Height: root.Height + 1, Inlets: []*inlet[K, V]{previous}}
			p.top = &inlet[K, V]{nodule: grown, loaded: true, dirty: true}
			if err := p.split(ctx, grown, 0); err != nil {
				return err
			}
			p.refreshTop()

		case root.Height > 0 && len(root.Inlets) == 1:
			child := root.Inlets[0]
			if err := p.load(ctx, root, child); err != nil {
				return err
			}
			p.abandon(p.top)
			p.top = child
			p.refreshTop()

		case root.Height == 0 && p.collapsible(root):
			merged := root.Inlets[0]
			if err := p.load(ctx, root, merged); err != nil {
				return err
			}
			for _, child := range root.Inlets[1:] {
				if err := p.load(ctx, root, child); err != nil {
					return err
				}
				if err := merged.value.Merge(child.value); err != nil {
					return fmt.Errorf("porcupine: collapsing %s tree: %w", p.label, err)
				}
			}
			for _, child := range root.Inlets {
				p.abandon(child)
			}
			p.abandon(p.top)
			p.top = &inlet[K, V]{value: merged.value, loaded: true, dirty: true}
			p.tree = false
			p.refreshTop()
			return nil

		default:
			return nil
		}
	}
}

func (p *Porcupine[K, V]) collapsible(quill *nodule[K, V]) bool {
	total := 0
	for _, child := range quill.Inlets {
		total += child.Footprint
	}
	return total <= p.layout.Extent
}

func (p *Porcupine[K, V]) childEmpty(n *nodule[K, V], child *inlet[K, V]) bool {
	if n.Height == 0 {
		return child.value.Empty()
	}
	return len(child.nodule.Inlets) == 0
}

// refresh recomputes an inlet's fence key, capacity and footprint from
// its resident child.
func (p *Porcupine[K, V]) refresh(n *nodule[K, V], child *inlet[K, V]) {
	if n.Height == 0 {
		child.Key = child.value.Mayor()
		child.Capacity = child.value.Capacity()
		child.Footprint = child.value.Footprint()
		return
	}
	child.Key = child.nodule.mayor()
	child.Capacity = child.nodule.capacity()
	child.Footprint = child.nodule.footprint()
}

func (p *Porcupine[K, V]) refreshTop() {
	if p.tree {
		p.top.Key = p.top.nodule.mayor()
		p.top.Capacity = p.top.nodule.capacity()
		p.top.Footprint = p.top.nodule.footprint()
		return
	}
	p.top.Key = p.top.value.Mayor()
	p.top.Capacity = p.top.value.Capacity()
	p.top.Footprint = p.top.value.Footprint()
}

// sealInlet seals a dirty subtree bottom-up. value tells whether the
// inlet refers to a value rather than a nodule.
func (p *Porcupine[K, V]) sealInlet(child *inlet[K, V], value bool) error {
	if !child.dirty {
		return nil
	}
	var target any = child.value
	if !value {
		for _, grandchild := range child.nodule.Inlets {
			if err := p.sealInlet(grandchild, child.nodule.Height == 0); err != nil {
				return err
			}
		}
		target = child.nodule
	}

	image, err := codec.Marshal(target)
	if err != nil {
		return fmt.Errorf("porcupine: encoding %s node: %w", p.label, err)
	}
	contents, err := proton.Pack(image, p.layout.Compression, p.secret, p.label)
	if err != nil {
		return err
	}
	p.abandon(child)
	p.nest.Push(contents)
	child.Address = contents.Address()
	child.dirty = false
	return nil
}

// touchAll loads every node and marks it dirty so the next seal
// re-encrypts the whole collection.
func (p *Porcupine[K, V]) touchAll(ctx context.Context) error {
	p.sealed = false
	p.top.dirty = true
	if !p.tree {
		return nil
	}
	return p.walk(ctx, p.top.nodule, nil, func(_ *nodule[K, V], child *inlet[K, V], _ []int) error {
		child.dirty = true
		return nil
	})
}

// walk visits every inlet below n in key order, loading children
// first. visit runs on an inlet before its subtree.
func (p *Porcupine[K, V]) walk(ctx context.Context, n *nodule[K, V], path []int, visit func(*nodule[K, V], *inlet[K, V], []int) error) error {
	for index, child := range n.Inlets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.load(ctx, n, child); err != nil {
			return err
		}
		here := append(slices.Clip(path), index)
		if err := visit(n, child, here); err != nil {
			return err
		}
		if n.Height > 0 {
			if err := p.walk(ctx, child.nodule, here, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// load makes an inlet's child resident.
func (p *Porcupine[K, V]) load(ctx context.Context, n *nodule[K, V], child *inlet[K, V]) error {
	if child.loaded {
		return nil
	}
	if n.Height == 0 {
		image, err := p.fetch(ctx, child.Address)
		if err != nil {
			return err
		}
		value, err := p.decodeValue(image)
		if err != nil {
			return err
		}
		child.value = value
	} else {
		loaded, err := p.fetchNodule(ctx, child.Address, n.Height-1)
		if err != nil {
			return err
		}
		child.nodule = loaded
	}
	child.loaded = true
	return nil
}

// fetch loads and opens a sealed block. The block is released as soon
// as it is decrypted.
func (p *Porcupine[K, V]) fetch(ctx context.Context, address proton.Address) ([]byte, error) {
	if address.IsNull() {
		return nil, corrupt("%s node without an address", p.label)
	}
	contents, err := p.nest.Load(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("porcupine: loading %s node %s: %w", p.label, address, err)
	}
	defer p.nest.Unload(address)

	image, err := proton.Unpack(contents, p.secret, p.label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return image, nil
}

// fetchNodule loads a nodule and checks its shape. height is the
// expected height, or -1 for a root.
func (p *Porcupine[K, V]) fetchNodule(ctx context.Context, address proton.Address, height int) (*nodule[K, V], error) {
	image, err := p.fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	loaded := &nodule[K, V]{}
	if err := codec.Unmarshal(image, loaded); err != nil {
		return nil, corrupt("decoding %s nodule %s: %v", p.label, address, err)
	}
	switch {
	case loaded.Height < 0 || loaded.Height >= maximumHeight:
		return nil, corrupt("%s nodule %s has height %d", p.label, address, loaded.Height)
	case height >= 0 && loaded.Height != height:
		return nil, corrupt("%s nodule %s has height %d, want %d", p.label, address, loaded.Height, height)
	case len(loaded.Inlets) == 0:
		return nil, corrupt("%s nodule %s is empty", p.label, address)
	}
	for index, child := range loaded.Inlets {
		if child == nil || child.Address.IsNull() {
			return nil, corrupt("%s nodule %s inlet %d has no address", p.label, address, index)
		}
	}
	return loaded, nil
}

func (p *Porcupine[K, V]) decodeValue(image []byte) (V, error) {
	value := p.fresh()
	if err := codec.Unmarshal(image, value); err != nil {
		var zero V
		return zero, corrupt("decoding %s value: %v", p.label, err)
	}
	return value, nil
}
