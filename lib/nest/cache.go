// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nest

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/nucleus/lib/proton"
)

// DefaultBudget is the number of bytes of released blocks a Cache keeps
// when Config.Budget is zero.
const DefaultBudget = 64 << 20

// Config holds the parameters of a Cache.
type Config struct {
	// Source fetches blocks the cache does not hold. Nil means the
	// cache only knows what was pushed into it.
	Source Source

	// Budget bounds the bytes of released blocks kept resident.
	// Pinned and pending blocks do not count against it.
	Budget int

	// Logger receives cache events. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Statistics counts cache activity since creation.
type Statistics struct {
	Loads     int
	Unloads   int
	Hits      int
	Misses    int
	Evictions int
	Pinned    int
	Resident  int
	Bytes     int
}

// Cache implements Nest.
type Cache struct {
	source Source
	budget int
	logger *slog.Logger

	mu       sync.Mutex
	entries  map[proton.Address]*entry
	released *list.List
	bytes    int
	pending  map[proton.Address]*proton.Contents
	actions  proton.Transcript
	stats    Statistics
}

type entry struct {
	contents   *proton.Contents
	references int
	element    *list.Element
}

var _ Nest = (*Cache)(nil)

// New creates a Cache.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Cache{
		source:   cfg.Source,
		budget:   budget,
		logger:   logger,
		entries:  make(map[proton.Address]*entry),
		released: list.New(),
		pending:  make(map[proton.Address]*proton.Contents),
	}
}

// Load implements Nest. The cache lock is not held while fetching from
// the source.
func (c *Cache) Load(ctx context.Context, address proton.Address) (*proton.Contents, error) {
	c.mu.Lock()
	if contents := c.pin(address); contents != nil {
		c.stats.Hits++
		c.mu.Unlock()
		return contents, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	if c.source == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	contents, err := c.source.FetchContents(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("nest: loading %s: %w", address, err)
	}
	if contents.Address() != address {
		return nil, fmt.Errorf("nest: source returned %s for %s", contents.Address(), address)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded the same block meanwhile.
	if existing := c.pin(address); existing != nil {
		return existing, nil
	}
	c.entries[address] = &entry{contents: contents, references: 1}
	c.bytes += contents.Footprint()
	c.stats.Loads++
	c.logger.Debug("block loaded", "address", address.String(), "bytes", contents.Footprint())
	return contents, nil
}

// pin takes a reference on a held block. Caller holds mu.
func (c *Cache) pin(address proton.Address) *proton.Contents {
	if contents, ok := c.pending[address]; ok {
		c.stats.Loads++
		c.pinEntry(address, contents)
		return contents
	}
	current, ok := c.entries[address]
	if !ok {
		return nil
	}
	if current.element != nil {
		c.released.Remove(current.element)
		current.element = nil
	}
	current.references++
	c.stats.Loads++
	return current.contents
}

// pinEntry tracks references to pending blocks so Unload stays
// balanced. Caller holds mu.
func (c *Cache) pinEntry(address proton.Address, contents *proton.Contents) {
	current, ok := c.entries[address]
	if !ok {
		current = &entry{contents: contents}
		c.entries[address] = current
		c.bytes += contents.Footprint()
	}
	if current.element != nil {
		c.released.Remove(current.element)
		current.element = nil
	}
	current.references++
}

// Unload implements Nest.
func (c *Cache) Unload(address proton.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[address]
	if !ok || current.references == 0 {
		c.logger.Warn("unload without matching load", "address", address.String())
		return
	}
	current.references--
	c.stats.Unloads++
	if current.references > 0 {
		return
	}
	current.element = c.released.PushFront(address)
	c.evict()
}

// evict drops least recently released blocks until the budget holds.
// Pending blocks are kept. Caller holds mu.
func (c *Cache) evict() {
	for element := c.released.Back(); element != nil && c.bytes > c.budget; {
		previous := element.Prev()
		address := element.Value.(proton.Address)
		if _, isPending := c.pending[address]; !isPending {
			current := c.entries[address]
			c.released.Remove(element)
			delete(c.entries, address)
			c.bytes -= current.contents.Footprint()
			c.stats.Evictions++
		}
		element = previous
	}
}

// Push implements Nest.
func (c *Cache) Push(contents *proton.Contents) {
	c.mu.Lock()
	defer c.mu.Unlock()

	address := contents.Address()
	c.pending[address] = contents
	c.actions = append(c.actions, proton.Action{
		Operation: proton.OperationPush,
		Address:   address,
		Contents:  contents,
	})
}

// Wipe implements Nest. Wiping a block that is still pending cancels
// its push instead of recording a wipe.
func (c *Cache) Wipe(address proton.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, isPending := c.pending[address]; isPending {
		delete(c.pending, address)
		for index := len(c.actions) - 1; index >= 0; index-- {
			if c.actions[index].Operation == proton.OperationPush && c.actions[index].Address == address {
				c.actions = append(c.actions[:index], c.actions[index+1:]...)
				break
			}
		}
		c.forget(address)
		return
	}
	c.forget(address)
	c.actions = append(c.actions, proton.Action{
		Operation: proton.OperationWipe,
		Address:   address,
	})
}

// forget drops a released block from the cache. Caller holds mu.
func (c *Cache) forget(address proton.Address) {
	current, ok := c.entries[address]
	if !ok || current.references > 0 {
		return
	}
	if current.element != nil {
		c.released.Remove(current.element)
	}
	delete(c.entries, address)
	c.bytes -= current.contents.Footprint()
}

// Transcribe implements Nest. Pushed blocks stay cached as released
// entries so they remain loadable while the transcript is applied.
func (c *Cache) Transcribe() proton.Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()

	transcript := c.actions
	c.actions = nil
	for address, contents := range c.pending {
		if _, ok := c.entries[address]; !ok {
			c.entries[address] = &entry{contents: contents}
			c.bytes += contents.Footprint()
			c.entries[address].element = c.released.PushFront(address)
		}
	}
	clear(c.pending)
	c.evict()

	c.logger.Debug("transcript taken", "pushes", transcript.Pushes(), "wipes", transcript.Wipes())
	return transcript
}

// Statistics returns a snapshot of the cache counters.
func (c *Cache) Statistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Resident = len(c.entries)
	stats.Bytes = c.bytes
	for _, current := range c.entries {
		if current.references > 0 {
			stats.Pinned++
		}
	}
	return stats
}
