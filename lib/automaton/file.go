// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package automaton

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
)

// writableData checks write access on an object of genre and returns
// its data collection with the collection secret issued.
func (c *Context) writableData(ctx context.Context, genre neutron.Genre) (*porcupine.Porcupine[uint64, *neutron.Data], error) {
	if err := c.requireGenre(genre); err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, neutron.PermissionsWrite); err != nil {
		return nil, err
	}
	data, err := c.dataCollection(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.writeSecret(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Context) readableData(ctx context.Context, genre neutron.Genre) (*porcupine.Porcupine[uint64, *neutron.Data], error) {
	if err := c.requireGenre(genre); err != nil {
		return nil, err
	}
	if err := c.authorize(ctx, neutron.PermissionsRead); err != nil {
		return nil, err
	}
	return c.dataCollection(ctx)
}

// Write stores p at offset. Writing past the end fills the gap with
// zeros.
func (c *Context) Write(ctx context.Context, offset uint64, p []byte) error {
	data, err := c.writableData(ctx, neutron.GenreFile)
	if err != nil {
		return err
	}
	if err := c.write(ctx, data, offset, p); err != nil {
		return err
	}
	c.changed.contents = true
	return nil
}

// write overwrites or appends node by node. A node is addressed by its
// offset, which stays its routing key while it grows.
func (c *Context) write(ctx context.Context, data *porcupine.Porcupine[uint64, *neutron.Data], offset uint64, p []byte) error {
	size := data.Size()
	if offset > size {
		p = append(make([]byte, offset-size), p...)
		offset = size
	}
	for len(p) > 0 {
		seek := offset
		if seek >= size && size > 0 {
			seek = size - 1
		}
		door, _, err := data.Seek(ctx, seek)
		if err != nil {
			return err
		}
		node := door.Value()
		if size == 0 {
			node.Offset = 0
		}
		key := node.Offset
		end := node.Offset + node.Capacity()

		take := uint64(len(p))
		if end < size {
			take = min(take, end-offset)
		} else if offset >= end {
			take = min(take, uint64(c.layout.Extent))
		}
		err = node.WriteAt(offset-node.Offset, p[:take])
		door.Close()
		if err != nil {
			return err
		}
		if err := data.Update(ctx, key); err != nil {
			return err
		}
		offset += take
		p = p[take:]
		size = data.Size()
	}
	return nil
}

// Read returns up to size bytes from offset. It returns fewer at the
// end of the file and none past it.
func (c *Context) Read(ctx context.Context, offset, size uint64) ([]byte, error) {
	data, err := c.readableData(ctx, neutron.GenreFile)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, data, offset, size)
}

func (c *Context) read(ctx context.Context, data *porcupine.Porcupine[uint64, *neutron.Data], offset, size uint64) ([]byte, error) {
	total := data.Size()
	if offset >= total {
		return nil, nil
	}
	size = min(size, total-offset)
	buffer := make([]byte, size)
	for filled := uint64(0); filled < size; {
		door, _, err := data.Seek(ctx, offset+filled)
		if err != nil {
			return nil, err
		}
		node := door.Value()
		copied := node.ReadAt(buffer[filled:], offset+filled-node.Offset)
		door.Close()
		if copied == 0 {
			return nil, fmt.Errorf("automaton: no data at %d of %d bytes", offset+filled, total)
		}
		filled += uint64(copied)
	}
	return buffer, nil
}

// Adjust sets the file length, zero-filling when it grows.
func (c *Context) Adjust(ctx context.Context, size uint64) error {
	data, err := c.writableData(ctx, neutron.GenreFile)
	if err != nil {
		return err
	}
	if err := c.adjust(ctx, data, size); err != nil {
		return err
	}
	c.changed.contents = true
	return nil
}

func (c *Context) adjust(ctx context.Context, data *porcupine.Porcupine[uint64, *neutron.Data], size uint64) error {
	if current := data.Size(); size >= current {
		return c.write(ctx, data, size, nil)
	}
	for data.Size() > size {
		door, _, err := data.Seek(ctx, data.Size()-1)
		if err != nil {
			return err
		}
		node := door.Value()
		key := node.Offset
		if size > node.Offset {
			node.Truncate(size - node.Offset)
		} else {
			node.Truncate(0)
		}
		door.Close()
		if err := data.Update(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Bind points a link at target, replacing what it held.
func (c *Context) Bind(ctx context.Context, target string) error {
	if target == "" {
		return fmt.Errorf("automaton: empty link target")
	}
	data, err := c.writableData(ctx, neutron.GenreLink)
	if err != nil {
		return err
	}
	if err := c.adjust(ctx, data, 0); err != nil {
		return err
	}
	if err := c.write(ctx, data, 0, []byte(target)); err != nil {
		return err
	}
	c.changed.contents = true
	return nil
}

// Resolve returns the target of a link.
func (c *Context) Resolve(ctx context.Context) (string, error) {
	data, err := c.readableData(ctx, neutron.GenreLink)
	if err != nil {
		return "", err
	}
	target, err := c.read(ctx, data, 0, data.Size())
	if err != nil {
		return "", err
	}
	return string(target), nil
}
