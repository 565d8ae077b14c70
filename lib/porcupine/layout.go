// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import (
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/proton"
)

const (
	// DefaultExtent is the target maximum footprint of a node, in
	// bytes.
	DefaultExtent = 1024

	// DefaultContention is the fraction of the extent a split keeps
	// in the left node.
	DefaultContention = 0.5

	// DefaultBalancing is the fraction of the extent below which an
	// updated node is merged or rebalanced with a sibling.
	DefaultBalancing = 0.2
)

// Layout holds the sizing parameters of a collection.
type Layout struct {
	Extent      int
	Contention  float64
	Balancing   float64
	Compression proton.Compression
}

// DefaultLayout returns the default parameters without compression.
func DefaultLayout() Layout {
	return Layout{
		Extent:      DefaultExtent,
		Contention:  DefaultContention,
		Balancing:   DefaultBalancing,
		Compression: proton.CompressionNone,
	}
}

// Validate checks that the parameters describe a workable tree.
func (l Layout) Validate() error {
	if l.Extent < 128 {
		return fmt.Errorf("porcupine: extent %d is below the 128-byte minimum", l.Extent)
	}
	if l.Contention <= 0 || l.Contention >= 1 {
		return fmt.Errorf("porcupine: contention %g must be in (0, 1)", l.Contention)
	}
	if l.Balancing < 0 || l.Balancing >= l.Contention {
		return fmt.Errorf("porcupine: balancing %g must be in [0, contention)", l.Balancing)
	}
	return nil
}

// splitLimit is the footprint a split keeps on the left.
func (l Layout) splitLimit() int {
	return int(float64(l.Extent) * l.Contention)
}

// underflow is the footprint below which a node is merged.
func (l Layout) underflow() int {
	return int(float64(l.Extent) * l.Balancing)
}
