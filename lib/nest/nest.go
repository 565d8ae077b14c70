// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nest

import (
	"context"
	"errors"

	"github.com/bureau-foundation/nucleus/lib/proton"
)

// ErrNotFound reports a block the nest cannot produce.
var ErrNotFound = errors.New("nest: block not found")

// Nest loads sealed nodes and collects the block changes of seals.
type Nest interface {
	// Load returns the block at address, fetching it if needed. The
	// block stays pinned until the matching Unload.
	Load(ctx context.Context, address proton.Address) (*proton.Contents, error)

	// Unload releases one Load of address.
	Unload(address proton.Address)

	// Push records a new block.
	Push(contents *proton.Contents)

	// Wipe records that the block at address is no longer referenced.
	Wipe(address proton.Address)

	// Transcribe returns the pending actions in order and clears them.
	Transcribe() proton.Transcript
}

// Source is where a Cache fetches blocks it does not hold.
type Source interface {
	FetchContents(ctx context.Context, address proton.Address) (*proton.Contents, error)
}
