// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package depot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bureau-foundation/nucleus/lib/codec"
	"github.com/bureau-foundation/nucleus/lib/nest"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// envelope is how a mutable block is stored.
type envelope struct {
	Revision uint64 `cbor:"1,keyasint"`
	Data     []byte `cbor:"2,keyasint"`
}

// BlocksConfig holds the parameters of a Blocks.
type BlocksConfig struct {
	Store Store

	// History keeps every replaced revision of a mutable block.
	History bool

	Logger *slog.Logger
}

// Blocks stores proton blocks in a Store.
type Blocks struct {
	store   Store
	history bool
	logger  *slog.Logger

	// mu serializes the revision check and write of mutable blocks.
	mu sync.Mutex
}

var _ nest.Source = (*Blocks)(nil)

// NewBlocks returns a Blocks over config.Store.
func NewBlocks(config BlocksConfig) *Blocks {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Blocks{store: config.Store, history: config.History, logger: logger}
}

// historyKey names the copy of a mutable block kept at revision.
func historyKey(address proton.Address, revision uint64) string {
	return address.Key() + "@" + strconv.FormatUint(revision, 10)
}

func requireFamily(address proton.Address, family proton.Family) error {
	if address.Family != family {
		return fmt.Errorf("depot: %s is not a %s block", address, family)
	}
	return nil
}

// FetchContents returns the immutable block at address, checking that
// its content hashes to it. A missing block matches both ErrNotFound
// and nest.ErrNotFound.
func (b *Blocks) FetchContents(ctx context.Context, address proton.Address) (*proton.Contents, error) {
	if err := requireFamily(address, proton.FamilyImmutable); err != nil {
		return nil, err
	}
	data, err := b.store.Load(ctx, address.Key())
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", nest.ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return proton.LoadContents(address, data)
}

// PutContents stores an immutable block unless it is already present.
func (b *Blocks) PutContents(ctx context.Context, contents *proton.Contents) error {
	key := contents.Address().Key()
	exists, err := b.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return b.store.Store(ctx, key, contents.Data())
}

// PutMutable stores data as the mutable block at address. revision
// must exceed the stored one, if any.
func (b *Blocks) PutMutable(ctx context.Context, address proton.Address, revision uint64, data []byte) error {
	if err := requireFamily(address, proton.FamilyMutable); err != nil {
		return err
	}
	encoded, err := codec.Marshal(envelope{Revision: revision, Data: data})
	if err != nil {
		return fmt.Errorf("depot: encoding %s: %w", address, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := address.Key()
	previous, err := b.store.Load(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	default:
		var stored envelope
		if err := codec.Unmarshal(previous, &stored); err != nil {
			return fmt.Errorf("depot: decoding stored %s: %w", address, err)
		}
		if revision <= stored.Revision {
			return fmt.Errorf("%w: %s at %d, stored at %d", ErrStaleRevision, address, revision, stored.Revision)
		}
		if b.history {
			if err := b.store.Store(ctx, historyKey(address, stored.Revision), previous); err != nil {
				return fmt.Errorf("depot: keeping revision %d of %s: %w", stored.Revision, address, err)
			}
		}
	}
	if err := b.store.Store(ctx, key, encoded); err != nil {
		return err
	}
	b.logger.Debug("mutable block stored", "address", address.String(), "revision", revision)
	return nil
}

// FetchMutable returns the current revision and data of a mutable
// block.
func (b *Blocks) FetchMutable(ctx context.Context, address proton.Address) (uint64, []byte, error) {
	if err := requireFamily(address, proton.FamilyMutable); err != nil {
		return 0, nil, err
	}
	return b.fetchEnvelope(ctx, address, address.Key())
}

// FetchRevision returns a revision of a mutable block kept as history,
// or the current one if revision is current.
func (b *Blocks) FetchRevision(ctx context.Context, address proton.Address, revision uint64) ([]byte, error) {
	current, data, err := b.FetchMutable(ctx, address)
	if err != nil {
		return nil, err
	}
	if current == revision {
		return data, nil
	}
	stored, data, err := b.fetchEnvelope(ctx, address, historyKey(address, revision))
	if err != nil {
		return nil, err
	}
	if stored != revision {
		return nil, fmt.Errorf("depot: history of %s at %d holds revision %d", address, revision, stored)
	}
	return data, nil
}

func (b *Blocks) fetchEnvelope(ctx context.Context, address proton.Address, key string) (uint64, []byte, error) {
	encoded, err := b.store.Load(ctx, key)
	if err != nil {
		return 0, nil, err
	}
	var stored envelope
	if err := codec.Unmarshal(encoded, &stored); err != nil {
		return 0, nil, fmt.Errorf("depot: decoding %s: %w", address, err)
	}
	return stored.Revision, stored.Data, nil
}

// Erase removes the block at address. History is left in place.
func (b *Blocks) Erase(ctx context.Context, address proton.Address) error {
	return b.store.Erase(ctx, address.Key())
}

// Apply writes the pushes of transcript, then its wipes. A wipe of a
// block the same transcript pushes again is skipped. With history on
// nothing is wiped, so every kept revision stays readable.
func (b *Blocks) Apply(ctx context.Context, transcript proton.Transcript) error {
	if err := b.push(ctx, transcript); err != nil {
		return err
	}
	return b.wipe(ctx, transcript)
}

// Commit persists a sealed mutable block with the transcript of the
// nest it was sealed through: the pushes, then the block at revision,
// then the wipes. When the block is rejected (a stale revision, a
// failed write) nothing is wiped, so the revision still stored keeps
// every block it references. Pushed blocks are left for a retry.
func (b *Blocks) Commit(ctx context.Context, transcript proton.Transcript, address proton.Address, revision uint64, data []byte) error {
	if err := b.push(ctx, transcript); err != nil {
		return err
	}
	if err := b.PutMutable(ctx, address, revision, data); err != nil {
		if wipes := transcript.Wipes(); wipes > 0 {
			b.logger.Debug("wipes dropped after rejected block", "address", address.String(), "wipes", wipes)
		}
		return err
	}
	return b.wipe(ctx, transcript)
}

func (b *Blocks) push(ctx context.Context, transcript proton.Transcript) error {
	for index, action := range transcript {
		switch action.Operation {
		case proton.OperationPush:
			if action.Contents == nil {
				return fmt.Errorf("depot: action %d pushes %s without contents", index, action.Address)
			}
			if err := b.PutContents(ctx, action.Contents); err != nil {
				return fmt.Errorf("depot: action %d: %w", index, err)
			}
		case proton.OperationWipe:
		default:
			return fmt.Errorf("depot: action %d has unknown operation %s", index, action.Operation)
		}
	}
	return nil
}

func (b *Blocks) wipe(ctx context.Context, transcript proton.Transcript) error {
	wipes := transcript.Wipes()
	if wipes == 0 {
		return nil
	}
	if b.history {
		b.logger.Debug("superseded blocks kept for history", "wipes", wipes)
		return nil
	}
	pushed := make(map[proton.Address]bool, transcript.Pushes())
	for _, action := range transcript {
		if action.Operation == proton.OperationPush {
			pushed[action.Address] = true
		}
	}
	for index, action := range transcript {
		if action.Operation != proton.OperationWipe || pushed[action.Address] {
			continue
		}
		err := b.Erase(ctx, action.Address)
		if errors.Is(err, ErrNotFound) {
			b.logger.Debug("wiped block already gone", "address", action.Address.String())
			continue
		}
		if err != nil {
			return fmt.Errorf("depot: action %d: %w", index, err)
		}
	}
	b.logger.Debug("transcript applied", "pushes", transcript.Pushes(), "wipes", wipes)
	return nil
}
