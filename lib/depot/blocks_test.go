// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package depot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/nest"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

func mutableAddress(t *testing.T) proton.Address {
	t.Helper()
	keys, err := cryptography.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	salt, err := proton.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	return proton.MutableAddress(proton.ComponentObject, keys.Public(), salt)
}

func TestContents(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	blocks := NewBlocks(BlocksConfig{Store: memory})

	contents := proton.NewContents([]byte("sealed node"))
	if err := blocks.PutContents(ctx, contents); err != nil {
		t.Fatalf("PutContents: %v", err)
	}
	if err := blocks.PutContents(ctx, contents); err != nil {
		t.Fatalf("PutContents of a present block: %v", err)
	}
	fetched, err := blocks.FetchContents(ctx, contents.Address())
	if err != nil {
		t.Fatalf("FetchContents: %v", err)
	}
	if string(fetched.Data()) != "sealed node" {
		t.Errorf("fetched %q", fetched.Data())
	}

	// A block whose stored bytes no longer hash to its address.
	if err := memory.Store(ctx, contents.Address().Key(), []byte("tampered")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := blocks.FetchContents(ctx, contents.Address()); !errors.Is(err, proton.ErrAddressMismatch) {
		t.Errorf("FetchContents of tampered bytes: got %v, want ErrAddressMismatch", err)
	}

	missing := proton.NewContents([]byte("never stored")).Address()
	_, err = blocks.FetchContents(ctx, missing)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, nest.ErrNotFound) {
		t.Errorf("FetchContents of a missing block: got %v, want both not-found errors", err)
	}
	if _, err := blocks.FetchContents(ctx, mutableAddress(t)); err == nil {
		t.Error("FetchContents accepted a mutable address")
	}
}

func TestMutableRevisions(t *testing.T) {
	ctx := context.Background()
	blocks := NewBlocks(BlocksConfig{Store: NewMemory()})
	address := mutableAddress(t)

	if _, _, err := blocks.FetchMutable(ctx, address); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchMutable before any store: got %v, want ErrNotFound", err)
	}
	if err := blocks.PutMutable(ctx, address, 2, []byte("two")); err != nil {
		t.Fatalf("PutMutable: %v", err)
	}
	for _, revision := range []uint64{1, 2} {
		if err := blocks.PutMutable(ctx, address, revision, []byte("stale")); !errors.Is(err, ErrStaleRevision) {
			t.Errorf("PutMutable at %d: got %v, want ErrStaleRevision", revision, err)
		}
	}
	if err := blocks.PutMutable(ctx, address, 5, []byte("five")); err != nil {
		t.Fatalf("PutMutable: %v", err)
	}
	revision, data, err := blocks.FetchMutable(ctx, address)
	if err != nil || revision != 5 || string(data) != "five" {
		t.Fatalf("FetchMutable = %d, %q, %v; want 5, five", revision, data, err)
	}
	if _, err := blocks.FetchRevision(ctx, address, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchRevision without history: got %v, want ErrNotFound", err)
	}
	if err := blocks.PutMutable(ctx, proton.NewContents(nil).Address(), 1, nil); err == nil {
		t.Error("PutMutable accepted an immutable address")
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	blocks := NewBlocks(BlocksConfig{Store: NewMemory(), History: true})
	address := mutableAddress(t)

	for revision := uint64(1); revision <= 4; revision++ {
		if err := blocks.PutMutable(ctx, address, revision, fmt.Appendf(nil, "revision %d", revision)); err != nil {
			t.Fatalf("PutMutable(%d): %v", revision, err)
		}
	}
	for revision := uint64(1); revision <= 4; revision++ {
		data, err := blocks.FetchRevision(ctx, address, revision)
		if err != nil {
			t.Fatalf("FetchRevision(%d): %v", revision, err)
		}
		if want := fmt.Sprintf("revision %d", revision); string(data) != want {
			t.Errorf("FetchRevision(%d) = %q, want %q", revision, data, want)
		}
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	blocks := NewBlocks(BlocksConfig{Store: memory})

	first := proton.NewContents([]byte("first"))
	second := proton.NewContents([]byte("second"))
	if err := blocks.PutContents(ctx, first); err != nil {
		t.Fatalf("PutContents: %v", err)
	}
	transcript := proton.Transcript{
		{Operation: proton.OperationPush, Address: second.Address(), Contents: second},
		{Operation: proton.OperationWipe, Address: first.Address()},
	}
	for round := range 2 {
		if err := blocks.Apply(ctx, transcript); err != nil {
			t.Fatalf("round %d: Apply: %v", round, err)
		}
	}
	if memory.Len() != 1 {
		t.Errorf("%d keys after apply, want 1", memory.Len())
	}
	if _, err := blocks.FetchContents(ctx, second.Address()); err != nil {
		t.Errorf("pushed block: %v", err)
	}

	broken := proton.Transcript{{Operation: proton.OperationPush, Address: first.Address()}}
	if err := blocks.Apply(ctx, broken); err == nil {
		t.Error("Apply accepted a push without contents")
	}
}

func TestApplyRepushedBlock(t *testing.T) {
	ctx := context.Background()
	blocks := NewBlocks(BlocksConfig{Store: NewMemory()})

	node := proton.NewContents([]byte("node"))
	if err := blocks.PutContents(ctx, node); err != nil {
		t.Fatalf("PutContents: %v", err)
	}
	// A node wiped and then recreated with identical bytes.
	transcript := proton.Transcript{
		{Operation: proton.OperationWipe, Address: node.Address()},
		{Operation: proton.OperationPush, Address: node.Address(), Contents: node},
	}
	if err := blocks.Apply(ctx, transcript); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := blocks.FetchContents(ctx, node.Address()); err != nil {
		t.Errorf("recreated block: %v", err)
	}
}

func TestApplyWithHistoryKeepsBlocks(t *testing.T) {
	ctx := context.Background()
	memory := NewMemory()
	blocks := NewBlocks(BlocksConfig{Store: memory, History: true})

	old := proton.NewContents([]byte("old"))
	replacement := proton.NewContents([]byte("replacement"))
	if err := blocks.PutContents(ctx, old); err != nil {
		t.Fatalf("PutContents: %v", err)
	}
	transcript := proton.Transcript{
		{Operation: proton.OperationPush, Address: replacement.Address(), Contents: replacement},
		{Operation: proton.OperationWipe, Address: old.Address()},
	}
	if err := blocks.Apply(ctx, transcript); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, contents := range []*proton.Contents{old, replacement} {
		if _, err := blocks.FetchContents(ctx, contents.Address()); err != nil {
			t.Errorf("FetchContents(%q): %v", contents.Data(), err)
		}
	}
	if memory.Len() != 2 {
		t.Errorf("%d keys after apply, want 2", memory.Len())
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	blocks := NewBlocks(BlocksConfig{Store: NewMemory()})
	address := mutableAddress(t)

	first := proton.NewContents([]byte("first"))
	if err := blocks.Commit(ctx, proton.Transcript{
		{Operation: proton.OperationPush, Address: first.Address(), Contents: first},
	}, address, 2, []byte("revision 2")); err != nil {
		t.Fatalf("Commit(2): %v", err)
	}

	second := proton.NewContents([]byte("second"))
	replace := proton.Transcript{
		{Operation: proton.OperationPush, Address: second.Address(), Contents: second},
		{Operation: proton.OperationWipe, Address: first.Address()},
	}
	if err := blocks.Commit(ctx, replace, address, 3, []byte("revision 3")); err != nil {
		t.Fatalf("Commit(3): %v", err)
	}
	if _, err := blocks.FetchContents(ctx, first.Address()); !errors.Is(err, ErrNotFound) {
		t.Errorf("superseded block: got %v, want ErrNotFound", err)
	}

	// Another writer that started from revision 2 wipes the block
	// revision 3 points at. Its block is rejected and nothing is erased.
	third := proton.NewContents([]byte("third"))
	stale := proton.Transcript{
		{Operation: proton.OperationPush, Address: third.Address(), Contents: third},
		{Operation: proton.OperationWipe, Address: second.Address()},
	}
	if err := blocks.Commit(ctx, stale, address, 3, []byte("stale")); !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("stale Commit: got %v, want ErrStaleRevision", err)
	}
	if _, err := blocks.FetchContents(ctx, second.Address()); err != nil {
		t.Errorf("block of the stored revision after a stale Commit: %v", err)
	}
	revision, data, err := blocks.FetchMutable(ctx, address)
	if err != nil {
		t.Fatalf("FetchMutable: %v", err)
	}
	if revision != 3 || string(data) != "revision 3" {
		t.Errorf("FetchMutable = %d %q, want 3 %q", revision, data, "revision 3")
	}
}

// TestCollectionThroughDepot seals a catalog collection into a sqlite
// depot and reopens it through a fresh cache fetching from that depot.
func TestCollectionThroughDepot(t *testing.T) {
	ctx := context.Background()
	backend, err := NewSQLite(filepath.Join(t.TempDir(), "depot.db"), 2, nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer backend.Close()
	blocks := NewBlocks(BlocksConfig{Store: backend})

	secret, err := cryptography.GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	writer := nest.New(nest.Config{Source: blocks})
	catalog, err := porcupine.New[string, *neutron.Catalog](writer, porcupine.DefaultLayout(), neutron.NewCatalog)
	if err != nil {
		t.Fatalf("porcupine.New: %v", err)
	}
	const count = 200
	for index := range count {
		name := fmt.Sprintf("entry-%04d", index)
		door, err := catalog.Lookup(ctx, name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		err = door.Value().Insert(neutron.Entry{Name: name, Address: proton.NewContents([]byte(name)).Address()})
		door.Close()
		if err != nil {
			t.Fatalf("Insert(%s): %v", name, err)
		}
		if err := catalog.Update(ctx, name); err != nil {
			t.Fatalf("Update(%s): %v", name, err)
		}
	}
	radix, err := catalog.Seal(ctx, secret)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if radix.Strategy != proton.StrategyTree {
		t.Fatalf("strategy %s, want tree", radix.Strategy)
	}
	if err := blocks.Apply(ctx, writer.Transcribe()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	reader := nest.New(nest.Config{Source: blocks})
	reopened, err := porcupine.Open[string, *neutron.Catalog](ctx, radix, secret, reader, porcupine.DefaultLayout(), neutron.NewCatalog)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Size() != count {
		t.Fatalf("reopened size %d, want %d", reopened.Size(), count)
	}
	if err := reopened.Check(ctx, porcupine.CheckAll); err != nil {
		t.Fatalf("Check: %v", err)
	}
	door, err := reopened.Lookup(ctx, "entry-0123")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	defer door.Close()
	if _, found := door.Value().Lookup("entry-0123"); !found {
		t.Error("entry-0123 missing after reopening")
	}
}
