// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/nest"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

func newCatalogs(t *testing.T) *porcupine.Porcupine[string, *Catalog] {
	t.Helper()
	p, err := porcupine.New[string, *Catalog](nest.New(nest.Config{}), porcupine.DefaultLayout(), NewCatalog)
	if err != nil {
		t.Fatalf("porcupine.New: %v", err)
	}
	return p
}

func addEntry(t *testing.T, ctx context.Context, p *porcupine.Porcupine[string, *Catalog], name string) {
	t.Helper()
	door, err := p.Lookup(ctx, name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	err = door.Value().Insert(Entry{Name: name, Address: proton.ImmutableAddress(proton.ComponentContents, []byte(name))})
	door.Close()
	if err != nil {
		t.Fatalf("Insert(%q): %v", name, err)
	}
	if err := p.Update(ctx, name); err != nil {
		t.Fatalf("Update(%q): %v", name, err)
	}
}

func removeEntry(t *testing.T, ctx context.Context, p *porcupine.Porcupine[string, *Catalog], name string) {
	t.Helper()
	door, err := p.Lookup(ctx, name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	_, err = door.Value().Remove(name)
	door.Close()
	if err != nil {
		t.Fatalf("Remove(%q): %v", name, err)
	}
	if err := p.Update(ctx, name); err != nil {
		t.Fatalf("Update(%q): %v", name, err)
	}
}

func hasEntry(t *testing.T, ctx context.Context, p *porcupine.Porcupine[string, *Catalog], name string) bool {
	t.Helper()
	door, err := p.Lookup(ctx, name)
	if err != nil {
		t.Fatalf("Lookup(%q): %v", name, err)
	}
	defer door.Close()
	entry, found := door.Value().Lookup(name)
	if found && entry.Name != name {
		t.Fatalf("Lookup(%q) returned %q", name, entry.Name)
	}
	return found
}

// TestCatalogScenario inserts the SHA-1 hex digests of 0 through 1282
// and removes a contiguous third of them.
func TestCatalogScenario(t *testing.T) {
	ctx := context.Background()
	p := newCatalogs(t)

	const count = 1283
	names := make([]string, count)
	for index := range names {
		digest := sha1.Sum([]byte(fmt.Sprint(index)))
		names[index] = hex.EncodeToString(digest[:])
		addEntry(t, ctx, p, names[index])
	}
	if err := p.Check(ctx, porcupine.CheckAll); err != nil {
		t.Fatalf("Check after insertion: %v", err)
	}
	if p.Strategy() != proton.StrategyTree {
		t.Fatalf("strategy %s, want tree", p.Strategy())
	}
	if height := p.Height(); height < 1 || height > 10 {
		t.Errorf("height %d, want between 1 and 10", height)
	}
	if p.Size() != count {
		t.Fatalf("size %d, want %d", p.Size(), count)
	}

	third := count / 3
	for _, name := range names[:third] {
		removeEntry(t, ctx, p, name)
	}
	if err := p.Check(ctx, porcupine.CheckAll); err != nil {
		t.Fatalf("Check after removal: %v", err)
	}
	if p.Size() != uint64(count-third) {
		t.Fatalf("size %d after removal, want %d", p.Size(), count-third)
	}
	for _, name := range names[third:] {
		if !hasEntry(t, ctx, p, name) {
			t.Fatalf("%q missing after removal", name)
		}
	}
	for _, name := range names[:third] {
		if hasEntry(t, ctx, p, name) {
			t.Fatalf("%q still present after removal", name)
		}
	}
}

func TestCatalogNode(t *testing.T) {
	catalog := NewCatalog()
	for _, name := range []string{"b", "a", "c"} {
		if err := catalog.Insert(Entry{Name: name}); err != nil {
			t.Fatalf("Insert(%q): %v", name, err)
		}
	}
	if err := catalog.Insert(Entry{Name: "a"}); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate Insert: got %v, want ErrExists", err)
	}
	for _, name := range []string{"", ".", "..", "a/b", "nul\x00"} {
		if err := catalog.Insert(Entry{Name: name}); err == nil {
			t.Errorf("Insert accepted name %q", name)
		}
	}
	if catalog.Minor() != "a" || catalog.Mayor() != "c" || catalog.Capacity() != 3 {
		t.Errorf("minor=%q mayor=%q capacity=%d", catalog.Minor(), catalog.Mayor(), catalog.Capacity())
	}
	if _, err := catalog.Remove("z"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove of unknown name: got %v, want ErrNotFound", err)
	}

	right, err := catalog.Split(nodeOverhead + 2*(1+entryOverhead))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(catalog.Entries) != 2 || len(right.Entries) != 1 || right.Minor() != "c" {
		t.Fatalf("split into %d and %d entries", len(catalog.Entries), len(right.Entries))
	}
	if err := right.Merge(catalog); err == nil {
		t.Error("Merge accepted entries out of order")
	}
	if err := catalog.Merge(right); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := catalog.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// A single entry larger than the limit stays put.
	big := &Catalog{Entries: []Entry{{Name: "only"}}}
	if right, _ := big.Split(1); !right.Empty() || len(big.Entries) != 1 {
		t.Error("Split moved the only entry")
	}
}

func TestDataNode(t *testing.T) {
	data := NewData()
	if err := data.WriteAt(0, []byte("hello world")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := data.WriteAt(6, []byte("there, friend")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if string(data.Bytes) != "hello there, friend" {
		t.Fatalf("bytes %q", data.Bytes)
	}
	if err := data.WriteAt(100, []byte("x")); err == nil {
		t.Error("WriteAt past the end succeeded")
	}
	if data.Minor() != 0 || data.Mayor() != 18 || data.Capacity() != 19 {
		t.Errorf("minor=%d mayor=%d capacity=%d", data.Minor(), data.Mayor(), data.Capacity())
	}

	right, err := data.Split(dataOverhead + 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if string(data.Bytes) != "hello" || right.Offset != 5 || string(right.Bytes) != " there, friend" {
		t.Fatalf("split into %q and %q at %d", data.Bytes, right.Bytes, right.Offset)
	}
	buffer := make([]byte, 4)
	if n := right.ReadAt(buffer, 1); n != 4 || string(buffer) != "ther" {
		t.Errorf("ReadAt = %d %q", n, buffer)
	}

	if err := data.Merge(&Data{Offset: 9, Bytes: []byte("x")}); err == nil {
		t.Error("Merge accepted a gap")
	}
	if err := data.Merge(right); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	data.Truncate(5)
	if string(data.Bytes) != "hello" {
		t.Errorf("after Truncate %q", data.Bytes)
	}
}

func TestDataCollectionSeek(t *testing.T) {
	ctx := context.Background()
	p, err := porcupine.New[uint64, *Data](nest.New(nest.Config{}), porcupine.DefaultLayout(), NewData)
	if err != nil {
		t.Fatalf("porcupine.New: %v", err)
	}

	content := bytes.Repeat([]byte("0123456789abcdef"), 400)
	door, err := p.Lookup(ctx, 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := door.Value().WriteAt(0, content); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	door.Close()
	if err := p.Update(ctx, 0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := p.Check(ctx, porcupine.CheckAll); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if p.Strategy() != proton.StrategyTree || p.Size() != uint64(len(content)) {
		t.Fatalf("strategy=%s size=%d", p.Strategy(), p.Size())
	}

	// Scan sequentially through Seek.
	var read []byte
	for position := uint64(0); position < p.Size(); {
		door, base, err := p.Seek(ctx, position)
		if err != nil {
			t.Fatalf("Seek(%d): %v", position, err)
		}
		node := door.Value()
		if node.Offset != base {
			t.Fatalf("node at base %d has offset %d", base, node.Offset)
		}
		chunk := make([]byte, node.Capacity()-(position-base))
		node.ReadAt(chunk, position-base)
		door.Close()
		read = append(read, chunk...)
		position += uint64(len(chunk))
	}
	if !bytes.Equal(read, content) {
		t.Error("sequential Seek scan does not reproduce the content")
	}
}

func TestAttributesNode(t *testing.T) {
	attributes := NewAttributes()
	if changed, err := attributes.Set("user.color", []byte("blue")); err != nil || !changed {
		t.Fatalf("Set: changed=%v err=%v", changed, err)
	}
	if changed, _ := attributes.Set("user.color", []byte("blue")); changed {
		t.Error("Set of an identical value reported a change")
	}
	if _, err := attributes.Set("user.shape", []byte("round")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if value, found := attributes.Get("user.color"); !found || string(value) != "blue" {
		t.Errorf("Get = %q, %v", value, found)
	}
	if err := attributes.Omit("user.missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Omit of unknown name: got %v, want ErrNotFound", err)
	}
	if err := attributes.Omit("user.color"); err != nil {
		t.Fatalf("Omit: %v", err)
	}
	if attributes.Capacity() != 1 || attributes.Mayor() != "user.shape" {
		t.Errorf("capacity=%d mayor=%q", attributes.Capacity(), attributes.Mayor())
	}
}

func TestAccessNode(t *testing.T) {
	first, second := mustKeys(t), mustKeys(t)
	access := NewAccess()
	for _, key := range []*cryptography.KeyPair{first, second} {
		if err := access.Grant(Record{Subject: UserSubject(key.Public()), Permissions: PermissionsRead}); err != nil {
			t.Fatalf("Grant: %v", err)
		}
	}
	if err := access.Grant(Record{Subject: UserSubject(first.Public()), Permissions: PermissionsReadWrite}); err != nil {
		t.Fatalf("Grant update: %v", err)
	}
	if access.Capacity() != 2 {
		t.Fatalf("capacity %d, want 2", access.Capacity())
	}
	record, _, found := access.Lookup(UserSubject(first.Public()))
	if !found || record.Permissions != PermissionsReadWrite {
		t.Errorf("Lookup = %+v, %v", record, found)
	}
	if err := access.Grant(Record{Subject: Subject{Kind: SubjectUser}}); err == nil {
		t.Error("Grant accepted a user subject without a key")
	}
	if err := access.Grant(Record{Subject: UserSubject(first.Public()), Permissions: 8}); err == nil {
		t.Error("Grant accepted unknown permission bits")
	}
	if err := access.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := access.Revoke(UserSubject(second.Public())); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := access.Revoke(UserSubject(second.Public())); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Revoke: got %v, want ErrNotFound", err)
	}
}

func TestFingerprint(t *testing.T) {
	ctx := context.Background()
	empty, err := Fingerprint(ctx, nil)
	if err != nil || !empty.IsZero() {
		t.Fatalf("Fingerprint(nil) = %s, %v", empty, err)
	}

	reader := mustKeys(t)
	build := func(permissions Permissions, token cryptography.Token) cryptography.Digest {
		t.Helper()
		p := newAccessCollection(t)
		grant(t, ctx, p, Record{Subject: UserSubject(reader.Public()), Permissions: permissions, Token: token})
		digest, err := Fingerprint(ctx, p)
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		return digest
	}

	read := build(PermissionsRead, nil)
	if read.IsZero() {
		t.Fatal("non-empty collection has the zero fingerprint")
	}
	if build(PermissionsRead, cryptography.Token("rewrapped")) != read {
		t.Error("changing a token changed the fingerprint")
	}
	if build(PermissionsReadWrite, nil) == read {
		t.Error("changing permissions left the fingerprint unchanged")
	}
}

func TestPermissionsText(t *testing.T) {
	for _, permissions := range []Permissions{PermissionsNone, PermissionsRead, PermissionsWrite, PermissionsReadWrite} {
		parsed, err := ParsePermissions(permissions.String())
		if err != nil || parsed != permissions {
			t.Errorf("ParsePermissions(%q) = %v, %v", permissions.String(), parsed, err)
		}
	}
	if _, err := ParsePermissions("rx"); err == nil {
		t.Error("ParsePermissions accepted an unknown letter")
	}
	for _, genre := range []Genre{GenreFile, GenreDirectory, GenreLink} {
		if parsed, err := ParseGenre(genre.String()); err != nil || parsed != genre {
			t.Errorf("ParseGenre(%q) = %v, %v", genre.String(), parsed, err)
		}
	}
}

func TestSubjectIdentifiers(t *testing.T) {
	user := UserSubject(mustKeys(t).Public())
	group := GroupSubject(proton.ImmutableAddress(proton.ComponentObject, []byte("group")))
	if err := user.Validate(); err != nil {
		t.Errorf("user Validate: %v", err)
	}
	if err := group.Validate(); err != nil {
		t.Errorf("group Validate: %v", err)
	}
	if user.Identifier() == group.Identifier() {
		t.Error("user and group share an identifier")
	}
	if err := (Subject{Kind: SubjectGroup, Key: user.Key, Group: group.Group}).Validate(); err == nil {
		t.Error("Validate accepted a subject with both fields set")
	}
	if !(group.Identifier() < user.Identifier()) {
		t.Errorf("group %s does not sort before user %s", group, user)
	}
}
