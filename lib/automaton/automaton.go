// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package automaton

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/nucleus/lib/clock"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/depot"
	"github.com/bureau-foundation/nucleus/lib/nest"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
	"github.com/bureau-foundation/nucleus/lib/secret"
)

var (
	// ErrPermission reports an operation the acting key may not do.
	ErrPermission = errors.New("automaton: permission denied")

	// ErrGenre reports an operation that does not apply to the
	// object's genre.
	ErrGenre = errors.New("automaton: wrong object genre")
)

// Config holds what every Context needs.
type Config struct {
	// Blocks is where objects and their nodes are persisted. Required.
	Blocks *depot.Blocks

	// Nest loads nodes. If nil, each Context gets its own cache
	// fetching from Blocks with CacheBudget.
	Nest        nest.Nest
	CacheBudget int

	// Layout sizes every collection. The zero Layout means
	// porcupine.DefaultLayout().
	Layout porcupine.Layout

	Clock  clock.Clock
	Logger *slog.Logger
}

// changes records which parts of the object await Store.
type changes struct {
	contents   bool
	attributes bool
	access     bool
}

// Context is one object being operated on by one key pair.
type Context struct {
	blocks *depot.Blocks
	nest   nest.Nest
	layout porcupine.Layout
	clock  clock.Clock
	logger *slog.Logger

	keys    *cryptography.KeyPair
	object  *neutron.Object
	secret  *secret.Buffer
	rotated bool
	changed changes

	catalog    *porcupine.Porcupine[string, *neutron.Catalog]
	data       *porcupine.Porcupine[uint64, *neutron.Data]
	attributes *porcupine.Porcupine[string, *neutron.Attributes]
	access     *porcupine.Porcupine[string, *neutron.Access]
}

func newContext(config Config, keys *cryptography.KeyPair, object *neutron.Object) (*Context, error) {
	if config.Blocks == nil {
		return nil, fmt.Errorf("automaton: Config.Blocks is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	layout := config.Layout
	if layout == (porcupine.Layout{}) {
		layout = porcupine.DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	store := config.Nest
	if store == nil {
		store = nest.New(nest.Config{Source: config.Blocks, Budget: config.CacheBudget, Logger: logger})
	}
	return &Context{
		blocks: config.Blocks,
		nest:   store,
		layout: layout,
		clock:  clk,
		logger: logger.With("object", object.Address().String()),
		keys:   keys,
		object: object,
	}, nil
}

// Create starts a new object of genre owned by keys. It is persisted
// by the first Store.
func Create(config Config, genre neutron.Genre, keys *cryptography.KeyPair) (*Context, error) {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	object, err := neutron.New(genre, keys.Public(), clk)
	if err != nil {
		return nil, err
	}
	return newContext(config, keys, object)
}

// Load fetches the object at address and validates it, resolving lord
// authors through its access list.
func Load(ctx context.Context, config Config, address proton.Address, keys *cryptography.KeyPair) (*Context, error) {
	if config.Blocks == nil {
		return nil, fmt.Errorf("automaton: Config.Blocks is required")
	}
	revision, encoded, err := config.Blocks.FetchMutable(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("automaton: fetching %s: %w", address, err)
	}
	return decode(ctx, config, address, revision, encoded, keys)
}

// LoadRevision fetches a superseded revision of the object at address,
// kept when the depot retains history. The result is validated like
// Load's; storing it fails with depot.ErrStaleRevision.
func LoadRevision(ctx context.Context, config Config, address proton.Address, revision uint64, keys *cryptography.KeyPair) (*Context, error) {
	if config.Blocks == nil {
		return nil, fmt.Errorf("automaton: Config.Blocks is required")
	}
	encoded, err := config.Blocks.FetchRevision(ctx, address, revision)
	if err != nil {
		return nil, fmt.Errorf("automaton: fetching %s at revision %d: %w", address, revision, err)
	}
	return decode(ctx, config, address, revision, encoded, keys)
}

func decode(ctx context.Context, config Config, address proton.Address, revision uint64, encoded []byte, keys *cryptography.KeyPair) (*Context, error) {
	object, err := neutron.Decode(encoded, config.Clock)
	if err != nil {
		return nil, err
	}
	if object.Block.Revision != revision {
		return nil, fmt.Errorf("automaton: %s stored at revision %d holds revision %d", address, revision, object.Block.Revision)
	}
	c, err := newContext(config, keys, object)
	if err != nil {
		return nil, err
	}
	access, err := c.accessCollection(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint, err := neutron.Fingerprint(ctx, access)
	if err != nil {
		return nil, err
	}
	if err := object.Validate(ctx, address, fingerprint, neutron.AccessRecords{Collection: access}); err != nil {
		return nil, err
	}
	c.logger.Debug("object loaded", "revision", revision, "genre", object.Meta.Genre.String())
	return c, nil
}

// Object returns the object. Callers must not mutate it.
func (c *Context) Object() *neutron.Object { return c.object }

// Address returns the object's address.
func (c *Context) Address() proton.Address { return c.object.Address() }

// Size returns the entry count of a directory or the byte length of a
// file or link.
func (c *Context) Size() uint64 {
	switch {
	case c.catalog != nil:
		return c.catalog.Size()
	case c.data != nil:
		return c.data.Size()
	}
	return c.object.Data.Size
}

func (c *Context) isOwner() bool { return c.keys.Public() == c.object.Owner() }

func (c *Context) requireOwner() error {
	if !c.isOwner() {
		return fmt.Errorf("%w: only the owner %s may do this", ErrPermission, c.object.Owner())
	}
	return nil
}

func (c *Context) requireGenre(genre neutron.Genre) error {
	if c.object.Meta.Genre != genre {
		return fmt.Errorf("%w: %s is not a %s", ErrGenre, c.object.Meta.Genre, genre)
	}
	return nil
}

// self returns the acting key's access record.
func (c *Context) self(ctx context.Context) (neutron.Record, bool, error) {
	if c.isOwner() {
		return c.object.OwnerRecord(), true, nil
	}
	return c.lookupRecord(ctx, neutron.UserSubject(c.keys.Public()))
}

// authorize checks the acting key holds want.
func (c *Context) authorize(ctx context.Context, want neutron.Permissions) error {
	record, found, err := c.self(ctx)
	if err != nil {
		return err
	}
	if !found || !record.Permissions.Has(want) {
		return fmt.Errorf("%w: %s lacks %s", ErrPermission, c.keys.Public(), want)
	}
	return nil
}

// readSecret returns the collection secret, or the zero key when the
// object never had one.
func (c *Context) readSecret(ctx context.Context) (cryptography.SecretKey, error) {
	if c.secret != nil {
		return c.heldSecret(), nil
	}
	record, found, err := c.self(ctx)
	if err != nil {
		return cryptography.SecretKey{}, err
	}
	if !found || record.Token.IsEmpty() {
		if c.isOwner() {
			return cryptography.SecretKey{}, nil
		}
		return cryptography.SecretKey{}, fmt.Errorf("%w: no token for %s", ErrPermission, c.keys.Public())
	}
	key, err := c.keys.UnwrapSecret(record.Token)
	if err != nil {
		return cryptography.SecretKey{}, fmt.Errorf("automaton: unwrapping collection secret: %w", err)
	}
	if err := c.hold(key); err != nil {
		return cryptography.SecretKey{}, err
	}
	return key, nil
}

// writeSecret returns the collection secret, issuing one if the object
// has none yet.
func (c *Context) writeSecret(ctx context.Context) (cryptography.SecretKey, error) {
	key, err := c.readSecret(ctx)
	if err != nil || !key.IsZero() {
		return key, err
	}
	return c.rotate()
}

// rotate replaces the collection secret. Store reseals the contents
// and attributes under it and rewraps the owner's token.
func (c *Context) rotate() (cryptography.SecretKey, error) {
	key, err := cryptography.GenerateSecretKey()
	if err != nil {
		return cryptography.SecretKey{}, err
	}
	if err := c.hold(key); err != nil {
		return cryptography.SecretKey{}, err
	}
	c.rotated = true
	return key, nil
}

// hold moves key into locked memory, releasing the secret held before.
func (c *Context) hold(key cryptography.SecretKey) error {
	buffer, err := secret.NewFromBytes(key[:])
	if err != nil {
		return fmt.Errorf("automaton: holding collection secret: %w", err)
	}
	c.release()
	c.secret = buffer
	return nil
}

// heldSecret copies out the collection secret, zero if none is held.
func (c *Context) heldSecret() cryptography.SecretKey {
	var key cryptography.SecretKey
	if c.secret != nil {
		copy(key[:], c.secret.Bytes())
	}
	return key
}

func (c *Context) release() {
	if c.secret == nil {
		return
	}
	if err := c.secret.Close(); err != nil {
		c.logger.Warn("releasing collection secret", "error", err)
	}
	c.secret = nil
}

// Close releases the collection secret. Changes not yet stored are
// kept, but the Context must not be used afterwards.
func (c *Context) Close() {
	c.release()
}

var accessDomain = cryptography.NewDomain("nucleus.automaton.access")

// accessSecret is the key the access list is sealed under.
func accessSecret(address proton.Address) cryptography.SecretKey {
	return cryptography.SecretKey(cryptography.Hash(accessDomain, address.Digest[:]))
}

func open[K cmp.Ordered, V porcupine.Value[K, V]](ctx context.Context, c *Context, radix proton.Radix, secret cryptography.SecretKey, fresh func() V) (*porcupine.Porcupine[K, V], error) {
	if radix.IsEmpty() {
		return porcupine.New[K, V](c.nest, c.layout, fresh)
	}
	return porcupine.Open[K, V](ctx, radix, secret, c.nest, c.layout, fresh)
}

func (c *Context) accessCollection(ctx context.Context) (*porcupine.Porcupine[string, *neutron.Access], error) {
	if c.access == nil {
		access, err := open[string](ctx, c, c.object.Meta.Access, accessSecret(c.Address()), neutron.NewAccess)
		if err != nil {
			return nil, fmt.Errorf("automaton: opening access list: %w", err)
		}
		c.access = access
	}
	return c.access, nil
}

func (c *Context) attributesCollection(ctx context.Context) (*porcupine.Porcupine[string, *neutron.Attributes], error) {
	if c.attributes == nil {
		secret, err := c.readSecret(ctx)
		if err != nil {
			return nil, err
		}
		attributes, err := open[string](ctx, c, c.object.Meta.Attributes, secret, neutron.NewAttributes)
		if err != nil {
			return nil, fmt.Errorf("automaton: opening attributes: %w", err)
		}
		c.attributes = attributes
	}
	return c.attributes, nil
}

func (c *Context) catalogCollection(ctx context.Context) (*porcupine.Porcupine[string, *neutron.Catalog], error) {
	if err := c.requireGenre(neutron.GenreDirectory); err != nil {
		return nil, err
	}
	if c.catalog == nil {
		secret, err := c.readSecret(ctx)
		if err != nil {
			return nil, err
		}
		catalog, err := open[string](ctx, c, c.object.Data.Contents, secret, neutron.NewCatalog)
		if err != nil {
			return nil, fmt.Errorf("automaton: opening catalog: %w", err)
		}
		c.catalog = catalog
	}
	return c.catalog, nil
}

func (c *Context) dataCollection(ctx context.Context) (*porcupine.Porcupine[uint64, *neutron.Data], error) {
	if c.object.Meta.Genre == neutron.GenreDirectory {
		return nil, fmt.Errorf("%w: a directory holds no data", ErrGenre)
	}
	if c.data == nil {
		secret, err := c.readSecret(ctx)
		if err != nil {
			return nil, err
		}
		data, err := open[uint64](ctx, c, c.object.Data.Contents, secret, neutron.NewData)
		if err != nil {
			return nil, fmt.Errorf("automaton: opening data: %w", err)
		}
		c.data = data
	}
	return c.data, nil
}

// sealContents seals whichever contents collection is open.
func (c *Context) sealContents(ctx context.Context) (proton.Radix, error) {
	switch {
	case c.catalog != nil:
		return c.catalog.Seal(ctx, c.heldSecret())
	case c.data != nil:
		return c.data.Seal(ctx, c.heldSecret())
	}
	return c.object.Data.Contents, nil
}

// author returns how the acting key signs the data section.
func (c *Context) author(ctx context.Context) (neutron.Author, error) {
	if c.isOwner() {
		return neutron.OwnerAuthor(), nil
	}
	index, found, err := c.position(ctx, neutron.UserSubject(c.keys.Public()))
	if err != nil {
		return neutron.Author{}, err
	}
	if !found {
		return neutron.Author{}, fmt.Errorf("%w: %s has no access record", ErrPermission, c.keys.Public())
	}
	return neutron.LordAuthor(index), nil
}

// Store seals every changed collection into the object, signs it and
// persists the new blocks, the object, then the removal of superseded
// blocks. It does nothing when nothing changed. If the object is
// rejected, for example because another writer stored a newer revision
// (depot.ErrStaleRevision), no block is removed; load the object again
// and redo the change.
func (c *Context) Store(ctx context.Context) error {
	dataChanged := c.changed.contents || c.changed.access || c.rotated
	metaChanged := c.changed.attributes || c.changed.access
	if !dataChanged && !metaChanged && !c.object.Dirty() {
		return nil
	}

	if c.rotated {
		// Every collection sealed under the old secret is reopened
		// so Seal rekeys it.
		if err := c.openForRekey(ctx); err != nil {
			return err
		}
		if c.attributes != nil {
			metaChanged = true
		}
	}

	access, err := c.accessCollection(ctx)
	if err != nil {
		return err
	}
	if dataChanged {
		contents, err := c.sealContents(ctx)
		if err != nil {
			return fmt.Errorf("automaton: sealing contents: %w", err)
		}
		accessRadix, err := access.Seal(ctx, accessSecret(c.Address()))
		if err != nil {
			return fmt.Errorf("automaton: sealing access list: %w", err)
		}
		token := c.object.Meta.Owner.Token
		if c.rotated {
			if token, err = cryptography.WrapSecret(c.heldSecret(), c.object.Owner()); err != nil {
				return err
			}
		}
		author, err := c.author(ctx)
		if err != nil {
			return err
		}
		c.object.Update(author, contents, c.Size(), accessRadix, token)
	}
	if metaChanged {
		attributes := c.object.Meta.Attributes
		if c.attributes != nil {
			if attributes, err = c.attributes.Seal(ctx, c.heldSecret()); err != nil {
				return fmt.Errorf("automaton: sealing attributes: %w", err)
			}
		}
		c.object.Administrate(attributes, c.object.Meta.Owner.Permissions)
	}

	fingerprint, err := neutron.Fingerprint(ctx, access)
	if err != nil {
		return err
	}
	if err := c.object.Seal(c.keys, fingerprint); err != nil {
		return err
	}

	encoded, err := c.object.Encode()
	if err != nil {
		return err
	}
	transcript := c.nest.Transcribe()
	if err := c.blocks.Commit(ctx, transcript, c.Address(), c.object.Block.Revision, encoded); err != nil {
		return err
	}
	c.changed = changes{}
	c.rotated = false
	c.logger.Info("object stored",
		"revision", c.object.Block.Revision,
		"pushes", transcript.Pushes(),
		"wipes", transcript.Wipes(),
	)
	return nil
}

// openForRekey opens the secret-sealed collections that hold anything.
// The previous secret comes from the object's tokens.
func (c *Context) openForRekey(ctx context.Context) error {
	fresh := c.secret
	c.secret = nil
	defer func() {
		c.release()
		c.secret = fresh
	}()

	if c.catalog == nil && c.data == nil && !c.object.Data.Contents.IsEmpty() {
		var err error
		if c.object.Meta.Genre == neutron.GenreDirectory {
			_, err = c.catalogCollection(ctx)
		} else {
			_, err = c.dataCollection(ctx)
		}
		if err != nil {
			return err
		}
	}
	if c.attributes == nil && !c.object.Meta.Attributes.IsEmpty() {
		if _, err := c.attributesCollection(ctx); err != nil {
			return err
		}
	}
	return nil
}
