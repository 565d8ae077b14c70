// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/cli"
	"github.com/bureau-foundation/nucleus/lib/automaton"
	"github.com/bureau-foundation/nucleus/lib/config"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/depot"
	"github.com/bureau-foundation/nucleus/lib/descriptor"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/secret"
)

// loadConfig reads --config, then $NUCLEUS_CONFIG, then falls back to
// the built-in defaults.
func loadConfig(invocation *cli.Invocation) (*config.Config, error) {
	switch {
	case invocation.ConfigPath != "":
		return config.LoadFile(invocation.ConfigPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

// environment is what a command works against: the loaded config, its
// logger and the opened depot.
type environment struct {
	config  *config.Config
	logger  *slog.Logger
	backend depot.Backend
	blocks  *depot.Blocks
	layout  porcupine.Layout
}

// openEnvironment loads the configuration and opens the depot it names.
func openEnvironment(invocation *cli.Invocation) (*environment, error) {
	cfg, err := loadConfig(invocation)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := invocation.Logger(level)

	layout, err := cfg.Porcupine.Layout()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	backend, err := depot.Open(cfg.DepotConfig(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("depot opened", "backend", cfg.Depot.Backend, "path", cfg.Paths.Depot)
	return &environment{
		config:  cfg,
		logger:  logger,
		backend: backend,
		blocks: depot.NewBlocks(depot.BlocksConfig{
			Store:   backend,
			History: cfg.Depot.History,
			Logger:  logger,
		}),
		layout: layout,
	}, nil
}

// automaton returns the configuration objects are opened with.
func (e *environment) automaton() automaton.Config {
	return automaton.Config{
		Blocks:      e.blocks,
		CacheBudget: e.config.Nest.Budget,
		Layout:      e.layout,
		Logger:      e.logger,
	}
}

func (e *environment) descriptors() *descriptor.Store {
	return descriptor.NewStore(e.backend, e.logger)
}

func (e *environment) Close() error {
	return e.backend.Close()
}

// defaultKeyName is the seed file keygen writes and commands read
// when no key file is named.
const defaultKeyName = "default"

func keyPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Paths.Keys, name+".seed")
}

// readKeys loads a key pair from a seed file written by keygen. An
// empty path reads the default key under paths.keys.
func (e *environment) readKeys(path string) (*cryptography.KeyPair, error) {
	if path == "" {
		path = keyPath(e.config, defaultKeyName)
	}
	buffer, err := secret.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer buffer.Close()
	keys, err := cryptography.FromSeed(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keys, nil
}

func defaultUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "nucleus"
}
