// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/nucleus/lib/depot"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "NUCLEUS_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for nucleus.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Depot selects the block storage backend.
	Depot DepotConfig `yaml:"depot"`

	// Porcupine sizes every collection.
	Porcupine PorcupineConfig `yaml:"porcupine"`

	// Nest configures the node cache.
	Nest NestConfig `yaml:"nest"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Depot     *DepotConfig     `yaml:"depot,omitempty"`
	Porcupine *PorcupineConfig `yaml:"porcupine,omitempty"`
	Nest      *NestConfig      `yaml:"nest,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for nucleus data.
	Root string `yaml:"root"`

	// Depot is the directory of a directory depot or the database
	// file of a sqlite depot.
	Depot string `yaml:"depot"`

	// Keys holds key pair seeds written by keygen.
	Keys string `yaml:"keys"`
}

// DepotConfig selects the block storage backend.
type DepotConfig struct {
	// Backend is memory, directory or sqlite.
	// Default: directory (development), sqlite (production)
	Backend string `yaml:"backend"`

	// PoolSize is the sqlite connection count.
	// Default: 4
	PoolSize int `yaml:"pool_size"`

	// History keeps superseded revisions of mutable blocks.
	// Default: false (development), true (production)
	History bool `yaml:"history"`
}

// PorcupineConfig sizes every collection.
type PorcupineConfig struct {
	// Extent is the target maximum node footprint in bytes.
	// Default: 1024
	Extent int `yaml:"extent"`

	// Contention is the fraction of the extent a split keeps left.
	// Default: 0.5
	Contention float64 `yaml:"contention"`

	// Balancing is the fraction of the extent below which nodes merge.
	// Default: 0.2
	Balancing float64 `yaml:"balancing"`

	// Compression is none, lz4 or zstd.
	// Default: none
	Compression string `yaml:"compression"`
}

// NestConfig configures the node cache.
type NestConfig struct {
	// Budget is the cache size in bytes.
	// Default: 16 MiB
	Budget int `yaml:"budget"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "nucleus")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			Depot: filepath.Join(defaultRoot, "depot"),
			Keys:  filepath.Join(defaultRoot, "keys"),
		},
		Depot: DepotConfig{
			Backend:  depot.BackendDirectory,
			PoolSize: 4,
		},
		Porcupine: PorcupineConfig{
			Extent:      porcupine.DefaultExtent,
			Contention:  porcupine.DefaultContention,
			Balancing:   porcupine.DefaultBalancing,
			Compression: proton.CompressionNone.String(),
		},
		Nest: NestConfig{
			Budget: 16 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the NUCLEUS_CONFIG environment variable.
//
// There are no fallbacks or defaults - if NUCLEUS_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your nucleus.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: durable backend with history.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Depot: &DepotConfig{
					Backend: depot.BackendSQLite,
					History: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Depot != "" {
			c.Paths.Depot = overrides.Paths.Depot
		}
		if overrides.Paths.Keys != "" {
			c.Paths.Keys = overrides.Paths.Keys
		}
	}

	if overrides.Depot != nil {
		if overrides.Depot.Backend != "" {
			c.Depot.Backend = overrides.Depot.Backend
		}
		if overrides.Depot.PoolSize != 0 {
			c.Depot.PoolSize = overrides.Depot.PoolSize
		}
		// History is a bool, so we always apply it from overrides.
		c.Depot.History = overrides.Depot.History
	}

	if overrides.Porcupine != nil {
		if overrides.Porcupine.Extent != 0 {
			c.Porcupine.Extent = overrides.Porcupine.Extent
		}
		if overrides.Porcupine.Contention != 0 {
			c.Porcupine.Contention = overrides.Porcupine.Contention
		}
		if overrides.Porcupine.Balancing != 0 {
			c.Porcupine.Balancing = overrides.Porcupine.Balancing
		}
		if overrides.Porcupine.Compression != "" {
			c.Porcupine.Compression = overrides.Porcupine.Compression
		}
	}

	if overrides.Nest != nil && overrides.Nest.Budget != 0 {
		c.Nest.Budget = overrides.Nest.Budget
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"NUCLEUS_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["NUCLEUS_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Depot = expandVars(c.Paths.Depot, vars)
	c.Paths.Keys = expandVars(c.Paths.Keys, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	backends := []string{depot.BackendMemory, depot.BackendDirectory, depot.BackendSQLite}
	if !slices.Contains(backends, c.Depot.Backend) {
		errs = append(errs, fmt.Errorf("depot.backend must be one of: %v", backends))
	} else if c.Depot.Backend != depot.BackendMemory && c.Paths.Depot == "" {
		errs = append(errs, fmt.Errorf("paths.depot is required for the %s backend", c.Depot.Backend))
	}
	if c.Depot.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("depot.pool_size must not be negative"))
	}

	if _, err := c.Porcupine.Layout(); err != nil {
		errs = append(errs, fmt.Errorf("porcupine: %w", err))
	}

	if c.Nest.Budget <= 0 {
		errs = append(errs, fmt.Errorf("nest.budget must be positive"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the configured directories if they don't exist.
// A sqlite depot gets its parent directory.
func (c *Config) EnsurePaths() error {
	depotDir := c.Paths.Depot
	if c.Depot.Backend == depot.BackendSQLite {
		depotDir = filepath.Dir(depotDir)
	}
	paths := []string{c.Paths.Root, c.Paths.Keys}
	if c.Depot.Backend != depot.BackendMemory {
		paths = append(paths, depotDir)
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

// DepotConfig returns the parameters for depot.Open.
func (c *Config) DepotConfig(logger *slog.Logger) depot.Config {
	return depot.Config{
		Backend:  c.Depot.Backend,
		Path:     c.Paths.Depot,
		PoolSize: c.Depot.PoolSize,
		Logger:   logger,
	}
}

// Layout returns the porcupine layout described by the section.
func (p PorcupineConfig) Layout() (porcupine.Layout, error) {
	compression, err := proton.ParseCompression(p.Compression)
	if err != nil {
		return porcupine.Layout{}, err
	}
	layout := porcupine.Layout{
		Extent:      p.Extent,
		Contention:  p.Contention,
		Balancing:   p.Balancing,
		Compression: compression,
	}
	if err := layout.Validate(); err != nil {
		return porcupine.Layout{}, err
	}
	return layout, nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
