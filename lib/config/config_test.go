// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/nucleus/lib/depot"
	"github.com/bureau-foundation/nucleus/lib/porcupine"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "nucleus.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Depot.Backend != depot.BackendDirectory {
		t.Errorf("expected depot backend=directory, got %s", cfg.Depot.Backend)
	}

	if cfg.Depot.History {
		t.Error("expected history=false for development")
	}

	layout, err := cfg.Porcupine.Layout()
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if layout != porcupine.DefaultLayout() {
		t.Errorf("default layout = %+v, want %+v", layout, porcupine.DefaultLayout())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresNucleusConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when NUCLEUS_CONFIG not set, got nil")
	}

	if !strings.HasPrefix(err.Error(), "NUCLEUS_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithNucleusConfig(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging
paths:
  root: /test/root
depot:
  backend: memory
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}

	if cfg.Depot.Backend != depot.BackendMemory {
		t.Errorf("expected backend=memory, got %s", cfg.Depot.Backend)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: staging

paths:
  root: /custom/root
  depot: /custom/root/blocks.db

depot:
  backend: sqlite
  pool_size: 8

porcupine:
  extent: 4096
  compression: zstd

nest:
  budget: 1048576

log:
  level: debug
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Depot != "/custom/root/blocks.db" {
		t.Errorf("expected depot path=/custom/root/blocks.db, got %s", cfg.Paths.Depot)
	}

	depotConfig := cfg.DepotConfig(nil)
	if depotConfig.Backend != depot.BackendSQLite || depotConfig.PoolSize != 8 || depotConfig.Path != cfg.Paths.Depot {
		t.Errorf("DepotConfig = %+v", depotConfig)
	}

	layout, err := cfg.Porcupine.Layout()
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if layout.Extent != 4096 || layout.Compression != proton.CompressionZstd {
		t.Errorf("layout = %+v", layout)
	}
	if layout.Contention != porcupine.DefaultContention {
		t.Errorf("unset contention = %g, want the default", layout.Contention)
	}

	if cfg.Nest.Budget != 1<<20 {
		t.Errorf("expected budget=1048576, got %d", cfg.Nest.Budget)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		t.Fatalf("SlogLevel: %v", err)
	}
	if level != slog.LevelDebug {
		t.Errorf("expected level=debug, got %s", level)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := writeConfig(t, "depot: [unterminated\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected a parse error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

paths:
  root: /default/root

depot:
  backend: directory
  history: false

production:
  paths:
    root: /prod/root
  depot:
    backend: sqlite
    history: true
  log:
    level: warn
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}

	if cfg.Depot.Backend != depot.BackendSQLite {
		t.Errorf("expected backend=sqlite, got %s", cfg.Depot.Backend)
	}

	if !cfg.Depot.History {
		t.Error("expected history=true from production override")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected level=warn, got %s", cfg.Log.Level)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
paths:
  root: /srv/nucleus
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Depot.Backend != depot.BackendSQLite {
		t.Errorf("expected backend=sqlite in production, got %s", cfg.Depot.Backend)
	}
	if !cfg.Depot.History {
		t.Error("expected history=true in production")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	t.Setenv("NUCLEUS_ROOT", "/env/root")
	t.Setenv("NUCLEUS_ENVIRONMENT", "staging")

	configPath := writeConfig(t, `
environment: development
paths:
  root: /file/root
  depot: ${NUCLEUS_ROOT}/depot
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s (env vars should not override)", cfg.Paths.Root)
	}

	if cfg.Paths.Depot != "/file/root/depot" {
		t.Errorf("expected depot=/file/root/depot expanded from paths.root, got %s", cfg.Paths.Depot)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/nucleus",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/nucleus",
		},
		{
			input:    "${NUCLEUS_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty root path",
			modify: func(c *Config) {
				c.Paths.Root = ""
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			modify: func(c *Config) {
				c.Depot.Backend = "tape"
			},
			wantErr: true,
		},
		{
			name: "directory backend without a path",
			modify: func(c *Config) {
				c.Paths.Depot = ""
			},
			wantErr: true,
		},
		{
			name: "memory backend without a path",
			modify: func(c *Config) {
				c.Depot.Backend = depot.BackendMemory
				c.Paths.Depot = ""
			},
			wantErr: false,
		},
		{
			name: "extent below minimum",
			modify: func(c *Config) {
				c.Porcupine.Extent = 16
			},
			wantErr: true,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Porcupine.Compression = "brotli"
			},
			wantErr: true,
		},
		{
			name: "zero cache budget",
			modify: func(c *Config) {
				c.Nest.Budget = 0
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.Log.Level = "chatty"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "nucleus")
	cfg.Paths.Depot = filepath.Join(cfg.Paths.Root, "depot")
	cfg.Paths.Keys = filepath.Join(cfg.Paths.Root, "keys")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.Depot, cfg.Paths.Keys} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}

	cfg.Depot.Backend = depot.BackendSQLite
	cfg.Paths.Depot = filepath.Join(tmpDir, "sqlite", "blocks.db")
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cfg.Paths.Depot)); err != nil {
		t.Errorf("sqlite parent directory not created: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Depot); !os.IsNotExist(err) {
		t.Errorf("database path should not be created as a directory: %v", err)
	}
}
