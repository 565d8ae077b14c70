// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for nucleus.
//
// Configuration is loaded from a single file specified by either the
// NUCLEUS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Commands that run without a file use
// [Default].
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// the depot is SQLite and superseded object revisions are kept.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${NUCLEUS_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Depot, Porcupine, Nest, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [PorcupineConfig.Layout] and [Config.DepotConfig] -- conversion
//     into the parameters of the packages they configure
package config
