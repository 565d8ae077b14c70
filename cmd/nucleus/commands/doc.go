// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the nucleus command tree.
//
// Every leaf command takes --config and --verbose. The configuration
// comes from --config, then NUCLEUS_CONFIG, then config.Default. It
// selects the depot backend that both objects and network descriptors
// are stored in. Key pairs are 32-byte ed25519 seeds kept hex-encoded
// in owner-only files written by "nucleus keygen" and read back into
// locked memory.
package commands
