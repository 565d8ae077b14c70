// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the nucleus binary.
//
// A [Program] owns the command tree and the process streams. Groups
// dispatch on their first argument; a leaf parses its pflag flags,
// together with --config and -v/--verbose which every leaf accepts,
// and runs with an [Invocation] carrying the result. Unknown commands
// and flags are answered with the closest known name. The invocation
// builds the slog logger a command logs through and prints
// machine-readable results as JSON.
package cli
