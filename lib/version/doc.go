// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version holds build information and the comparable release
// numbers recorded in network descriptors.
//
// Four variables are injected at build time with -ldflags -X:
// [GitCommit], [GitDirty], [BuildTime] and [Release]. They default to
// "unknown" and "0.1.0-dev" in development builds and tests. [Info],
// [Full] and [Short] format them for --version output.
//
// A [Version] is a major.minor.subminor triple. Descriptors record the
// version a network was created with, and the formats a block type
// is written in are compared against the running [Current] version
// before a node is written in a newer format.
package version
