// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Logger returns the logger of the invocation, writing to Stderr and
// tagged with the command. --verbose lowers level to debug. A terminal
// gets text lines; anything else gets JSON.
func (inv *Invocation) Logger(level slog.Level) *slog.Logger {
	if inv.Verbose {
		level = slog.LevelDebug
	}
	return newLogger(inv.Stderr, isTerminal(inv.Stderr), level).With("command", inv.Command())
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func newLogger(w io.Writer, terminal bool, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if terminal {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
