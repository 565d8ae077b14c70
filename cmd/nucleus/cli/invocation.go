// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Invocation is one run of a leaf command: its arguments, the common
// flags every leaf accepts and the program's streams.
type Invocation struct {
	// Path holds the command names from the program down to the leaf.
	Path []string
	// Args are the positional arguments left after flag parsing.
	Args []string

	// ConfigPath is the --config flag, empty when not given.
	ConfigPath string
	// Verbose is the -v/--verbose flag.
	Verbose bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command returns the leaf's path without the program name, such as
// "object write".
func (inv *Invocation) Command() string {
	if len(inv.Path) < 2 {
		return strings.Join(inv.Path, " ")
	}
	return strings.Join(inv.Path[1:], " ")
}

// flagSet builds the leaf's flags: the common ones, -h/--help and
// whatever the command registers.
func (inv *Invocation) flagSet(command *Command) (*pflag.FlagSet, *bool) {
	flagSet := pflag.NewFlagSet(strings.Join(inv.Path, " "), pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SortFlags = false
	if command.Flags != nil {
		command.Flags(flagSet)
	}
	flagSet.StringVar(&inv.ConfigPath, "config", "", "config file (default: $NUCLEUS_CONFIG, then built-in defaults)")
	flagSet.BoolVarP(&inv.Verbose, "verbose", "v", false, "log at debug level")
	help := flagSet.BoolP("help", "h", false, "print this help")
	return flagSet, help
}
