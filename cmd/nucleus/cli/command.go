// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// ErrUsage is returned when the arguments name no runnable command.
var ErrUsage = errors.New("usage error")

// Command is a node of the command tree. A group lists Commands and
// dispatches on its first argument; a leaf has Run.
type Command struct {
	Name    string
	Summary string

	// Details is printed above the usage line of the command's help.
	// Summary is used when it is empty.
	Details string

	// Usage is the synopsis following the command path, for example
	// "<address> [--offset N]".
	Usage string

	// Examples are complete command lines printed in help.
	Examples []string

	// Flags registers the leaf's own flags. The common flags are added
	// by the dispatcher.
	Flags func(*pflag.FlagSet)

	Commands []*Command
	Run      func(*Invocation) error
}

func (c *Command) lookup(name string) *Command {
	for _, sub := range c.Commands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// Program is the root of a command tree and the streams its commands
// use.
type Program struct {
	Name     string
	Summary  string
	Details  string
	Commands []*Command

	Stdin  io.Reader
	Stdout io.Writer
	// Stderr receives help, logs and diagnostics.
	Stderr io.Writer
}

// Root returns the program as a group command.
func (p *Program) Root() *Command {
	return &Command{Name: p.Name, Summary: p.Summary, Details: p.Details, Commands: p.Commands}
}

// Run walks args down the tree to a leaf, parses its flags and runs
// it. Help requested with -h, --help or "help" is printed to Stderr.
func (p *Program) Run(args []string) error {
	stderr := p.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	command := p.Root()
	path := []string{p.Name}

	for len(command.Commands) > 0 {
		if len(args) == 0 {
			writeHelp(stderr, command, path, nil)
			return fmt.Errorf("%w: %s needs a command", ErrUsage, strings.Join(path, " "))
		}
		if isHelp(args[0]) {
			writeHelp(stderr, command, path, nil)
			return nil
		}
		next := command.lookup(args[0])
		if next == nil {
			return unknownCommand(command, path, args[0])
		}
		command, path, args = next, append(path, next.Name), args[1:]
	}
	if command.Run == nil {
		return fmt.Errorf("%w: %s has nothing to run", ErrUsage, strings.Join(path, " "))
	}

	invocation := &Invocation{
		Path:   path,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
		Stderr: stderr,
	}
	flagSet, help := invocation.flagSet(command)
	if err := flagSet.Parse(args); err != nil {
		return flagError(err, flagSet, path)
	}
	if *help {
		writeHelp(stderr, command, path, flagSet)
		return nil
	}
	invocation.Args = flagSet.Args()
	return command.Run(invocation)
}

func unknownCommand(group *Command, path []string, name string) error {
	names := make([]string, len(group.Commands))
	for index, sub := range group.Commands {
		names[index] = sub.Name
	}
	hint := ""
	if suggestion := closest(name, names); suggestion != "" {
		hint = fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return fmt.Errorf("%w: unknown command %q%s; run '%s --help'", ErrUsage, name, hint, strings.Join(path, " "))
}

func flagError(err error, flagSet *pflag.FlagSet, path []string) error {
	hint := ""
	if name, ok := strings.CutPrefix(err.Error(), "unknown flag: --"); ok {
		var names []string
		flagSet.VisitAll(func(flag *pflag.Flag) { names = append(names, flag.Name) })
		if suggestion := closest(name, names); suggestion != "" {
			hint = fmt.Sprintf(" (did you mean --%s?)", suggestion)
		}
	}
	return fmt.Errorf("%w: %v%s; run '%s --help'", ErrUsage, err, hint, strings.Join(path, " "))
}

// writeHelp prints the help of command. flagSet is nil for groups.
func writeHelp(w io.Writer, command *Command, path []string, flagSet *pflag.FlagSet) {
	name := strings.Join(path, " ")
	if command.Details != "" {
		fmt.Fprintf(w, "%s\n\n", command.Details)
	} else if command.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", command.Summary)
	}

	switch {
	case command.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s %s\n", name, command.Usage)
	case len(command.Commands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command>\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(command.Commands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range command.Commands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
		fmt.Fprintf(w, "\nRun '%s <command> --help' for the flags of a command.\n", name)
	}
	if flagSet != nil {
		fmt.Fprintf(w, "\nFlags:\n%s", flagSet.FlagUsages())
	}
	if len(command.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range command.Examples {
			fmt.Fprintf(w, "  %s\n", example)
		}
	}
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
