// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/cli"
	"github.com/bureau-foundation/nucleus/lib/version"
)

// Program returns the nucleus command tree reading payloads from
// stdin, writing results to stdout and help and logs to stderr.
func Program(stdin io.Reader, stdout, stderr io.Writer) *cli.Program {
	return &cli.Program{
		Name:    "nucleus",
		Summary: "Versioned encrypted object store",
		Details: `nucleus stores filesystem objects (files, directories and links) as
signed mutable blocks whose contents are sealed into encrypted
immutable blocks, and creates the signed network descriptors that
name a network's root directory.`,
		Commands: []*cli.Command{
			keygenCommand(),
			networkCommand(),
			objectCommand(),
			versionCommand(),
		},
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the build version",
		Run: func(invocation *cli.Invocation) error {
			if len(invocation.Args) > 0 {
				return fmt.Errorf("version takes no arguments")
			}
			fmt.Fprintf(invocation.Stdout, "nucleus %s\n", version.Full())
			return nil
		},
	}
}
