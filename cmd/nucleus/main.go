// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// nucleus is the command-line front end to the object store: it
// generates keys, creates and verifies network descriptors, and
// creates, inspects and modifies objects in the configured depot.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/commands"
)

func main() {
	if err := run(); err != nil {
		// "network verify" reports failures itself and returns an
		// ExitError carrying the code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Program(os.Stdin, os.Stdout, os.Stderr).Run(os.Args[1:])
}
