// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/cli"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/secret"
)

func keygenCommand() *cli.Command {
	var name string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate a key pair",
		Details: `Generate an ed25519 key pair and write its seed, hex-encoded, to an
owner-only file. The file must not exist. The public key is printed.

Without an explicit path the seed is written under paths.keys.`,
		Usage: "[path] [--name N] [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&name, "name", defaultKeyName, "seed file name under paths.keys")
		},
		Run: func(invocation *cli.Invocation) error {
			var path string
			switch len(invocation.Args) {
			case 0:
				cfg, err := loadConfig(invocation)
				if err != nil {
					return err
				}
				if err := cfg.EnsurePaths(); err != nil {
					return err
				}
				path = keyPath(cfg, name)
			case 1:
				path = invocation.Args[0]
			default:
				return fmt.Errorf("keygen takes at most one path, got %d arguments", len(invocation.Args))
			}

			keys, err := cryptography.Generate()
			if err != nil {
				return err
			}
			seed := keys.Seed()
			defer secret.Zero(seed)
			if err := secret.WriteFile(path, seed); err != nil {
				return err
			}
			fmt.Fprintf(invocation.Stdout, "%s\t%s\n", keys.Public(), path)
			return nil
		},
		Examples: []string{
			"nucleus keygen",
			"nucleus keygen ./authority.seed",
		},
	}
}
