// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/cli"
	"github.com/bureau-foundation/nucleus/lib/automaton"
	"github.com/bureau-foundation/nucleus/lib/clock"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/descriptor"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/version"
)

func networkCommand() *cli.Command {
	return &cli.Command{
		Name:    "network",
		Summary: "Create and inspect network descriptors",
		Details: `A network descriptor has two signed sections. The authority signs the
meta section, which fixes the administrator, the root directory and
the everybody group. The administrator signs the data section, which
carries the network's name, policies and the release it was written
by. Descriptors are stored per user in the configured depot.`,
		Commands: []*cli.Command{
			networkCreateCommand(),
			networkShowCommand(),
			networkVerifyCommand(),
		},
	}
}

func networkCreateCommand() *cli.Command {
	var (
		templatePath  string
		authorityPath string
		keysPath      string
		user          string
	)
	return &cli.Command{
		Name:    "create",
		Summary: "Create a network from a template",
		Details: `Create the everybody group and the root directory, both owned by the
administrator, then sign and store the network descriptor. An
existing descriptor of the same identifier is never overwritten.`,
		Usage: "--template <file> --authority <seed> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&templatePath, "template", "", "network template (JSONC)")
			flagSet.StringVar(&authorityPath, "authority", "", "authority key seed file")
			flagSet.StringVar(&keysPath, "keys", "", "administrator key seed file (default: the authority key)")
			flagSet.StringVar(&user, "user", defaultUser(), "user the descriptor is stored for")
		},
		Run: func(invocation *cli.Invocation) error {
			if len(invocation.Args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", invocation.Args)
			}
			if templatePath == "" {
				return errors.New("--template is required")
			}
			if authorityPath == "" {
				return errors.New("--authority is required")
			}
			if keysPath == "" {
				keysPath = authorityPath
			}
			template, err := descriptor.ReadTemplate(templatePath)
			if err != nil {
				return err
			}

			env, err := openEnvironment(invocation)
			if err != nil {
				return err
			}
			defer env.Close()
			authority, err := env.readKeys(authorityPath)
			if err != nil {
				return err
			}
			administrator, err := env.readKeys(keysPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			store := env.descriptors()
			exists, err := store.Exists(ctx, user, template.Identifier)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("network %q already exists for %s", template.Identifier, user)
			}

			d, err := createNetwork(ctx, env, template, authority, administrator)
			if err != nil {
				return err
			}
			if err := store.Store(ctx, user, template.Identifier, d); err != nil {
				return err
			}
			env.logger.Info("network created",
				"network", template.Identifier,
				"root", d.Meta.Root.String(),
				"administrator", administrator.Public().String(),
			)
			fmt.Fprintf(invocation.Stdout, "%s\t%s\n", template.Identifier, d.Meta.Root)
			return nil
		},
		Examples: []string{
			"nucleus network create --template builders.jsonc --authority ./authority.seed",
		},
	}
}

// createNetwork stores the network's initial objects and returns its
// validated descriptor.
func createNetwork(ctx context.Context, env *environment, template *descriptor.Template, authority, administrator *cryptography.KeyPair) (*descriptor.Descriptor, error) {
	config := env.automaton()
	config.Layout.Extent = int(template.Extent)
	if err := config.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("network template: %w", err)
	}

	everybody, err := automaton.Create(config, neutron.GenreDirectory, administrator)
	if err != nil {
		return nil, err
	}
	if err := everybody.Store(ctx); err != nil {
		return nil, fmt.Errorf("storing the everybody group: %w", err)
	}
	root, err := automaton.Create(config, neutron.GenreDirectory, administrator)
	if err != nil {
		return nil, err
	}
	if err := root.Store(ctx); err != nil {
		return nil, fmt.Errorf("storing the root directory: %w", err)
	}
	rootObject, err := root.Object().Encode()
	if err != nil {
		return nil, err
	}

	metaFields, err := template.MetaFields(administrator.Public(), root.Address(), rootObject, everybody.Address())
	if err != nil {
		return nil, err
	}
	meta, err := descriptor.SignMeta(metaFields, authority)
	if err != nil {
		return nil, err
	}
	dataFields, err := template.DataFields(version.Current())
	if err != nil {
		return nil, err
	}
	data, err := descriptor.SignData(dataFields, administrator)
	if err != nil {
		return nil, err
	}
	d := descriptor.New(meta, data)
	if err := d.Validate(authority.Public()); err != nil {
		return nil, err
	}
	return d, nil
}

// networkSummary is the JSON form of "network show".
type networkSummary struct {
	Identifier    string `json:"identifier"`
	Name          string `json:"name"`
	Administrator string `json:"administrator"`
	Model         string `json:"model"`
	Openness      string `json:"openness"`
	Policy        string `json:"policy"`
	Root          string `json:"root"`
	Everybody     string `json:"everybody"`
	History       bool   `json:"history"`
	Extent        uint32 `json:"extent"`
	Version       string `json:"version"`
}

func summarizeNetwork(d *descriptor.Descriptor) networkSummary {
	return networkSummary{
		Identifier:    d.Meta.Identifier,
		Name:          d.Data.Name,
		Administrator: d.Meta.Administrator.String(),
		Model:         d.Meta.Model.String(),
		Openness:      d.Data.Openness.String(),
		Policy:        d.Data.Policy.String(),
		Root:          d.Meta.Root.String(),
		Everybody:     d.Meta.Everybody.String(),
		History:       d.Meta.History,
		Extent:        d.Meta.Extent,
		Version:       d.Data.Version.String(),
	}
}

func networkShowCommand() *cli.Command {
	var (
		user       string
		jsonOutput bool
	)
	return &cli.Command{
		Name:    "show",
		Summary: "Print a stored network descriptor",
		Usage:   "<network> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&user, "user", defaultUser(), "user the descriptor is stored for")
			flagSet.BoolVar(&jsonOutput, "json", false, "print JSON")
		},
		Run: func(invocation *cli.Invocation) error {
			if len(invocation.Args) != 1 {
				return errors.New("usage: nucleus network show <network>")
			}
			env, err := openEnvironment(invocation)
			if err != nil {
				return err
			}
			defer env.Close()
			d, err := env.descriptors().Load(context.Background(), user, invocation.Args[0])
			if err != nil {
				return err
			}
			summary := summarizeNetwork(d)
			if jsonOutput {
				return invocation.PrintJSON(summary)
			}
			out := invocation.Stdout
			fmt.Fprintf(out, "identifier:     %s\n", summary.Identifier)
			fmt.Fprintf(out, "name:           %s\n", summary.Name)
			fmt.Fprintf(out, "administrator:  %s\n", summary.Administrator)
			fmt.Fprintf(out, "model:          %s\n", summary.Model)
			fmt.Fprintf(out, "openness:       %s\n", summary.Openness)
			fmt.Fprintf(out, "policy:         %s\n", summary.Policy)
			fmt.Fprintf(out, "root:           %s\n", summary.Root)
			fmt.Fprintf(out, "everybody:      %s\n", summary.Everybody)
			fmt.Fprintf(out, "history:        %t\n", summary.History)
			fmt.Fprintf(out, "extent:         %d\n", summary.Extent)
			fmt.Fprintf(out, "version:        %s\n", summary.Version)
			return nil
		},
	}
}

func networkVerifyCommand() *cli.Command {
	var (
		user         string
		authorityKey string
	)
	return &cli.Command{
		Name:    "verify",
		Summary: "Check a stored network descriptor",
		Details: `Verify both descriptor signatures against the authority key, check
that this build can read the formats the network was written in,
validate the root directory snapshot, and load the root directory
from the depot. Prints "ok" or the first failure and exits 1 on
failure.`,
		Usage: "<network> --authority-key <hex> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&user, "user", defaultUser(), "user the descriptor is stored for")
			flagSet.StringVar(&authorityKey, "authority-key", "", "authority public key (hex)")
		},
		Run: func(invocation *cli.Invocation) error {
			if len(invocation.Args) != 1 {
				return errors.New("usage: nucleus network verify <network>")
			}
			authority, err := cryptography.ParsePublicKey(authorityKey)
			if err != nil {
				return fmt.Errorf("--authority-key: %w", err)
			}
			network := invocation.Args[0]
			env, err := openEnvironment(invocation)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx := context.Background()
			d, err := env.descriptors().Load(ctx, user, network)
			if err != nil {
				return err
			}
			if err := verifyNetwork(ctx, env, d, authority); err != nil {
				env.logger.Warn("network verification failed", "network", network, "error", err)
				fmt.Fprintf(invocation.Stdout, "FAIL\t%s\t%v\n", network, err)
				return &cli.ExitError{Code: 1}
			}
			fmt.Fprintf(invocation.Stdout, "ok\t%s\n", network)
			return nil
		},
	}
}

func verifyNetwork(ctx context.Context, env *environment, d *descriptor.Descriptor, authority cryptography.PublicKey) error {
	if err := d.Validate(authority); err != nil {
		return err
	}
	if err := d.Data.Supports(version.Current()); err != nil {
		return err
	}
	if _, err := d.Meta.RootSnapshot(ctx, clock.Real()); err != nil {
		return err
	}
	// Loading validates signatures only, so any key pair will do.
	reader, err := cryptography.Generate()
	if err != nil {
		return err
	}
	root, err := automaton.Load(ctx, env.automaton(), d.Meta.Root, reader)
	if err != nil {
		return fmt.Errorf("loading root directory: %w", err)
	}
	defer root.Close()
	if root.Object().Meta.Genre != neutron.GenreDirectory {
		return fmt.Errorf("root %s is a %s", d.Meta.Root, root.Object().Meta.Genre)
	}
	return nil
}
