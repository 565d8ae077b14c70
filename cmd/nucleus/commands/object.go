// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nucleus/cmd/nucleus/cli"
	"github.com/bureau-foundation/nucleus/lib/automaton"
	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/neutron"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

func objectCommand() *cli.Command {
	return &cli.Command{
		Name:    "object",
		Summary: "Create, inspect and modify objects",
		Details: `Objects are files, directories and links stored in the configured
depot. Every command acts with the key pair named by --keys, or the
default key under paths.keys, and stores a new revision when it
changes anything.`,
		Commands: []*cli.Command{
			objectCreateCommand(),
			objectShowCommand(),
			objectWriteCommand(),
			objectReadCommand(),
			objectAddCommand(),
			objectRemoveCommand(),
			objectBindCommand(),
			objectGrantCommand(),
			objectRevokeCommand(),
		},
	}
}

// objectFlags are shared by every object command.
type objectFlags struct {
	keysPath string
}

func (o *objectFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.keysPath, "keys", "", "key seed file (default: the default key under paths.keys)")
}

// session is an opened environment with the acting key pair.
type session struct {
	*environment
	keys *cryptography.KeyPair
}

func (o *objectFlags) session(invocation *cli.Invocation) (*session, error) {
	env, err := openEnvironment(invocation)
	if err != nil {
		return nil, err
	}
	keys, err := env.readKeys(o.keysPath)
	if err != nil {
		env.Close()
		return nil, err
	}
	return &session{environment: env, keys: keys}, nil
}

func (s *session) load(ctx context.Context, text string) (*automaton.Context, error) {
	address, err := proton.ParseAddress(text)
	if err != nil {
		return nil, err
	}
	return automaton.Load(ctx, s.automaton(), address, s.keys)
}

// modify loads the object at text, applies change and stores the
// result.
func (o *objectFlags) modify(invocation *cli.Invocation, text string, change func(context.Context, *automaton.Context) error) error {
	s, err := o.session(invocation)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := context.Background()
	object, err := s.load(ctx, text)
	if err != nil {
		return err
	}
	defer object.Close()
	if err := change(ctx, object); err != nil {
		return err
	}
	return object.Store(ctx)
}

func objectCreateCommand() *cli.Command {
	var (
		flags objectFlags
		genre string
	)
	return &cli.Command{
		Name:    "create",
		Summary: "Create an empty object",
		Usage:   "[--genre file|directory|link] [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			flagSet.StringVar(&genre, "genre", neutron.GenreFile.String(), "object genre")
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			parsed, err := neutron.ParseGenre(genre)
			if err != nil {
				return err
			}
			session, err := flags.session(invocation)
			if err != nil {
				return err
			}
			defer session.Close()
			object, err := automaton.Create(session.automaton(), parsed, session.keys)
			if err != nil {
				return err
			}
			defer object.Close()
			if err := object.Store(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(invocation.Stdout, object.Address())
			return nil
		},
	}
}

// objectSummary is the JSON form of "object show".
type objectSummary struct {
	Address      string         `json:"address"`
	Genre        string         `json:"genre"`
	Owner        string         `json:"owner"`
	Revision     uint64         `json:"revision"`
	Size         uint64         `json:"size"`
	Author       string         `json:"author"`
	Modified     time.Time      `json:"modified"`
	MetaRevision uint64         `json:"meta_revision"`
	DataRevision uint64         `json:"data_revision"`
	Entries      []entrySummary `json:"entries,omitempty"`
	Target       string         `json:"target,omitempty"`
}

type entrySummary struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func summarizeObject(ctx context.Context, object *automaton.Context) (objectSummary, error) {
	neutronObject := object.Object()
	summary := objectSummary{
		Address:      object.Address().String(),
		Genre:        neutronObject.Meta.Genre.String(),
		Owner:        neutronObject.Owner().String(),
		Revision:     neutronObject.Block.Revision,
		Size:         object.Size(),
		Author:       neutronObject.Data.Author.String(),
		Modified:     time.Unix(0, neutronObject.Data.ModificationTimestamp).UTC(),
		MetaRevision: neutronObject.Meta.Revision,
		DataRevision: neutronObject.Data.Revision,
	}
	var err error
	switch neutronObject.Meta.Genre {
	case neutron.GenreDirectory:
		var entries []neutron.Entry
		entries, err = object.List(ctx, 0, object.Size())
		for _, entry := range entries {
			summary.Entries = append(summary.Entries, entrySummary{Name: entry.Name, Address: entry.Address.String()})
		}
	case neutron.GenreLink:
		summary.Target, err = object.Resolve(ctx)
	}
	if errors.Is(err, automaton.ErrPermission) {
		err = nil
	}
	return summary, err
}

func objectShowCommand() *cli.Command {
	var (
		flags      objectFlags
		jsonOutput bool
	)
	return &cli.Command{
		Name:    "show",
		Summary: "Print an object's header and listing",
		Details: `Print the object's header. Directories also list their entries and
links their target when the key may read them.`,
		Usage: "<address> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			flagSet.BoolVar(&jsonOutput, "json", false, "print JSON")
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 1 {
				return errors.New("usage: nucleus object show <address>")
			}
			session, err := flags.session(invocation)
			if err != nil {
				return err
			}
			defer session.Close()
			ctx := context.Background()
			object, err := session.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer object.Close()
			summary, err := summarizeObject(ctx, object)
			if err != nil {
				return err
			}
			if jsonOutput {
				return invocation.PrintJSON(summary)
			}
			fmt.Fprintf(invocation.Stdout, "address:   %s\n", summary.Address)
			fmt.Fprintf(invocation.Stdout, "genre:     %s\n", summary.Genre)
			fmt.Fprintf(invocation.Stdout, "owner:     %s\n", summary.Owner)
			fmt.Fprintf(invocation.Stdout, "revision:  %d (meta %d, data %d)\n", summary.Revision, summary.MetaRevision, summary.DataRevision)
			fmt.Fprintf(invocation.Stdout, "size:      %d\n", summary.Size)
			fmt.Fprintf(invocation.Stdout, "author:    %s\n", summary.Author)
			fmt.Fprintf(invocation.Stdout, "modified:  %s\n", summary.Modified.Format(time.RFC3339Nano))
			if summary.Target != "" {
				fmt.Fprintf(invocation.Stdout, "target:    %s\n", summary.Target)
			}
			for _, entry := range summary.Entries {
				fmt.Fprintf(invocation.Stdout, "%s\t%s\n", entry.Address, entry.Name)
			}
			return nil
		},
	}
}

func objectWriteCommand() *cli.Command {
	var (
		flags    objectFlags
		offset   uint64
		truncate bool
	)
	return &cli.Command{
		Name:    "write",
		Summary: "Write stdin into a file",
		Usage:   "<address> [--offset N] [--truncate] [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			flagSet.Uint64Var(&offset, "offset", 0, "byte offset to write at; a gap past the end is zero-filled")
			flagSet.BoolVar(&truncate, "truncate", false, "cut the file at the end of the written range")
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 1 {
				return errors.New("usage: nucleus object write <address>")
			}
			payload, err := io.ReadAll(invocation.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, object *automaton.Context) error {
				if err := object.Write(ctx, offset, payload); err != nil {
					return err
				}
				if truncate {
					return object.Adjust(ctx, offset+uint64(len(payload)))
				}
				return nil
			})
		},
	}
}

func objectReadCommand() *cli.Command {
	var (
		flags  objectFlags
		offset uint64
		size   int64
	)
	return &cli.Command{
		Name:    "read",
		Summary: "Copy a file to stdout",
		Usage:   "<address> [--offset N] [--size N] [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			flagSet.Uint64Var(&offset, "offset", 0, "byte offset to start at")
			flagSet.Int64Var(&size, "size", -1, "bytes to read (default: to the end)")
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 1 {
				return errors.New("usage: nucleus object read <address>")
			}
			session, err := flags.session(invocation)
			if err != nil {
				return err
			}
			defer session.Close()
			ctx := context.Background()
			object, err := session.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer object.Close()
			length := object.Size()
			if size >= 0 {
				length = uint64(size)
			}
			data, err := object.Read(ctx, offset, length)
			if err != nil {
				return err
			}
			_, err = invocation.Stdout.Write(data)
			return err
		},
	}
}

func objectAddCommand() *cli.Command {
	var flags objectFlags
	return &cli.Command{
		Name:    "add",
		Summary: "Add an entry to a directory",
		Usage:   "<directory> <name> <address> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 3 {
				return errors.New("usage: nucleus object add <directory> <name> <address>")
			}
			target, err := proton.ParseAddress(args[2])
			if err != nil {
				return err
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, directory *automaton.Context) error {
				return directory.Add(ctx, args[1], target)
			})
		},
	}
}

func objectRemoveCommand() *cli.Command {
	var flags objectFlags
	return &cli.Command{
		Name:    "remove",
		Summary: "Remove an entry from a directory",
		Usage:   "<directory> <name> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 2 {
				return errors.New("usage: nucleus object remove <directory> <name>")
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, directory *automaton.Context) error {
				entry, err := directory.Remove(ctx, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(invocation.Stdout, entry.Address)
				return nil
			})
		},
	}
}

func objectBindCommand() *cli.Command {
	var flags objectFlags
	return &cli.Command{
		Name:    "bind",
		Summary: "Set the target of a link",
		Usage:   "<link> <target> [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 2 {
				return errors.New("usage: nucleus object bind <link> <target>")
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, link *automaton.Context) error {
				return link.Bind(ctx, args[1])
			})
		},
	}
}

// subjectFlags name the subject of a grant or revocation.
type subjectFlags struct {
	userKey string
	group   string
}

func (f *subjectFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.userKey, "user-key", "", "user public key (hex)")
	flagSet.StringVar(&f.group, "group", "", "group address")
}

func (f *subjectFlags) subject() (neutron.Subject, error) {
	switch {
	case f.userKey != "" && f.group != "":
		return neutron.Subject{}, errors.New("--user-key and --group are mutually exclusive")
	case f.userKey != "":
		key, err := cryptography.ParsePublicKey(f.userKey)
		if err != nil {
			return neutron.Subject{}, fmt.Errorf("--user-key: %w", err)
		}
		return neutron.UserSubject(key), nil
	case f.group != "":
		address, err := proton.ParseAddress(f.group)
		if err != nil {
			return neutron.Subject{}, fmt.Errorf("--group: %w", err)
		}
		return neutron.GroupSubject(address), nil
	default:
		return neutron.Subject{}, errors.New("one of --user-key or --group is required")
	}
}

func objectGrantCommand() *cli.Command {
	var (
		flags       objectFlags
		subject     subjectFlags
		permissions string
	)
	return &cli.Command{
		Name:    "grant",
		Summary: "Grant a user or group access to an object",
		Details: `Add or replace the subject's access record. Users granted read
receive the object's secret. Write alone does not let a user change
contents, since writing needs the secret as well.`,
		Usage: "<address> (--user-key <hex> | --group <address>) [--permissions rw] [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			subject.register(flagSet)
			flagSet.StringVar(&permissions, "permissions", "r", "none, r, w or rw")
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 1 {
				return errors.New("usage: nucleus object grant <address>")
			}
			who, err := subject.subject()
			if err != nil {
				return err
			}
			parsed, err := neutron.ParsePermissions(permissions)
			if err != nil {
				return err
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, object *automaton.Context) error {
				return object.Grant(ctx, who, parsed)
			})
		},
		Examples: []string{
			"nucleus object grant <address> --user-key <hex> --permissions rw",
		},
	}
}

func objectRevokeCommand() *cli.Command {
	var (
		flags   objectFlags
		subject subjectFlags
	)
	return &cli.Command{
		Name:    "revoke",
		Summary: "Remove a user's or group's access to an object",
		Details: `Remove the subject's access record. Revoking a reader rotates the
object's secret and reseals its contents.`,
		Usage: "<address> (--user-key <hex> | --group <address>) [flags]",
		Flags: func(flagSet *pflag.FlagSet) {
			flags.register(flagSet)
			subject.register(flagSet)
		},
		Run: func(invocation *cli.Invocation) error {
			args := invocation.Args
			if len(args) != 1 {
				return errors.New("usage: nucleus object revoke <address>")
			}
			who, err := subject.subject()
			if err != nil {
				return err
			}
			return flags.modify(invocation, args[0], func(ctx context.Context, object *automaton.Context) error {
				return object.Revoke(ctx, who)
			})
		},
	}
}
