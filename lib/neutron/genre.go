// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"fmt"
	"strings"
)

// Genre is the kind of filesystem object.
type Genre uint8

const (
	GenreFile Genre = iota + 1
	GenreDirectory
	GenreLink
)

func (g Genre) String() string {
	switch g {
	case GenreFile:
		return "file"
	case GenreDirectory:
		return "directory"
	case GenreLink:
		return "link"
	default:
		return fmt.Sprintf("genre(%d)", g)
	}
}

// Valid reports whether g is a known genre.
func (g Genre) Valid() bool {
	return g >= GenreFile && g <= GenreLink
}

// ParseGenre parses the String form of a genre.
func ParseGenre(name string) (Genre, error) {
	for _, genre := range []Genre{GenreFile, GenreDirectory, GenreLink} {
		if genre.String() == name {
			return genre, nil
		}
	}
	return 0, fmt.Errorf("neutron: unknown genre %q", name)
}

// Permissions is a bitmask of what a subject may do.
type Permissions uint8

const (
	PermissionsNone  Permissions = 0
	PermissionsRead  Permissions = 1 << 0
	PermissionsWrite Permissions = 1 << 1

	PermissionsReadWrite = PermissionsRead | PermissionsWrite
)

// Has reports whether every bit of want is granted.
func (p Permissions) Has(want Permissions) bool { return p&want == want }

// Valid reports whether p only uses known bits.
func (p Permissions) Valid() bool { return p&^PermissionsReadWrite == 0 }

func (p Permissions) String() string {
	var text strings.Builder
	text.WriteByte('-')
	if p.Has(PermissionsRead) {
		text.WriteByte('r')
	}
	if p.Has(PermissionsWrite) {
		text.WriteByte('w')
	}
	if text.Len() == 1 {
		return "none"
	}
	return text.String()[1:]
}

// ParsePermissions parses "none", "r", "w" or "rw".
func ParsePermissions(text string) (Permissions, error) {
	if text == "none" {
		return PermissionsNone, nil
	}
	var permissions Permissions
	for _, letter := range text {
		switch letter {
		case 'r':
			permissions |= PermissionsRead
		case 'w':
			permissions |= PermissionsWrite
		default:
			return 0, fmt.Errorf("neutron: invalid permissions %q", text)
		}
	}
	if text == "" {
		return 0, fmt.Errorf("neutron: empty permissions")
	}
	return permissions, nil
}
