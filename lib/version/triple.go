// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Version is a release number. The zero Version is 0.0.0.
type Version struct {
	Major    uint16 `cbor:"1,keyasint" json:"major"`
	Minor    uint16 `cbor:"2,keyasint" json:"minor"`
	Subminor uint16 `cbor:"3,keyasint" json:"subminor"`
}

// New returns major.minor.subminor.
func New(major, minor, subminor uint16) Version {
	return Version{Major: major, Minor: minor, Subminor: subminor}
}

// Parse reads "major.minor.subminor". A pre-release suffix after a
// hyphen ("0.1.0-dev") is ignored.
func Parse(text string) (Version, error) {
	core, _, _ := strings.Cut(text, "-")
	parts := strings.Split(strings.TrimPrefix(core, "v"), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version: %q is not major.minor.subminor", text)
	}
	var numbers [3]uint16
	for index, part := range parts {
		number, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("version: %q: %w", text, err)
		}
		numbers[index] = uint16(number)
	}
	return New(numbers[0], numbers[1], numbers[2]), nil
}

// Current is the parsed Release. A Release that does not parse (a
// hand-set development string) yields 0.0.0.
func Current() Version {
	current, err := Parse(Release)
	if err != nil {
		return Version{}
	}
	return current
}

// Compare returns -1, 0 or +1 as v sorts before, equal to or after
// other.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Subminor, other.Subminor)
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Subminor)
}
