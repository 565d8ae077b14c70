// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import "fmt"

// Role is how the last writer of an object's data relates to it.
type Role uint8

const (
	// RoleOwner is the object's owner.
	RoleOwner Role = iota + 1

	// RoleLord is a writer granted access through an access record,
	// identified by the record's position in the access collection.
	RoleLord

	// RoleVassal is a writer acting through group membership. It
	// cannot be validated.
	RoleVassal
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleLord:
		return "lord"
	case RoleVassal:
		return "vassal"
	default:
		return fmt.Sprintf("role(%d)", r)
	}
}

// Author identifies the last writer of an object's data section. Index
// is only meaningful for RoleLord.
type Author struct {
	Role  Role   `cbor:"1,keyasint"`
	Index uint64 `cbor:"2,keyasint,omitempty"`
}

// OwnerAuthor is the author of data written by the owner.
func OwnerAuthor() Author { return Author{Role: RoleOwner} }

// LordAuthor is the author of data written by the subject of the
// access record at index.
func LordAuthor(index uint64) Author { return Author{Role: RoleLord, Index: index} }

// VassalAuthor is the author of data written through a group.
func VassalAuthor() Author { return Author{Role: RoleVassal} }

func (a Author) String() string {
	if a.Role == RoleLord {
		return fmt.Sprintf("lord[%d]", a.Index)
	}
	return a.Role.String()
}
