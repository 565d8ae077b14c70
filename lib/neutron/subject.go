// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"fmt"

	"github.com/bureau-foundation/nucleus/lib/cryptography"
	"github.com/bureau-foundation/nucleus/lib/proton"
)

// SubjectKind tells which field of a Subject is meaningful.
type SubjectKind uint8

const (
	SubjectUser SubjectKind = iota + 1
	SubjectGroup
)

func (k SubjectKind) String() string {
	switch k {
	case SubjectUser:
		return "user"
	case SubjectGroup:
		return "group"
	default:
		return fmt.Sprintf("subject(%d)", k)
	}
}

// Subject is who an access record applies to: a user identified by a
// public key, or a group identified by the address of its block.
type Subject struct {
	Kind  SubjectKind            `cbor:"1,keyasint"`
	Key   cryptography.PublicKey `cbor:"2,keyasint,omitzero"`
	Group proton.Address         `cbor:"3,keyasint,omitzero"`
}

// UserSubject returns the subject of a user key.
func UserSubject(key cryptography.PublicKey) Subject {
	return Subject{Kind: SubjectUser, Key: key}
}

// GroupSubject returns the subject of a group.
func GroupSubject(group proton.Address) Subject {
	return Subject{Kind: SubjectGroup, Group: group}
}

// Identifier is the stable text form access records are ordered by.
func (s Subject) Identifier() string {
	switch s.Kind {
	case SubjectUser:
		return "user:" + s.Key.String()
	case SubjectGroup:
		return "group:" + s.Group.Key()
	default:
		return fmt.Sprintf("invalid:%d", s.Kind)
	}
}

func (s Subject) String() string { return s.Identifier() }

// Validate checks that exactly the field selected by Kind is set.
func (s Subject) Validate() error {
	switch s.Kind {
	case SubjectUser:
		if s.Key.IsZero() || !s.Group.IsNull() {
			return fmt.Errorf("neutron: malformed user subject")
		}
	case SubjectGroup:
		if s.Group.IsNull() || !s.Key.IsZero() {
			return fmt.Errorf("neutron: malformed group subject")
		}
	default:
		return fmt.Errorf("neutron: unknown subject kind %d", s.Kind)
	}
	return nil
}
