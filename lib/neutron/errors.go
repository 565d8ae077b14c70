// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package neutron

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("neutron: validation failed")

	// ErrUnsupportedRole reports an author role that cannot be
	// resolved to a public key: a vassal, or a lord when no access
	// records were supplied.
	ErrUnsupportedRole = errors.New("neutron: unsupported author role")

	// ErrExists reports an insertion under a name already taken.
	ErrExists = errors.New("neutron: entry exists")

	// ErrNotFound reports a name or subject that is not present.
	ErrNotFound = errors.New("neutron: entry not found")

	// ErrNotOwner reports an attempt to sign the meta section with a
	// key other than the owner's.
	ErrNotOwner = errors.New("neutron: signer is not the owner")

	// ErrFormat reports an object encoded in an unsupported format.
	ErrFormat = errors.New("neutron: unsupported object format")
)

// Validation checks, in the order Validate runs them.
const (
	CheckAddress       = "address"
	CheckFormat        = "format"
	CheckMetaSignature = "meta signature"
	CheckAuthor        = "author"
	CheckDataSignature = "data signature"
	CheckRevision      = "revision"
)

// ValidationError names the validation check an object failed.
type ValidationError struct {
	Check string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("neutron: %s check failed: %v", e.Check, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrValidation) match every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(check string, format string, args ...any) error {
	return &ValidationError{Check: check, Err: fmt.Errorf(format, args...)}
}
