// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("descriptor: validation failed")

	// ErrUnsupported reports a network this build cannot take part in.
	ErrUnsupported = errors.New("descriptor: unsupported network")

	// ErrNotFound reports a descriptor missing from a Store.
	ErrNotFound = errors.New("descriptor: not found")
)

// Sections named by ValidationError.
const (
	SectionMeta = "meta"
	SectionData = "data"
)

// ValidationError reports which section of a descriptor failed.
type ValidationError struct {
	Section string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("descriptor: %s section invalid: %v", e.Section, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
