// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package porcupine

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt reports sealed input that cannot be opened or
	// decoded: the wrong secret, damaged bytes, or an impossible
	// structure.
	ErrCorrupt = errors.New("porcupine: corrupt collection")

	// ErrInconsistent is matched by every InconsistencyError.
	ErrInconsistent = errors.New("porcupine: structural inconsistency")
)

// InconsistencyError describes the first violation Check found.
type InconsistencyError struct {
	// Check is the flag whose check failed.
	Check CheckFlags

	// Path locates the node: the inlet indexes from the root.
	Path []int

	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("porcupine: %s check failed at %v: %s", e.Check, e.Path, e.Reason)
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistent }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
