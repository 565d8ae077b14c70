// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proton

import "fmt"

// Operation is what an Action does to the depot.
type Operation uint8

const (
	// OperationPush stores a new block.
	OperationPush Operation = iota + 1

	// OperationWipe erases a block that is no longer referenced.
	OperationWipe
)

func (o Operation) String() string {
	switch o {
	case OperationPush:
		return "push"
	case OperationWipe:
		return "wipe"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Action is one pending change. Contents is set for pushes only.
type Action struct {
	Operation Operation
	Address   Address
	Contents  *Contents
}

// Transcript is an ordered list of actions. Applying it in order makes
// the depot reflect every seal since the last transcription.
type Transcript []Action

// Pushes returns the number of push actions.
func (t Transcript) Pushes() int {
	count := 0
	for _, action := range t {
		if action.Operation == OperationPush {
			count++
		}
	}
	return count
}

// Wipes returns the number of wipe actions.
func (t Transcript) Wipes() int {
	return len(t) - t.Pushes()
}
