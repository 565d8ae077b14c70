// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import "fmt"

// Openness tells who may join a network.
type Openness uint8

const (
	// OpennessOpen networks accept any user.
	OpennessOpen Openness = iota + 1

	// OpennessCommunity networks accept users vouched for by members.
	OpennessCommunity

	// OpennessClosed networks accept users the administrator invites.
	OpennessClosed
)

var opennessNames = map[Openness]string{
	OpennessOpen:      "open",
	OpennessCommunity: "community",
	OpennessClosed:    "closed",
}

func (o Openness) String() string {
	if name, ok := opennessNames[o]; ok {
		return name
	}
	return fmt.Sprintf("openness(%d)", uint8(o))
}

// Valid reports whether o is a defined openness.
func (o Openness) Valid() bool {
	_, ok := opennessNames[o]
	return ok
}

// ParseOpenness reads the String form.
func ParseOpenness(name string) (Openness, error) {
	for openness, known := range opennessNames {
		if known == name {
			return openness, nil
		}
	}
	return 0, fmt.Errorf("descriptor: unknown openness %q", name)
}

// Policy tells how content is shared across a network.
type Policy uint8

const (
	// PolicyPrivate keeps objects readable by their access lists only.
	PolicyPrivate Policy = iota + 1

	// PolicyPublic makes root content readable by everybody.
	PolicyPublic

	// PolicyEditable makes root content writable by everybody.
	PolicyEditable
)

var policyNames = map[Policy]string{
	PolicyPrivate:  "private",
	PolicyPublic:   "public",
	PolicyEditable: "editable",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// Valid reports whether p is a defined policy.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParsePolicy reads the String form.
func ParsePolicy(name string) (Policy, error) {
	for policy, known := range policyNames {
		if known == name {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("descriptor: unknown policy %q", name)
}

// Model is the storage model of a network.
type Model uint8

// ModelStandard stores blocks as proton blocks in depots.
const ModelStandard Model = 1

func (m Model) String() string {
	if m == ModelStandard {
		return "standard"
	}
	return fmt.Sprintf("model(%d)", uint8(m))
}

// ParseModel reads the String form.
func ParseModel(name string) (Model, error) {
	if name == "standard" {
		return ModelStandard, nil
	}
	return 0, fmt.Errorf("descriptor: unknown model %q", name)
}
