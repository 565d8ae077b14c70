// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package descriptor describes a network: the settings every node of
// it agrees on, signed by the keys allowed to set them.
//
// A [Descriptor] has two sections. [Meta] is signed once by the
// network's authority when the network is created and never changes:
// the identifier, the administrator's key, the storage model, the root
// directory (its address and the object as first sealed), the address
// of the "everybody" group, the history flag and the porcupine extent.
// [Data] is signed by the administrator named in Meta and is replaced
// over the network's lifetime: the display name, openness and sharing
// policy, snapshots of bootstrap blocks, the release the network was
// last updated with, and the wire format of every block type.
//
// Each section is validated against its own key. [Descriptor.Validate]
// passes only when both do; a failure is a *[ValidationError] naming
// the section. [Descriptor.Update] installs a new Data section without
// signing anything: the caller signs with [SignData] first.
//
// [Data.Supports] tells a node whether it can take part in a network:
// the network's release and block formats must not be newer than what
// this build writes.
//
// Descriptors are persisted in a depot through a [Store], keyed by the
// user who holds them and the network identifier. Networks are usually
// created from a JSONC [Template].
package descriptor
