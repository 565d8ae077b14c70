// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock so that modification
// timestamps recorded in objects can be controlled by tests.
//
// Production code takes a [Clock] and is handed [Real]. Tests hand in a
// [FakeClock] from [Fake], which stands still until [FakeClock.Advance]
// or [FakeClock.Set] moves it. Because timestamps are part of the
// signed tuples of an object, a fixed clock makes sealed bytes
// reproducible across test runs.
//
// Nucleus never sleeps or schedules timers inside the storage core, so
// the interface only has Now.
package clock
