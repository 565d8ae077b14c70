// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendGrowthSchedule(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		required int
		want     int
	}{
		{"empty rounds to minimum", 0, 1, MinimumCapacity},
		{"exact minimum", 0, MinimumCapacity, MinimumCapacity},
		{"doubles below threshold", 32, 33, 64},
		{"doubles repeatedly", 32, 1000, 1024},
		{"reaches threshold", 2048, 2049, 4096},
		{"grows by half above threshold", 4096, 4097, 6144},
		{"grows by half repeatedly", 4096, 9000, 9216},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := grow(test.capacity, test.required); got != test.want {
				t.Errorf("grow(%d, %d) = %d, want %d", test.capacity, test.required, got, test.want)
			}
		})
	}
}

func TestAppendContents(t *testing.T) {
	var buffer Buffer
	buffer.Append([]byte("hello"))
	buffer.Append([]byte(", "))
	buffer.Append([]byte("world"))

	if got := string(buffer.Bytes()); got != "hello, world" {
		t.Errorf("contents = %q, want %q", got, "hello, world")
	}
	if buffer.Capacity() != MinimumCapacity {
		t.Errorf("capacity = %d, want %d", buffer.Capacity(), MinimumCapacity)
	}
}

func TestAppendOverlappingSource(t *testing.T) {
	// Self-append without reallocation.
	buffer := New(64)
	buffer.Append([]byte("abcdef"))
	buffer.Append(buffer.Bytes()[1:4])
	if got := string(buffer.Bytes()); got != "abcdefbcd" {
		t.Errorf("in-place self append = %q, want %q", got, "abcdefbcd")
	}

	// Self-append that forces reallocation.
	large := From(bytes.Repeat([]byte("x"), 40))
	large.Append(large.Bytes())
	if large.Size() != 80 {
		t.Fatalf("size = %d, want 80", large.Size())
	}
	if !bytes.Equal(large.Bytes(), bytes.Repeat([]byte("x"), 80)) {
		t.Error("reallocating self append corrupted contents")
	}
}

func TestResizeShrinkKeepsRegion(t *testing.T) {
	buffer := New(100)
	buffer.Append(bytes.Repeat([]byte{7}, 50))
	before := &buffer.Bytes()[0]

	buffer.Resize(10)
	if buffer.Capacity() != 100 {
		t.Errorf("capacity after shrink = %d, want 100", buffer.Capacity())
	}
	if &buffer.Bytes()[0] != before {
		t.Error("shrinking reallocated the region")
	}

	buffer.Resize(20)
	for index, value := range buffer.Bytes()[10:] {
		if value != 0 {
			t.Fatalf("byte %d exposed by growth = %d, want 0", 10+index, value)
		}
	}

	buffer.Resize(200)
	if buffer.Capacity() < 200 {
		t.Errorf("capacity after growth = %d, want >= 200", buffer.Capacity())
	}
}

func TestRelease(t *testing.T) {
	buffer := From([]byte("payload"))
	released := buffer.Release()

	if string(released) != "payload" {
		t.Errorf("released = %q, want %q", released, "payload")
	}
	if buffer.Size() != 0 {
		t.Errorf("size after release = %d, want 0", buffer.Size())
	}
	if buffer.Bytes() == nil {
		t.Error("buffer holds a nil region after release")
	}

	// The released region belongs to the caller.
	buffer.Append([]byte("other"))
	if string(released) != "payload" {
		t.Errorf("released region modified by later append: %q", released)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		left, right string
		want        int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"zz", "aaa", -1},
		{"aaa", "zz", 1},
		{"abc", "abd", -1},
		{"abd", "abc", 1},
	}
	for _, test := range tests {
		left, right := From([]byte(test.left)), From([]byte(test.right))
		if got := left.Compare(right); got != test.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", test.left, test.right, got, test.want)
		}
		if got := left.Equal(right); got != (test.want == 0) {
			t.Errorf("Equal(%q, %q) = %v", test.left, test.right, got)
		}
		if got := left.Less(right); got != (test.want < 0) {
			t.Errorf("Less(%q, %q) = %v", test.left, test.right, got)
		}
	}
}

func TestNegativeCapacityPanics(t *testing.T) {
	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok || !errors.Is(err, ErrAllocation) {
			t.Errorf("recovered %v, want ErrAllocation", recovered)
		}
	}()
	New(-1)
}
