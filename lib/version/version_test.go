// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"slices"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want Version
	}{
		{"0.1.0", New(0, 1, 0)},
		{"0.1.0-dev", New(0, 1, 0)},
		{"v1.22.333", New(1, 22, 333)},
	}
	for _, test := range tests {
		got, err := Parse(test.text)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.text, err)
			continue
		}
		if got != test.want {
			t.Errorf("Parse(%q) = %s, want %s", test.text, got, test.want)
		}
	}
	for _, bad := range []string{"", "1.2", "1.2.3.4", "1.x.3", "1.2.70000"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) succeeded", bad)
		}
	}
}

func TestOrdering(t *testing.T) {
	versions := []Version{New(1, 0, 0), New(0, 9, 9), New(0, 10, 0), New(0, 9, 10), New(0, 0, 1)}
	slices.SortFunc(versions, Version.Compare)
	want := []Version{New(0, 0, 1), New(0, 9, 9), New(0, 9, 10), New(0, 10, 0), New(1, 0, 0)}
	if !slices.Equal(versions, want) {
		t.Errorf("sorted %v, want %v", versions, want)
	}
	if !New(0, 9, 9).Less(New(0, 10, 0)) || New(1, 0, 0).Less(New(1, 0, 0)) {
		t.Error("Less disagrees with Compare")
	}
}

func TestCurrent(t *testing.T) {
	saved := Release
	t.Cleanup(func() { Release = saved })

	Release = "2.3.4"
	if Current() != New(2, 3, 4) {
		t.Errorf("Current() = %s with Release %q", Current(), Release)
	}
	Release = "development"
	if Current() != (Version{}) {
		t.Errorf("Current() = %s for an unparseable release", Current())
	}
	if !strings.HasPrefix(Info(), "development (") || Short() != "development" {
		t.Errorf("Info() = %q, Short() = %q", Info(), Short())
	}
}
