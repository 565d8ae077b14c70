// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeStandsStill(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), epoch)
	}
	if !fake.Now().Equal(fake.Now()) {
		t.Error("fake clock moved without Advance")
	}
}

func TestFakeAdvanceAndSet(t *testing.T) {
	fake := Fake(epoch)
	fake.Advance(90 * time.Second)
	if want := epoch.Add(90 * time.Second); !fake.Now().Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", fake.Now(), want)
	}

	fake.Advance(-30 * time.Second)
	if want := epoch.Add(60 * time.Second); !fake.Now().Equal(want) {
		t.Errorf("after negative Advance: Now() = %v, want %v", fake.Now(), want)
	}

	target := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	fake.Set(target)
	if !fake.Now().Equal(target) {
		t.Errorf("after Set: Now() = %v, want %v", fake.Now(), target)
	}
}

func TestFakeConcurrentAdvance(t *testing.T) {
	fake := Fake(epoch)

	var group sync.WaitGroup
	for range 16 {
		group.Add(1)
		go func() {
			defer group.Done()
			fake.Advance(time.Second)
			_ = fake.Now()
		}()
	}
	group.Wait()

	if want := epoch.Add(16 * time.Second); !fake.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", fake.Now(), want)
	}
}

func TestRealMovesForward(t *testing.T) {
	wall := Real()
	first := wall.Now()
	second := wall.Now()
	if second.Before(first) {
		t.Errorf("real clock went backwards: %v then %v", first, second)
	}
}
