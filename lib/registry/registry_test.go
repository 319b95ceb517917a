// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/event"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func text(s string) *string { return &s }

func TestFreshRegistryHasNoMain(t *testing.T) {
	registry := New(clock.Fake(epoch), "")
	if _, ok := registry.Main(); ok {
		t.Fatal("fresh registry reports a main event")
	}
	if registry.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", registry.Len())
	}
}

func TestStartMainEventOnce(t *testing.T) {
	registry := New(clock.Fake(epoch), "")

	main, err := registry.StartMainEvent("", nil)
	if err != nil {
		t.Fatalf("StartMainEvent: %v", err)
	}
	if main.Name() != DefaultMainEventName {
		t.Errorf("main name = %q, want %q", main.Name(), DefaultMainEventName)
	}
	if main.State() != event.StateRunning {
		t.Errorf("main state = %s, want RUNNING", main.State())
	}
	if got, ok := registry.Main(); !ok || got != main {
		t.Fatal("Main() does not return the started event")
	}
	if got, ok := registry.Get(DefaultMainEventName); !ok || got != main {
		t.Fatal("main event not registered under its own name")
	}

	for _, name := range []string{"", "other", DefaultMainEventName} {
		if _, err := registry.StartMainEvent(name, nil); !errors.Is(err, ErrMainEventExists) {
			t.Errorf("StartMainEvent(%q) second time = %v, want ErrMainEventExists", name, err)
		}
	}
}

func TestConfiguredDefaultMainName(t *testing.T) {
	registry := New(clock.Fake(epoch), "session")
	main, err := registry.StartMainEvent("", nil)
	if err != nil {
		t.Fatalf("StartMainEvent: %v", err)
	}
	if main.Name() != "session" {
		t.Errorf("main name = %q, want session", main.Name())
	}
}

func TestMainEventNameCollision(t *testing.T) {
	registry := New(clock.Fake(epoch), "")
	if _, err := registry.StartEvent("MAIN", nil); err != nil {
		t.Fatalf("StartEvent: %v", err)
	}
	if _, err := registry.StartMainEvent("", nil); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("StartMainEvent over existing name = %v, want ErrNameTaken", err)
	}
	if _, ok := registry.Main(); ok {
		t.Fatal("failed StartMainEvent left a main event behind")
	}
}

func TestStartEventNameTaken(t *testing.T) {
	registry := New(clock.Fake(epoch), "")
	for _, name := range []string{"a", "build step", "ünïcode"} {
		if _, err := registry.StartEvent(name, nil); err != nil {
			t.Fatalf("StartEvent(%q): %v", name, err)
		}
		if _, err := registry.StartEvent(name, nil); !errors.Is(err, ErrNameTaken) {
			t.Errorf("second StartEvent(%q) = %v, want ErrNameTaken", name, err)
		}
		if _, err := registry.StartInstantEvent(name, nil, nil, true); !errors.Is(err, ErrNameTaken) {
			t.Errorf("StartInstantEvent(%q) over existing = %v, want ErrNameTaken", name, err)
		}
	}
}

func TestEmptyNameRejected(t *testing.T) {
	registry := New(clock.Fake(epoch), "")
	if _, err := registry.StartEvent("", nil); !errors.Is(err, event.ErrEmptyName) {
		t.Fatalf("StartEvent(\"\") = %v, want ErrEmptyName", err)
	}
	if registry.Len() != 0 {
		t.Fatal("failed StartEvent registered an event")
	}
}

func TestBaselineOffsetFromMainEvent(t *testing.T) {
	fake := clock.Fake(epoch)
	registry := New(fake, "")

	before, _ := registry.StartEvent("before-main", nil)
	if before.BaselineOffset() != 0 {
		t.Errorf("baseline without main = %v, want 0", before.BaselineOffset())
	}

	registry.StartMainEvent("", nil)
	fake.Advance(4 * time.Second)
	after, _ := registry.StartEvent("after-main", nil)
	if after.BaselineOffset() != 4*time.Second {
		t.Errorf("baseline = %v, want 4s", after.BaselineOffset())
	}

	fake.Advance(time.Second)
	instant, _ := registry.StartInstantEvent("marker", text("x"), nil, true)
	if instant.BaselineOffset() != 5*time.Second {
		t.Errorf("instant baseline = %v, want 5s", instant.BaselineOffset())
	}
	if instant.State() != event.StateInstant {
		t.Errorf("instant state = %s", instant.State())
	}
}

func TestListPreservesCreationOrder(t *testing.T) {
	fake := clock.Fake(epoch)
	registry := New(fake, "")

	names := []string{"zeta", "alpha", "MAIN", "mid", "beta"}
	for _, name := range names {
		var err error
		if name == "MAIN" {
			_, err = registry.StartMainEvent(name, nil)
		} else {
			_, err = registry.StartEvent(name, nil)
		}
		if err != nil {
			t.Fatalf("start %q: %v", name, err)
		}
		fake.Advance(time.Millisecond)
	}

	if got := registry.Names(); !slices.Equal(got, names) {
		t.Errorf("Names() = %v, want %v", got, names)
	}
	events := registry.List()
	for i, ev := range events {
		if ev.Name() != names[i] {
			t.Errorf("List()[%d] = %q, want %q", i, ev.Name(), names[i])
		}
	}
}

func TestConcurrentStartSameName(t *testing.T) {
	registry := New(clock.Fake(epoch), "")

	const workers = 32
	var waitGroup sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range workers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			if _, err := registry.StartEvent("contended", nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrNameTaken) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	waitGroup.Wait()

	if succeeded != 1 {
		t.Fatalf("%d concurrent starts succeeded, want exactly 1", succeeded)
	}
	if registry.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", registry.Len())
	}
}

func TestConcurrentDistinctNames(t *testing.T) {
	registry := New(clock.Fake(epoch), "")
	registry.StartMainEvent("", nil)

	var waitGroup sync.WaitGroup
	for i := range 50 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			if _, err := registry.StartEvent(fmt.Sprintf("event-%d", i), nil); err != nil {
				t.Errorf("StartEvent: %v", err)
			}
		}()
	}
	waitGroup.Wait()

	if registry.Len() != 51 {
		t.Fatalf("Len() = %d, want 51", registry.Len())
	}
}
