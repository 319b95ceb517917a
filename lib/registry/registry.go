// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry holds the events of one server process: a
// name-keyed set of [event.Event] values with at most one designated
// main event.
//
// Every existence check and the insertion that follows it run under a
// single registry mutex, so two concurrent starts of the same name
// cannot both succeed. When the registry needs to read an event (for
// the main event's elapsed time) it does so while holding its own
// lock; the lock order is always registry, then event.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/event"
)

// DefaultMainEventName names the main event when none is given.
const DefaultMainEventName = "MAIN"

var (
	// ErrMainEventExists is returned by StartMainEvent once a main
	// event has been created. There is no way to clear it.
	ErrMainEventExists = errors.New("main event already exists")

	// ErrNameTaken is returned when starting an event whose name is
	// already registered.
	ErrNameTaken = errors.New("event already exists")
)

// Registry is the event store of one server process.
type Registry struct {
	clock           clock.Clock
	defaultMainName string

	mu     sync.Mutex
	events map[string]*event.Event
	order  []*event.Event
	main   *event.Event
}

// New creates an empty registry. Events read time from c. An empty
// defaultMainName falls back to DefaultMainEventName.
func New(c clock.Clock, defaultMainName string) *Registry {
	if defaultMainName == "" {
		defaultMainName = DefaultMainEventName
	}
	return &Registry{
		clock:           c,
		defaultMainName: defaultMainName,
		events:          make(map[string]*event.Event),
	}
}

// StartMainEvent creates, starts, and registers the main event. An
// empty name uses the registry's default main event name.
func (r *Registry) StartMainEvent(name string, startData *string) (*event.Event, error) {
	if name == "" {
		name = r.defaultMainName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.main != nil {
		return nil, ErrMainEventExists
	}
	ev, err := r.createLocked(name, 0)
	if err != nil {
		return nil, err
	}
	if err := ev.Start(startData); err != nil {
		return nil, err
	}
	r.insertLocked(ev)
	r.main = ev
	return ev, nil
}

// StartEvent creates, starts, and registers a regular event.
func (r *Registry) StartEvent(name string, startData *string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, err := r.createLocked(name, r.baselineLocked())
	if err != nil {
		return nil, err
	}
	if err := ev.Start(startData); err != nil {
		return nil, err
	}
	r.insertLocked(ev)
	return ev, nil
}

// StartInstantEvent creates and registers an instant event carrying
// the given snapshots.
func (r *Registry) StartInstantEvent(name string, startData, endData *string, calculateDifference bool) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, err := r.createLocked(name, r.baselineLocked())
	if err != nil {
		return nil, err
	}
	if err := ev.MarkInstant(startData, endData, calculateDifference); err != nil {
		return nil, err
	}
	r.insertLocked(ev)
	return ev, nil
}

// createLocked builds an unregistered event after checking the name.
// Caller must hold r.mu.
func (r *Registry) createLocked(name string, baseline time.Duration) (*event.Event, error) {
	if _, exists := r.events[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	return event.New(name, r.clock, baseline)
}

func (r *Registry) insertLocked(ev *event.Event) {
	r.events[ev.Name()] = ev
	r.order = append(r.order, ev)
}

// baselineLocked returns the main event's elapsed time, or zero.
func (r *Registry) baselineLocked() time.Duration {
	if r.main == nil {
		return 0
	}
	return r.main.Elapsed()
}

// Get returns the event registered under name.
func (r *Registry) Get(name string) (*event.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[name]
	return ev, ok
}

// Exists reports whether an event named name is registered.
func (r *Registry) Exists(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Main returns the main event, if one was started.
func (r *Registry) Main() (*event.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.main, r.main != nil
}

// List returns every event in creation order.
func (r *Registry) List() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]*event.Event, len(r.order))
	copy(events, r.order)
	return events
}

// Names returns every event name in creation order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.order))
	for i, ev := range r.order {
		names[i] = ev.Name()
	}
	return names
}

// Len returns the number of registered events.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}
