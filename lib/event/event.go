// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/textdiff"
)

var (
	// ErrEmptyName is returned when creating an event without a name.
	ErrEmptyName = errors.New("event name cannot be empty")

	// ErrAlreadyStarted is returned by Start and MarkInstant on an
	// event that has left the UNSTARTED state.
	ErrAlreadyStarted = errors.New("is already started")

	// ErrIsInstant is returned by Start on an instant event.
	ErrIsInstant = errors.New("is an instant event")

	// ErrNotStarted is returned by Stop on an event that was never
	// started (including instant events).
	ErrNotStarted = errors.New("has not been started yet")

	// ErrAlreadyStopped is returned by Stop on a stopped event.
	ErrAlreadyStopped = errors.New("is already stopped")
)

// State is the lifecycle state of an event. The string values are the
// status names shown in reports.
type State string

const (
	StateUnstarted State = "NOT YET STARTED"
	StateRunning   State = "RUNNING"
	StateStopped   State = "STOPPED"
	StateInstant   State = "INSTANT"
)

// Kind distinguishes instants from events with a duration.
type Kind string

const (
	KindInterval Kind = "INTERVAL"
	KindInstant  Kind = "INSTANT"
)

// Event is a named, timed record with optional start and end
// snapshots. Create events through a registry; an Event is never
// shared between registries.
type Event struct {
	mu sync.Mutex

	name      string
	createdAt time.Time

	// baselineOffset is the main event's elapsed time when this event
	// was created; zero when there was no main event.
	baselineOffset time.Duration

	state   State
	counter *TimeCounter

	startData           *string
	endData             *string
	calculateDifference bool
}

// New creates an UNSTARTED event. The creation timestamp is read from
// c, which also drives the event's time counter.
func New(name string, c clock.Clock, baselineOffset time.Duration) (*Event, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Event{
		name:                name,
		createdAt:           c.Now(),
		baselineOffset:      baselineOffset,
		state:               StateUnstarted,
		counter:             NewTimeCounter(c),
		calculateDifference: true,
	}, nil
}

// Name returns the event's name.
func (e *Event) Name() string {
	return e.name
}

// CreatedAt returns the clock time at which the event was created.
func (e *Event) CreatedAt() time.Time {
	return e.createdAt
}

// BaselineOffset returns the main event's elapsed time at creation.
func (e *Event) BaselineOffset() time.Duration {
	return e.baselineOffset
}

// State returns the current lifecycle state.
func (e *Event) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Kind returns KindInstant for instant events and KindInterval
// otherwise.
func (e *Event) Kind() Kind {
	if e.State() == StateInstant {
		return KindInstant
	}
	return KindInterval
}

// MarkInstant turns an UNSTARTED event into an instant, recording the
// given snapshots. Either snapshot may be nil.
func (e *Event) MarkInstant(startData, endData *string, calculateDifference bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUnstarted {
		return e.errorf(ErrAlreadyStarted)
	}
	e.state = StateInstant
	e.startData = copyString(startData)
	e.endData = copyString(endData)
	e.calculateDifference = calculateDifference
	return nil
}

// Start moves an UNSTARTED event to RUNNING and starts its counter.
// startData may be nil.
func (e *Event) Start(startData *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateInstant:
		return e.errorf(ErrIsInstant)
	case StateRunning, StateStopped:
		return e.errorf(ErrAlreadyStarted)
	}
	if err := e.counter.Start(); err != nil {
		return fmt.Errorf("event %s: %w", e.name, err)
	}
	e.state = StateRunning
	e.startData = copyString(startData)
	return nil
}

// Stop moves a RUNNING event to STOPPED, freezing its elapsed time.
// endData may be nil. calculateDifference controls whether the report
// includes the snapshot difference.
func (e *Event) Stop(endData *string, calculateDifference bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateUnstarted, StateInstant:
		return e.errorf(ErrNotStarted)
	case StateStopped:
		return e.errorf(ErrAlreadyStopped)
	}
	if err := e.counter.Stop(); err != nil {
		return fmt.Errorf("event %s: %w", e.name, err)
	}
	e.state = StateStopped
	e.endData = copyString(endData)
	e.calculateDifference = calculateDifference
	return nil
}

// Elapsed returns the event's running time. For a RUNNING event the
// live time is folded in first, so repeated reads never decrease.
// Instant events always report zero.
func (e *Event) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

// ElapsedSeconds is Elapsed in seconds with millisecond precision.
func (e *Event) ElapsedSeconds() float64 {
	return Seconds(e.Elapsed())
}

func (e *Event) elapsedLocked() time.Duration {
	if e.state == StateRunning {
		// Fold cannot fail while the state says RUNNING.
		_ = e.counter.Fold()
	}
	return e.counter.Elapsed()
}

// Report captures the event's current state for rendering.
func (e *Event) Report() Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := Report{
		Name:            e.name,
		Timestamp:       e.createdAt,
		StartingTime:    Seconds(e.baselineOffset),
		Status:          e.state,
		HasStartingData: e.startData != nil,
		HasEndingData:   e.endData != nil,
		StartingData:    copyString(e.startData),
		EndingData:      copyString(e.endData),
	}
	if e.state == StateInstant {
		report.ElapsedTime = InstantMarker
	} else {
		report.ElapsedTime = formatSeconds(Seconds(e.elapsedLocked()))
	}
	if e.startData != nil && e.endData != nil && e.calculateDifference {
		report.DataDifference = textdiff.Diff(*e.startData, *e.endData)
	}
	return report
}

// errorf wraps a lifecycle sentinel with the event name, producing
// messages like "event build is already stopped".
func (e *Event) errorf(sentinel error) error {
	return fmt.Errorf("event %s %w", e.name, sentinel)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	value := *s
	return &value
}
