// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
)

var (
	// ErrCounterRunning is returned when starting a counter that is
	// already running.
	ErrCounterRunning = errors.New("time counter already running")

	// ErrCounterNotRunning is returned when stopping or folding a
	// counter that is not running.
	ErrCounterNotRunning = errors.New("time counter is not running")
)

// TimeCounter accumulates elapsed running time. The accumulated total
// only grows: on Stop, and on Fold while running. Not safe for
// concurrent use; the owning Event serializes access.
type TimeCounter struct {
	clock       clock.Clock
	running     bool
	lastMark    time.Time
	accumulated time.Duration
}

// NewTimeCounter returns a stopped counter reading time from c.
func NewTimeCounter(c clock.Clock) *TimeCounter {
	return &TimeCounter{clock: c}
}

// Start begins accumulating from the current clock reading.
func (c *TimeCounter) Start() error {
	if c.running {
		return ErrCounterRunning
	}
	c.lastMark = c.clock.Now()
	c.running = true
	return nil
}

// Fold adds the time since the last mark to the total and moves the
// mark forward without stopping the counter.
func (c *TimeCounter) Fold() error {
	if !c.running {
		return ErrCounterNotRunning
	}
	now := c.clock.Now()
	c.accumulate(now)
	c.lastMark = now
	return nil
}

// Stop adds the time since the last mark to the total and stops the
// counter.
func (c *TimeCounter) Stop() error {
	if !c.running {
		return ErrCounterNotRunning
	}
	c.accumulate(c.clock.Now())
	c.running = false
	return nil
}

// accumulate never subtracts: a clock reading earlier than lastMark
// contributes nothing.
func (c *TimeCounter) accumulate(now time.Time) {
	if delta := now.Sub(c.lastMark); delta > 0 {
		c.accumulated += delta
	}
}

// Running reports whether the counter is accumulating.
func (c *TimeCounter) Running() bool {
	return c.running
}

// Elapsed returns the accumulated total as of the last Fold or Stop.
func (c *TimeCounter) Elapsed() time.Duration {
	return c.accumulated
}

// Seconds returns the accumulated total in seconds, truncated to
// whole milliseconds.
func (c *TimeCounter) Seconds() float64 {
	return Seconds(c.accumulated)
}

// Seconds converts d to seconds truncated to millisecond precision.
func Seconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
