// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"container/heap"
	"sync"
	"time"
)

// FakeClock is a Clock that moves only when Advance is called. It is
// safe for concurrent use.
type FakeClock struct {
	mu       sync.Mutex
	now      time.Time
	pending  timerQueue
	sequence uint64

	// pendingChanged is broadcast whenever a timer is scheduled.
	pendingChanged *sync.Cond
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.pendingChanged = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f for d from now. If d <= 0, f runs before
// AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	timer := &fakeTimer{clock: c, callback: f, index: -1}
	if d <= 0 {
		f()
		return timer
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence++
	timer.deadline = c.now.Add(d)
	timer.sequence = c.sequence
	heap.Push(&c.pending, timer)
	c.pendingChanged.Broadcast()
	return timer
}

// Advance moves the clock forward by d. Timers due by the new time run
// in deadline order (ties in scheduling order), each with the clock
// reading its own deadline. Callbacks run on the calling goroutine
// without the clock's lock held, so they may read the clock or
// schedule further timers; a timer they schedule inside the advanced
// window runs during the same Advance.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for len(c.pending) > 0 && !c.pending[0].deadline.After(target) {
		timer := heap.Pop(&c.pending).(*fakeTimer)
		c.now = timer.deadline
		c.mu.Unlock()
		timer.callback()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n timers are pending. Use it to
// wait for a goroutine to schedule its timer before advancing:
//
//	go client.SendRequest(ctx, request)
//	fakeClock.WaitForTimers(1)
//	fakeClock.Advance(2 * time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.pendingChanged.Wait()
	}
}

// PendingCount returns the number of scheduled timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	sequence uint64
	callback func()

	// index is the position in the pending queue, or -1.
	index int
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.clock.pending, t.index)
	return true
}

// timerQueue is a container/heap of pending timers ordered by
// deadline, then sequence.
type timerQueue []*fakeTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].sequence < q[j].sequence
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	timer := x.(*fakeTimer)
	timer.index = len(*q)
	*q = append(*q, timer)
}

func (q *timerQueue) Pop() any {
	old := *q
	last := len(old) - 1
	timer := old[last]
	old[last] = nil
	timer.index = -1
	*q = old[:last]
	return timer
}
