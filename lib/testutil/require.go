// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// Fataler is the subset of testing.TB the channel helpers need.
type Fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first.
//
//	err := testutil.RequireReceive(t, runDone, 5*time.Second, "Run did not return")
func RequireReceive[T any](t Fataler, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer deadline.Stop()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed with no value", describe(what))
		}
		return v
	case <-deadline.C:
		t.Fatalf("%s: nothing received within %v", describe(what), timeout)
	}
	panic("unreachable")
}

// RequireClosed fails the test unless ch is closed (or yields a
// value) within timeout.
func RequireClosed(t Fataler, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer deadline.Stop()
	select {
	case <-ch:
	case <-deadline.C:
		t.Fatalf("%s: channel not closed within %v", describe(what), timeout)
	}
}

// describe renders a message, or a format string and its arguments.
func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "waiting on channel"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
