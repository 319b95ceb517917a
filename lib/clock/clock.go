// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into counters, the server's
// shutdown timer, and the client's retry loop.
type Clock interface {
	// Now returns the current time. Times from Real carry a monotonic
	// reading, so differences between them ignore wall-clock steps.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. If d <= 0, f runs without
	// delay.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call. *time.Timer satisfies it.
type Timer interface {
	// Stop cancels the call. It reports false if the call already ran
	// or was already cancelled.
	Stop() bool
}
