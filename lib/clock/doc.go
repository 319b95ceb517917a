// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Event time counters read Now, the server schedules its delayed exit
// with AfterFunc, and the client paces directory lookups with
// AfterFunc while a freshly spawned server comes up. Production code
// passes Real(); tests pass Fake() and move time explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.AfterFunc(5*time.Second, exit)
//	c.Advance(5 * time.Second) // exit runs here
package clock
