// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package event implements a single timed event: its lifecycle state
// machine, its elapsed-time accounting, and its textual report.
//
// An event moves UNSTARTED -> RUNNING -> STOPPED, or UNSTARTED ->
// INSTANT. Instant events record snapshots but have no duration.
// Every transition and read on an [Event] is serialized by a per-event
// mutex, so a stop can safely race an elapsed-time query.
//
// Elapsed time comes from a [TimeCounter] driven by an injected
// [clock.Clock]. Tests use a fake clock to make durations exact.
package event
