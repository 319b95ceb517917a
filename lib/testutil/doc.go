// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the eventlog test suites.
//
// [FreePort] picks a loopback TCP port for tests that must fix the
// directory port before any listener exists.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// guard so tests never wait forever on a channel. Everything else runs
// on a fake clock.
package testutil
