// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the eventlog query dispatcher and the
// server process lifecycle.
//
// [Server.ExecuteQuery] applies one protocol request to the event
// registry and always answers with a protocol response: failures of
// any kind, including panics, become ERROR responses. A STOP_SERVER
// request unpublishes the server from its directory, stops the query
// listener, and terminates the process after [ShutdownGracePeriod].
//
// [Run] wires a Server to its two listeners: the directory the server
// publishes itself in and the query socket clients call.
package server
