// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// eventlog is the command-line client of the eventlog server. Each
// invocation sends one request; the first one on a machine starts the
// server.
//
//	eventlog start-main
//	eventlog start compile --data "$(git status --short)"
//	eventlog stop compile --data "$(git status --short)"
//	eventlog query compile
//	eventlog stop-server
package main

import (
	"github.com/bureau-foundation/eventlog/lib/process"
)

func main() {
	root := newRootCommand(defaultEnvironment())
	if err := root.Execute(); err != nil {
		process.Fatal(err)
	}
}
