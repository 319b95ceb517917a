// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client sends eventlog requests to the server, starting the
// server on first use when none is published.
//
// A [Client] resolves the server lazily: the first request looks up
// protocol.ServiceName in the directory, spawns a server process if
// the lookup fails, and polls the directory with a constant backoff
// until the server appears or the retry budget is spent. The outcome
// is memoized, including failure: once discovery gives up, every
// later request fails with [ErrServerUnavailable] without another
// attempt.
package client
