// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for the eventlog binaries:
// reporting a fatal error to stderr before (or without) the structured
// logger, and exiting.
package process
