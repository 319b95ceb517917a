// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the eventlog
// binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected with
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/eventlog/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Binaries built without ldflags fall back to the VCS stamp the Go
// toolchain records in the build info, and to "unknown" when there is
// none (go test, go run).
package version
