// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec fixes the CBOR settings for everything eventlog sends
// over a socket: client queries, server responses, and directory
// lookups. Event reports are JSON text carried inside those messages;
// this package does not touch them.
//
// Encoding is deterministic, so one logical message always has the
// same bytes. Decoding refuses duplicate map keys and runaway nesting.
//
//	data, err := codec.Marshal(request)
//	err = codec.Unmarshal(data, &request)
//
// Socket code uses NewEncoder and NewDecoder on the connection. The
// CLI's --raw flag prints a response through Diagnose.
//
// Struct fields use `cbor` tags; fxamacker/cbor falls back to `json`
// tags when a field has none.
package codec
