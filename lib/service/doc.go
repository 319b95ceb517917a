// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the TCP request/response layer under both the
// eventlog server and its directory.
//
// Every connection carries one CBOR request and one CBOR reply. A
// request is a map with an "action" key plus that action's fields; the
// reply is the [Response] envelope {ok, error, data}. [SocketServer]
// routes actions to [ActionFunc] handlers and [ServiceClient] calls
// them.
//
// The package also builds the process logger from a level name
// ([NewLogger], [ParseLevel]).
package service
