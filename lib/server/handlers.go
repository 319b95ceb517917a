// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/eventlog/lib/codec"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/service"
)

// queryCall is the execute_query request body.
type queryCall struct {
	Request protocol.Request `cbor:"request"`
}

// Register installs the execute_query action on socket. The action's
// data is the protocol response; only undecodable requests fail at
// the envelope level.
func Register(socket *service.SocketServer, server *Server) {
	socket.Handle(protocol.ExecuteQueryAction, func(ctx context.Context, raw []byte) (any, error) {
		var call queryCall
		if err := codec.Unmarshal(raw, &call); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
		return server.ExecuteQuery(ctx, call.Request), nil
	})
}
