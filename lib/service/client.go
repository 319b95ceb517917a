// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"time"

	"github.com/bureau-foundation/eventlog/lib/codec"
)

const (
	// DialTimeout bounds connecting.
	DialTimeout = 5 * time.Second

	// replyTimeout covers the server's own read and write budgets plus
	// the handler.
	replyTimeout = ReadTimeout + WriteTimeout + 5*time.Second
)

// ServiceError is a {ok: false} reply.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// ServiceClient calls actions on a SocketServer, one connection per
// call.
type ServiceClient struct {
	address string
}

// NewServiceClient returns a client for the server at address.
func NewServiceClient(address string) *ServiceClient {
	return &ServiceClient{address: address}
}

// Address returns the host:port the client dials.
func (c *ServiceClient) Address() string { return c.address }

// Call sends fields plus "action" and waits for the reply. If the
// reply is ok and carries data, the data is decoded into result when
// result is non-nil. A {ok: false} reply returns *ServiceError; dial,
// write, and read failures return other errors.
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := maps.Clone(fields)
	if request == nil {
		request = make(map[string]any, 1)
	}
	request["action"] = action

	reply, err := c.roundTrip(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.address, err)
	}
	if !reply.OK {
		return &ServiceError{Action: action, Message: reply.Error}
	}
	if result == nil || len(reply.Data) == 0 {
		return nil
	}
	if err := codec.Unmarshal(reply.Data, result); err != nil {
		return fmt.Errorf("decoding %q reply: %w", action, err)
	}
	return nil
}

func (c *ServiceClient) roundTrip(ctx context.Context, request any) (Response, error) {
	var reply Response

	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return reply, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return reply, fmt.Errorf("writing request: %w", err)
	}
	// The server reads a single item; signal that no more follow.
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(replyTimeout))
	if err := codec.NewDecoder(io.LimitReader(conn, MaxMessageSize)).Decode(&reply); err != nil {
		return reply, fmt.Errorf("reading reply: %w", err)
	}
	return reply, nil
}
