// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/eventlog/lib/codec"
	"github.com/bureau-foundation/eventlog/lib/netutil"
)

const (
	// ReadTimeout bounds how long a connection may take to deliver its
	// request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout bounds writing the response.
	WriteTimeout = 10 * time.Second

	// MaxMessageSize caps one request or response. Snapshots travel
	// inside requests and reports inside responses, so this is also
	// the practical snapshot limit.
	MaxMessageSize = 16 << 20
)

// ActionFunc handles one action. raw is the whole request map,
// including its "action" key. A nil result yields {ok: true} with no
// data; an error yields {ok: false} carrying its text.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope written back on every connection.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketServer accepts TCP connections and answers exactly one CBOR
// request on each. Register every action with Handle before Serve.
type SocketServer struct {
	address  string
	logger   *slog.Logger
	handlers map[string]ActionFunc

	mu       sync.Mutex
	listener net.Listener

	inFlight sync.WaitGroup
}

// NewSocketServer returns a server that will listen on address. Port
// 0 picks a free port; read it back with Addr after Listen.
func NewSocketServer(address string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		address:  address,
		logger:   logger,
		handlers: make(map[string]ActionFunc),
	}
}

// Handle registers handler for action. It panics on a duplicate.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, taken := s.handlers[action]; taken {
		panic(fmt.Sprintf("service: action %q registered twice", action))
	}
	s.handlers[action] = handler
}

// Listen binds the address. Later calls are no-ops once it succeeds;
// after a failure the next call tries again.
func (s *SocketServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound host:port, or "" before Listen succeeds.
func (s *SocketServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is done, then closes the
// listener and waits for requests already being handled. It calls
// Listen first if needed.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	stopAccepting := context.AfterFunc(ctx, func() { listener.Close() })
	defer stopAccepting()
	defer listener.Close()

	address := listener.Addr().String()
	s.logger.Info("socket server listening", "address", address)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || netutil.IsExpectedCloseError(err) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.inFlight.Add(1)
		go func() {
			defer s.inFlight.Done()
			s.serveConn(ctx, conn)
		}()
	}
	s.inFlight.Wait()
	s.logger.Info("socket server stopped", "address", address)
	return nil
}

// serveConn reads one request from conn and writes its response.
func (s *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	var raw codec.RawMessage
	err := codec.NewDecoder(io.LimitReader(conn, MaxMessageSize)).Decode(&raw)
	if errors.Is(err, io.EOF) {
		// Connected and hung up without a request.
		return
	}

	var response Response
	if err != nil {
		response = failure(fmt.Sprintf("invalid request: %v", err))
	} else {
		response = s.dispatch(ctx, raw)
	}

	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		if netutil.IsExpectedCloseError(err) {
			s.logger.Debug("peer closed before response", "ok", response.OK, "error", err)
		} else {
			s.logger.Warn("failed to write response", "ok", response.OK, "error", err)
		}
	}
}

// dispatch routes raw to its action's handler and builds the envelope.
func (s *SocketServer) dispatch(ctx context.Context, raw []byte) Response {
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return failure(fmt.Sprintf("invalid request: %v", err))
	}
	if header.Action == "" {
		return failure("missing required field: action")
	}
	handler, ok := s.handlers[header.Action]
	if !ok {
		return failure(fmt.Sprintf("unknown action %q", header.Action))
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		return failure(err.Error())
	}
	if result == nil {
		return Response{OK: true}
	}
	data, err := codec.Marshal(result)
	if err != nil {
		return failure(fmt.Sprintf("internal: encoding %s result: %v", header.Action, err))
	}
	return Response{OK: true, Data: data}
}

func failure(message string) Response {
	return Response{Error: message}
}
