// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/directory"
	"github.com/bureau-foundation/eventlog/lib/event"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/registry"
)

// ShutdownGracePeriod is how long the process keeps running after a
// STOP_SERVER request is acknowledged.
const ShutdownGracePeriod = 5 * time.Second

var (
	// ErrNoNameProvided is returned when a request that needs an event
	// name carries none.
	ErrNoNameProvided = errors.New("no name provided")

	// ErrEventNotFound is returned when no event has the requested name.
	ErrEventNotFound = errors.New("no corresponding event to provided name")

	// ErrNoMainEvent is returned by STOP_MAIN_EVENT before a main event
	// was started.
	ErrNoMainEvent = errors.New("no main event present")

	// ErrUnknownRequestType is returned for request types this server
	// does not handle.
	ErrUnknownRequestType = errors.New("unknown request")

	// ErrUnexportFailed is returned when STOP_SERVER cannot remove the
	// server from its directory. The server keeps running.
	ErrUnexportFailed = errors.New("could not unpublish server, maybe try again?")

	// ErrInternalFault wraps a panic recovered while handling a request.
	ErrInternalFault = errors.New("internal fault")

	// ErrShuttingDown is returned for every request dispatched after
	// STOP_SERVER was accepted.
	ErrShuttingDown = errors.New("server is shutting down")
)

// Publisher removes the server's directory entry on shutdown. Unbind
// must remove name only while it is still bound to address, and report
// directory.ErrNotBound or directory.ErrBindingChanged otherwise.
type Publisher interface {
	Unbind(ctx context.Context, name, address string) error
}

// Options configures a Server.
type Options struct {
	// Clock schedules the delayed exit. Required.
	Clock clock.Clock

	// Logger receives one line per request. Required.
	Logger *slog.Logger

	// NamingConvention normalizes every event name before registry
	// access. The zero value keeps names as given.
	NamingConvention config.NamingConvention

	// MainEventDefaultName names the main event when START_MAIN_EVENT
	// carries no name. Empty means registry.DefaultMainEventName.
	MainEventDefaultName string

	// Publisher, ServiceName and ServiceAddress identify the directory
	// entry removed by STOP_SERVER. ServiceName defaults to
	// protocol.ServiceName.
	Publisher      Publisher
	ServiceName    string
	ServiceAddress string

	// StopListening closes the query listener. Called once, when
	// STOP_SERVER is accepted.
	StopListening func()

	// Exit terminates the server. Called once, ShutdownGracePeriod
	// after STOP_SERVER is accepted.
	Exit func()
}

// Server dispatches protocol requests against one event registry. It
// is safe for concurrent use.
type Server struct {
	clock            clock.Clock
	logger           *slog.Logger
	namingConvention config.NamingConvention
	mainEventName    string
	publisher        Publisher
	serviceName      string
	serviceAddress   string
	stopListening    func()
	exit             func()

	registry *registry.Registry

	// stopMu serializes STOP_SERVER handling; stopping is read without
	// it on every request.
	stopMu   sync.Mutex
	stopping atomic.Bool
}

// New creates a Server with an empty registry.
func New(options Options) *Server {
	if options.Clock == nil {
		panic("server.New: Clock is required")
	}
	if options.Logger == nil {
		panic("server.New: Logger is required")
	}
	mainEventName := options.MainEventDefaultName
	if mainEventName == "" {
		mainEventName = registry.DefaultMainEventName
	}
	serviceName := options.ServiceName
	if serviceName == "" {
		serviceName = protocol.ServiceName
	}
	noop := func() {}
	server := &Server{
		clock:            options.Clock,
		logger:           options.Logger,
		namingConvention: options.NamingConvention,
		mainEventName:    mainEventName,
		publisher:        options.Publisher,
		serviceName:      serviceName,
		serviceAddress:   options.ServiceAddress,
		stopListening:    options.StopListening,
		exit:             options.Exit,
	}
	if server.stopListening == nil {
		server.stopListening = noop
	}
	if server.exit == nil {
		server.exit = noop
	}
	server.registry = registry.New(options.Clock, options.NamingConvention.Apply(mainEventName))
	return server
}

// Registry returns the server's event registry.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Stopping reports whether STOP_SERVER was accepted.
func (s *Server) Stopping() bool {
	return s.stopping.Load()
}

// ExecuteQuery applies request and returns its response. It never
// panics and never returns a response incompatible with the request.
func (s *Server) ExecuteQuery(ctx context.Context, request protocol.Request) (response protocol.Response) {
	logger := s.logger.With("request_id", request.ID())
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("request handler panicked",
				"request", request,
				"panic", fmt.Sprint(recovered),
			)
			response = protocol.ErrorResponse(request,
				fmt.Sprintf("%v: %v\n%s", ErrInternalFault, recovered, debug.Stack()))
		}
	}()

	if s.stopping.Load() {
		logger.Info("request rejected during shutdown", "request", request)
		return protocol.ErrorResponse(request, ErrShuttingDown.Error())
	}

	response, err := s.dispatch(ctx, request)
	if err != nil {
		logger.Info("request failed", "request", request, "error", err)
		return protocol.ErrorResponse(request, err.Error())
	}
	logger.Debug("request handled", "request", request, "response", string(response.Type()))
	return response
}

func (s *Server) dispatch(ctx context.Context, request protocol.Request) (protocol.Response, error) {
	switch request.Type() {
	case protocol.StartMainEventRequest:
		return s.startMainEvent(request)
	case protocol.StartEventRequest:
		return s.startEvent(request)
	case protocol.StartInstantEventRequest:
		return s.startInstantEvent(request)
	case protocol.CheckEventNameRequest:
		return s.checkEventName(request)
	case protocol.ListEventNamesRequest:
		return protocol.EventNames(request, s.registry.Names()), nil
	case protocol.StopMainEventRequest:
		return s.stopMainEvent(request)
	case protocol.StopEventRequest:
		return s.stopEvent(request)
	case protocol.QueryEventInfoRequest:
		return s.queryEvent(request)
	case protocol.QueryAllEventsInfoRequest:
		return s.queryAllEvents(request)
	case protocol.StopServerRequest:
		return s.stopServer(ctx, request)
	default:
		return protocol.Response{}, fmt.Errorf("%w: %s", ErrUnknownRequestType, request.Type())
	}
}

// name returns the request's event name after normalization.
func (s *Server) name(request protocol.Request, purpose string) (string, error) {
	name, ok := request.Name()
	if !ok {
		return "", fmt.Errorf("%w %s", ErrNoNameProvided, purpose)
	}
	return s.namingConvention.Apply(name), nil
}

func (s *Server) startMainEvent(request protocol.Request) (protocol.Response, error) {
	name, ok := request.Name()
	if !ok {
		name = s.mainEventName
	}
	_, err := s.registry.StartMainEvent(s.namingConvention.Apply(name), initialData(request))
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventStartedStopped(request), nil
}

func (s *Server) startEvent(request protocol.Request) (protocol.Response, error) {
	name, err := s.name(request, "for new event")
	if err != nil {
		return protocol.Response{}, err
	}
	if _, err := s.registry.StartEvent(name, initialData(request)); err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventStartedStopped(request), nil
}

func (s *Server) startInstantEvent(request protocol.Request) (protocol.Response, error) {
	name, err := s.name(request, "for new event")
	if err != nil {
		return protocol.Response{}, err
	}
	_, err = s.registry.StartInstantEvent(name, initialData(request), finalData(request), request.CalculateDifference())
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventStartedStopped(request), nil
}

func (s *Server) checkEventName(request protocol.Request) (protocol.Response, error) {
	name, err := s.name(request, "for event name check")
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventNameCheck(request, s.registry.Exists(name)), nil
}

func (s *Server) stopMainEvent(request protocol.Request) (protocol.Response, error) {
	main, ok := s.registry.Main()
	if !ok {
		return protocol.Response{}, ErrNoMainEvent
	}
	if err := main.Stop(finalData(request), request.CalculateDifference()); err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventStartedStopped(request), nil
}

func (s *Server) stopEvent(request protocol.Request) (protocol.Response, error) {
	target, err := s.lookup(request, "to stop event")
	if err != nil {
		return protocol.Response{}, err
	}
	if err := target.Stop(finalData(request), request.CalculateDifference()); err != nil {
		return protocol.Response{}, err
	}
	return protocol.EventStartedStopped(request), nil
}

func (s *Server) queryEvent(request protocol.Request) (protocol.Response, error) {
	target, err := s.lookup(request, "to query event's information")
	if err != nil {
		return protocol.Response{}, err
	}
	report, err := target.Report().Render()
	if err != nil {
		return protocol.Response{}, fmt.Errorf("rendering report for %s: %w", target.Name(), err)
	}
	return protocol.EventQuery(request, report), nil
}

func (s *Server) queryAllEvents(request protocol.Request) (protocol.Response, error) {
	events := s.registry.List()
	reports := make([]string, 0, len(events))
	for _, ev := range events {
		report, err := ev.Report().Render()
		if err != nil {
			return protocol.Response{}, fmt.Errorf("rendering report for %s: %w", ev.Name(), err)
		}
		reports = append(reports, report)
	}
	return protocol.EventsQuery(request, reports), nil
}

// lookup resolves the request's named event.
func (s *Server) lookup(request protocol.Request, purpose string) (*event.Event, error) {
	name, err := s.name(request, purpose)
	if err != nil {
		return nil, err
	}
	target, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, name)
	}
	return target, nil
}

func (s *Server) stopServer(ctx context.Context, request protocol.Request) (protocol.Response, error) {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()

	if s.stopping.Load() {
		return protocol.Response{}, ErrShuttingDown
	}
	if s.publisher != nil {
		err := s.publisher.Unbind(ctx, s.serviceName, s.serviceAddress)
		switch {
		case errors.Is(err, directory.ErrNotBound), errors.Is(err, directory.ErrBindingChanged):
			// Another server owns the name now; leave its entry alone.
			s.logger.Warn("directory entry no longer points at this server",
				"request_id", request.ID(),
				"address", s.serviceAddress,
				"error", err,
			)
		case err != nil:
			return protocol.Response{}, fmt.Errorf("%w: %v", ErrUnexportFailed, err)
		}
	}
	s.stopping.Store(true)
	s.stopListening()
	s.clock.AfterFunc(ShutdownGracePeriod, s.exit)
	s.logger.Info("server stopping",
		"request_id", request.ID(),
		"grace_period", ShutdownGracePeriod.String(),
	)
	return protocol.StopServerResponse(request), nil
}

func initialData(request protocol.Request) *string {
	data, ok := request.InitialData()
	if !ok {
		return nil
	}
	return &data
}

func finalData(request protocol.Request) *string {
	data, ok := request.FinalData()
	if !ok {
		return nil
	}
	return &data
}
