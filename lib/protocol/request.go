// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bureau-foundation/eventlog/lib/codec"
)

// Request is one client operation. The zero value is not a valid
// request; use the constructors below.
type Request struct {
	id                  string
	requestType         RequestType
	name                string
	initialData         *string
	finalData           *string
	calculateDifference bool
}

// Option adjusts an optional Request field during construction.
type Option func(*Request)

// WithName sets the event name. StartMainEvent and StopMainEvent use
// it to name (or target) the main event explicitly.
func WithName(name string) Option {
	return func(r *Request) { r.name = name }
}

// WithInitialData attaches the start snapshot.
func WithInitialData(data string) Option {
	return func(r *Request) { r.initialData = &data }
}

// WithFinalData attaches the end snapshot.
func WithFinalData(data string) Option {
	return func(r *Request) { r.finalData = &data }
}

// WithoutDifference asks the server not to compute a snapshot
// difference for this event.
func WithoutDifference() Option {
	return func(r *Request) { r.calculateDifference = false }
}

// WithID overrides the generated request ID. Used when relaying a
// request whose ID is already known.
func WithID(id string) Option {
	return func(r *Request) { r.id = id }
}

func newRequest(requestType RequestType, options []Option) Request {
	request := Request{
		id:                  uuid.NewString(),
		requestType:         requestType,
		calculateDifference: true,
	}
	for _, option := range options {
		option(&request)
	}
	return request
}

// NewRequest builds a request of any known type from options alone.
// The typed constructors are preferred; NewRequest serves callers that
// pick the type at runtime, such as the CLI.
func NewRequest(requestType RequestType, options ...Option) (Request, error) {
	if !requestType.Valid() {
		return Request{}, fmt.Errorf("unknown request type %q", requestType)
	}
	return newRequest(requestType, options), nil
}

// StartMainEvent starts the main event. Without WithName the server
// uses its configured default main event name.
func StartMainEvent(options ...Option) Request {
	return newRequest(StartMainEventRequest, options)
}

// StartEvent starts a named interval event.
func StartEvent(name string, options ...Option) Request {
	return newRequest(StartEventRequest, append([]Option{WithName(name)}, options...))
}

// StartInstantEvent records a named instant event. Both snapshots
// may be given.
func StartInstantEvent(name string, options ...Option) Request {
	return newRequest(StartInstantEventRequest, append([]Option{WithName(name)}, options...))
}

// CheckEventName asks whether an event with the given name exists.
func CheckEventName(name string) Request {
	return newRequest(CheckEventNameRequest, []Option{WithName(name)})
}

// ListEventNames asks for every event name in creation order.
func ListEventNames() Request {
	return newRequest(ListEventNamesRequest, nil)
}

// StopMainEvent stops the main event. The end snapshot is attached
// with WithFinalData.
func StopMainEvent(options ...Option) Request {
	return newRequest(StopMainEventRequest, options)
}

// StopEvent stops a named interval event.
func StopEvent(name string, options ...Option) Request {
	return newRequest(StopEventRequest, append([]Option{WithName(name)}, options...))
}

// QueryEventInformation asks for the report of one event.
func QueryEventInformation(name string) Request {
	return newRequest(QueryEventInfoRequest, []Option{WithName(name)})
}

// QueryAllEventsInformation asks for the reports of every event.
func QueryAllEventsInformation() Request {
	return newRequest(QueryAllEventsInfoRequest, nil)
}

// StopServer asks the server to shut down.
func StopServer() Request {
	return newRequest(StopServerRequest, nil)
}

// ID returns the request's correlation ID.
func (r Request) ID() string { return r.id }

// Type returns the request type.
func (r Request) Type() RequestType { return r.requestType }

// Name returns the event name. ok is false when no name (or an empty
// name) was given.
func (r Request) Name() (name string, ok bool) {
	return r.name, r.name != ""
}

// InitialData returns the start snapshot, if any.
func (r Request) InitialData() (data string, ok bool) {
	if r.initialData == nil {
		return "", false
	}
	return *r.initialData, true
}

// FinalData returns the end snapshot, if any.
func (r Request) FinalData() (data string, ok bool) {
	if r.finalData == nil {
		return "", false
	}
	return *r.finalData, true
}

// CalculateDifference reports whether a snapshot difference was
// requested. Defaults to true.
func (r Request) CalculateDifference() bool { return r.calculateDifference }

// LogValue implements slog.LogValuer. Snapshots are summarized by
// length to keep log lines short.
func (r Request) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", r.id),
		slog.String("type", string(r.requestType)),
	}
	if r.name != "" {
		attrs = append(attrs, slog.String("name", r.name))
	}
	if r.initialData != nil {
		attrs = append(attrs, slog.Int("initial_data_bytes", len(*r.initialData)))
	}
	if r.finalData != nil {
		attrs = append(attrs, slog.Int("final_data_bytes", len(*r.finalData)))
	}
	return slog.GroupValue(attrs...)
}

// requestWire is the CBOR form of Request.
type requestWire struct {
	ID                  string      `cbor:"id"`
	Type                RequestType `cbor:"type"`
	Name                string      `cbor:"name,omitempty"`
	InitialData         *string     `cbor:"initial_data,omitempty"`
	FinalData           *string     `cbor:"final_data,omitempty"`
	CalculateDifference *bool       `cbor:"calculate_difference,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (r Request) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(requestWire{
		ID:                  r.id,
		Type:                r.requestType,
		Name:                r.name,
		InitialData:         r.initialData,
		FinalData:           r.finalData,
		CalculateDifference: &r.calculateDifference,
	})
}

// UnmarshalCBOR implements cbor.Unmarshaler. Unknown request types are
// accepted here so the server can answer them with an ERROR response.
// A missing calculate_difference means true, as for a constructed
// request.
func (r *Request) UnmarshalCBOR(data []byte) error {
	var wire requestWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}
	if wire.Type == "" {
		return errors.New("decoding request: missing type")
	}
	*r = Request{
		id:                  wire.ID,
		requestType:         wire.Type,
		name:                wire.Name,
		initialData:         wire.InitialData,
		finalData:           wire.FinalData,
		calculateDifference: wire.CalculateDifference == nil || *wire.CalculateDifference,
	}
	return nil
}
