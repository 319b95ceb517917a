// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/eventlog/lib/codec"
)

// ErrMalformedResponse is returned when a decoded response carries a
// payload that does not match its type.
var ErrMalformedResponse = errors.New("malformed response")

// Response is the server's reply to one Request.
type Response struct {
	responseType ResponseType
	text         string
	texts        []string
	boolean      bool
	request      Request
}

// newResponse checks the compatibility table and panics on violation.
func newResponse(responseType ResponseType, request Request) Response {
	if err := Compatible(responseType, request.Type()); err != nil {
		panic(err)
	}
	return Response{responseType: responseType, request: request}
}

// EventStartedStopped acknowledges a start or stop request.
func EventStartedStopped(request Request) Response {
	return newResponse(EventStartStopResponse, request)
}

// EventQuery carries the rendered report of one event.
func EventQuery(request Request, report string) Response {
	response := newResponse(EventQueryResponse, request)
	response.text = report
	return response
}

// EventsQuery carries the rendered reports of every event.
func EventsQuery(request Request, reports []string) Response {
	response := newResponse(EventsQueryResponse, request)
	response.texts = cloneTexts(reports)
	return response
}

// EventNameCheck answers whether the requested name exists.
func EventNameCheck(request Request, exists bool) Response {
	response := newResponse(EventNameCheckResponse, request)
	response.boolean = exists
	return response
}

// EventNames carries every event name in creation order.
func EventNames(request Request, names []string) Response {
	response := newResponse(EventNamesResponse, request)
	response.texts = cloneTexts(names)
	return response
}

// StopServerResponse acknowledges a stop-server request.
func StopServerResponse(request Request) Response {
	return newResponse(StopServerResponseType, request)
}

// ErrorResponse reports a failed request of any type.
func ErrorResponse(request Request, message string) Response {
	response := newResponse(ErrorResponseType, request)
	response.text = message
	return response
}

// Type returns the response type.
func (r Response) Type() ResponseType { return r.responseType }

// Request returns the originating request.
func (r Response) Request() Request { return r.request }

// IsError reports whether the response is an ERROR.
func (r Response) IsError() bool { return r.responseType == ErrorResponseType }

// Text returns the single-text payload of EVENT_QUERY and ERROR
// responses.
func (r Response) Text() (text string, ok bool) {
	if responseTable[r.responseType].shape != payloadText {
		return "", false
	}
	return r.text, true
}

// Texts returns the list payload of EVENTS_QUERY and EVENT_NAMES
// responses. The returned slice is a copy.
func (r Response) Texts() (texts []string, ok bool) {
	if responseTable[r.responseType].shape != payloadTexts {
		return nil, false
	}
	return cloneTexts(r.texts), true
}

// Bool returns the boolean payload of EVENT_NAME_CHECK responses.
func (r Response) Bool() (value bool, ok bool) {
	if responseTable[r.responseType].shape != payloadBool {
		return false, false
	}
	return r.boolean, true
}

// Err returns a *ResponseError for ERROR responses and nil otherwise.
func (r Response) Err() error {
	if !r.IsError() {
		return nil
	}
	return &ResponseError{RequestType: r.request.Type(), Message: r.text}
}

// ResponseError is the error form of an ERROR response.
type ResponseError struct {
	RequestType RequestType
	Message     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.RequestType, e.Message)
}

// responseWire is the CBOR form of Response.
type responseWire struct {
	Type    ResponseType `cbor:"type"`
	Text    *string      `cbor:"text,omitempty"`
	Texts   []string     `cbor:"texts,omitempty"`
	Boolean bool         `cbor:"boolean,omitempty"`
	Request Request      `cbor:"request"`
}

// MarshalCBOR implements cbor.Marshaler.
func (r Response) MarshalCBOR() ([]byte, error) {
	wire := responseWire{Type: r.responseType, Request: r.request}
	switch responseTable[r.responseType].shape {
	case payloadText:
		text := r.text
		wire.Text = &text
	case payloadTexts:
		wire.Texts = r.texts
	case payloadBool:
		wire.Boolean = r.boolean
	}
	return codec.Marshal(wire)
}

// UnmarshalCBOR implements cbor.Unmarshaler. The decoded response is
// checked against the compatibility table and its payload shape.
func (r *Response) UnmarshalCBOR(data []byte) error {
	var wire responseWire
	if err := codec.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := Compatible(wire.Type, wire.Request.Type()); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	response := Response{responseType: wire.Type, request: wire.Request}
	switch shape := responseTable[wire.Type].shape; shape {
	case payloadNone:
		if wire.Text != nil || len(wire.Texts) > 0 || wire.Boolean {
			return fmt.Errorf("%w: %s carries a payload", ErrMalformedResponse, wire.Type)
		}
	case payloadText:
		if wire.Text == nil || len(wire.Texts) > 0 || wire.Boolean {
			return fmt.Errorf("%w: %s requires exactly a text payload", ErrMalformedResponse, wire.Type)
		}
		response.text = *wire.Text
	case payloadTexts:
		if wire.Text != nil || wire.Boolean {
			return fmt.Errorf("%w: %s requires exactly a text list payload", ErrMalformedResponse, wire.Type)
		}
		response.texts = cloneTexts(wire.Texts)
	case payloadBool:
		if wire.Text != nil || len(wire.Texts) > 0 {
			return fmt.Errorf("%w: %s requires exactly a boolean payload", ErrMalformedResponse, wire.Type)
		}
		response.boolean = wire.Boolean
	}
	*r = response
	return nil
}

// cloneTexts copies texts, turning nil into an empty list.
func cloneTexts(texts []string) []string {
	if texts == nil {
		return []string{}
	}
	return slices.Clone(texts)
}
