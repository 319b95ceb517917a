// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"slices"
)

// ServiceName is the well-known directory name of the eventlog server.
const ServiceName = "EventLoggerServer"

// ExecuteQueryAction is the socket action carrying a Request. The
// request travels in the "request" field and the Response comes back
// in the envelope's data field.
const ExecuteQueryAction = "execute_query"

// ErrIncompatible is returned (or panicked with, by the typed response
// constructors) when a response type is paired with a request type the
// compatibility table does not allow.
var ErrIncompatible = errors.New("incompatible response and request types")

// RequestType identifies a client operation.
type RequestType string

const (
	StartMainEventRequest     RequestType = "START_MAIN_EVENT"
	StartEventRequest         RequestType = "START_EVENT"
	StartInstantEventRequest  RequestType = "START_INSTANT_EVENT"
	CheckEventNameRequest     RequestType = "CHECK_EVENT_NAME"
	ListEventNamesRequest     RequestType = "LIST_EVENT_NAMES"
	StopMainEventRequest      RequestType = "STOP_MAIN_EVENT"
	StopEventRequest          RequestType = "STOP_EVENT"
	QueryEventInfoRequest     RequestType = "QUERY_EVENT_INFO"
	QueryAllEventsInfoRequest RequestType = "QUERY_ALL_EVENTS_INFO"
	StopServerRequest         RequestType = "STOP_SERVER"
)

// RequestTypes lists every request type in declaration order.
func RequestTypes() []RequestType {
	return []RequestType{
		StartMainEventRequest,
		StartEventRequest,
		StartInstantEventRequest,
		CheckEventNameRequest,
		ListEventNamesRequest,
		StopMainEventRequest,
		StopEventRequest,
		QueryEventInfoRequest,
		QueryAllEventsInfoRequest,
		StopServerRequest,
	}
}

// Valid reports whether t is one of the ten known request types.
func (t RequestType) Valid() bool {
	return slices.Contains(RequestTypes(), t)
}

// ResponseType identifies the kind of a server reply.
type ResponseType string

const (
	EventStartStopResponse ResponseType = "EVENT_START_STOP"
	EventQueryResponse     ResponseType = "EVENT_QUERY"
	EventsQueryResponse    ResponseType = "EVENTS_QUERY"
	EventNameCheckResponse ResponseType = "EVENT_NAME_CHECK"
	EventNamesResponse     ResponseType = "EVENT_NAMES"
	StopServerResponseType ResponseType = "STOP_SERVER"
	ErrorResponseType      ResponseType = "ERROR"
)

// ResponseTypes lists every response type in declaration order.
func ResponseTypes() []ResponseType {
	return []ResponseType{
		EventStartStopResponse,
		EventQueryResponse,
		EventsQueryResponse,
		EventNameCheckResponse,
		EventNamesResponse,
		StopServerResponseType,
		ErrorResponseType,
	}
}

// payloadShape is the single payload a response type carries.
type payloadShape int

const (
	payloadNone payloadShape = iota
	payloadText
	payloadTexts
	payloadBool
)

type responseRow struct {
	shape       payloadShape
	requests    []RequestType // nil means any request type
	description string
}

var responseTable = map[ResponseType]responseRow{
	EventStartStopResponse: {
		shape: payloadNone,
		requests: []RequestType{
			StartMainEventRequest,
			StartEventRequest,
			StartInstantEventRequest,
			StopMainEventRequest,
			StopEventRequest,
		},
		description: "Start or stop an event with or without associated data",
	},
	EventQueryResponse: {
		shape:       payloadText,
		requests:    []RequestType{QueryEventInfoRequest},
		description: "Query the server the information of an event with a given name (it should be checked beforehand if an event with that name exists)",
	},
	EventsQueryResponse: {
		shape:       payloadTexts,
		requests:    []RequestType{QueryAllEventsInfoRequest},
		description: "Query the server the information of all current events",
	},
	EventNameCheckResponse: {
		shape:       payloadBool,
		requests:    []RequestType{CheckEventNameRequest},
		description: "Query the server if an event with a specific name exists",
	},
	EventNamesResponse: {
		shape:       payloadTexts,
		requests:    []RequestType{ListEventNamesRequest},
		description: "Query the server about the names of all current events",
	},
	StopServerResponseType: {
		shape:       payloadNone,
		requests:    []RequestType{StopServerRequest},
		description: "Stops the server, this must be done only once, no more queries can be sent to the server after this",
	},
	ErrorResponseType: {
		shape:       payloadText,
		description: "An error occurred on a particular query",
	},
}

// Description returns a one-line human description of the response
// type, or "" for an unknown type.
func (t ResponseType) Description() string {
	return responseTable[t].description
}

// Valid reports whether t is one of the seven known response types.
func (t ResponseType) Valid() bool {
	_, ok := responseTable[t]
	return ok
}

// Compatible reports whether a response of type responseType may
// answer a request of type requestType. ERROR answers anything,
// including request types this package does not know.
func Compatible(responseType ResponseType, requestType RequestType) error {
	row, ok := responseTable[responseType]
	if !ok {
		return fmt.Errorf("%w: unknown response type %q", ErrIncompatible, responseType)
	}
	if row.requests == nil {
		return nil
	}
	if !slices.Contains(row.requests, requestType) {
		return fmt.Errorf("%w: %s cannot answer %s", ErrIncompatible, responseType, requestType)
	}
	return nil
}
