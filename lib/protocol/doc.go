// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol defines the request and response messages exchanged
// between eventlog clients and the server.
//
// A [Request] names one of ten operations and carries an optional
// event name, optional start and end snapshots, and a flag controlling
// whether the server computes a snapshot difference. Requests are
// immutable: build them with the typed constructors ([StartEvent],
// [StopEvent], [QueryEventInformation], ...) and read them through
// accessors.
//
// A [Response] has one of seven types. Each type admits exactly one
// payload shape and a fixed set of originating request types:
//
//	EVENT_START_STOP  no payload   START_MAIN_EVENT, START_EVENT,
//	                               START_INSTANT_EVENT, STOP_MAIN_EVENT,
//	                               STOP_EVENT
//	EVENT_QUERY       text         QUERY_EVENT_INFO
//	EVENTS_QUERY      text list    QUERY_ALL_EVENTS_INFO
//	EVENT_NAME_CHECK  boolean      CHECK_EVENT_NAME
//	EVENT_NAMES       text list    LIST_EVENT_NAMES
//	STOP_SERVER       no payload   STOP_SERVER
//	ERROR             text         any
//
// The typed response constructors panic when handed a request whose
// type the table does not allow; that is a programming error in the
// server. Responses decoded from the wire are checked against the same
// table and rejected with an error instead.
//
// Both message types encode to CBOR through [codec] with explicit
// MarshalCBOR/UnmarshalCBOR methods, so their fields stay unexported.
package protocol
