// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/bureau-foundation/eventlog/lib/protocol"
)

// StartMainEvent starts the main event.
func (c *Client) StartMainEvent(ctx context.Context, options ...protocol.Option) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StartMainEvent(options...))
}

// StartEvent starts a regular event.
func (c *Client) StartEvent(ctx context.Context, name string, options ...protocol.Option) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StartEvent(name, options...))
}

// StartInstantEvent records an instant.
func (c *Client) StartInstantEvent(ctx context.Context, name string, options ...protocol.Option) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StartInstantEvent(name, options...))
}

// CheckEventName reports whether name is taken.
func (c *Client) CheckEventName(ctx context.Context, name string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.CheckEventName(name))
}

func (c *Client) ListEventNames(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.ListEventNames())
}

func (c *Client) StopMainEvent(ctx context.Context, options ...protocol.Option) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StopMainEvent(options...))
}

func (c *Client) StopEvent(ctx context.Context, name string, options ...protocol.Option) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StopEvent(name, options...))
}

func (c *Client) QueryEventInformation(ctx context.Context, name string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.QueryEventInformation(name))
}

func (c *Client) QueryAllEventsInformation(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.QueryAllEventsInformation())
}

// StopServer asks the server to unpublish itself and exit.
func (c *Client) StopServer(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.StopServer())
}
