// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/eventlog/lib/service"
)

// Client talks to a directory served over TCP. Its binding methods
// return the same *ConflictError values as the local Directory.
type Client struct {
	socket *service.ServiceClient
}

// NewClient returns a client for the directory at address (host:port).
func NewClient(address string) *Client {
	return &Client{socket: service.NewServiceClient(address)}
}

// Address returns the directory address.
func (c *Client) Address() string {
	return c.socket.Address()
}

// Lookup returns the address bound to name. found is false when the
// directory is reachable but the name is unbound; err is non-nil only
// when the directory could not be queried.
func (c *Client) Lookup(ctx context.Context, name string) (address string, found bool, err error) {
	var result LookupResult
	if err := c.socket.Call(ctx, ActionLookup, map[string]any{"name": name}, &result); err != nil {
		return "", false, fmt.Errorf("looking up %s: %w", name, err)
	}
	return result.Address, result.Found, nil
}

// Bind binds name to address, failing with ErrAlreadyBound if the name
// is taken.
func (c *Client) Bind(ctx context.Context, name, address string) error {
	return c.change(ctx, ActionBind, name, map[string]any{"name": name, "address": address})
}

// Replace moves name from previous to address, failing with
// ErrBindingChanged if name no longer points at previous.
func (c *Client) Replace(ctx context.Context, name, previous, address string) error {
	return c.change(ctx, ActionReplace, name, map[string]any{"name": name, "previous": previous, "address": address})
}

// Unbind removes name while it is still bound to address.
func (c *Client) Unbind(ctx context.Context, name, address string) error {
	return c.change(ctx, ActionUnbind, name, map[string]any{"name": name, "address": address})
}

func (c *Client) change(ctx context.Context, action, name string, fields map[string]any) error {
	var result BindingResult
	if err := c.socket.Call(ctx, action, fields, &result); err != nil {
		return fmt.Errorf("%s %s: %w", action, name, err)
	}
	if result.Applied {
		return nil
	}
	conflict := &ConflictError{Name: name, Current: result.Current, reason: ErrBindingChanged}
	switch {
	case action == ActionBind:
		conflict.reason = ErrAlreadyBound
	case action == ActionUnbind && result.Current == "":
		conflict.reason = ErrNotBound
	}
	return conflict
}

// List returns every bound name.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var result ListResult
	if err := c.socket.Call(ctx, ActionList, nil, &result); err != nil {
		return nil, fmt.Errorf("listing directory: %w", err)
	}
	return result.Names, nil
}
