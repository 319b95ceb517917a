// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/eventlog/lib/directory"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/service"
)

// ErrAlreadyRunning is returned by Run when a server that still
// answers queries owns the service name.
var ErrAlreadyRunning = errors.New("an event log server is already running")

// binder is a Publisher that can also publish.
type binder interface {
	Publisher
	Bind(ctx context.Context, name, address string) error
	Replace(ctx context.Context, name, previous, address string) error
}

// localDirectory publishes into a directory owned by this process.
type localDirectory struct {
	directory *directory.Directory
}

func (l localDirectory) Bind(ctx context.Context, name, address string) error {
	return l.directory.Bind(name, address)
}

func (l localDirectory) Replace(ctx context.Context, name, previous, address string) error {
	return l.directory.Replace(name, previous, address)
}

func (l localDirectory) Unbind(ctx context.Context, name, address string) error {
	return l.directory.Unbind(name, address)
}

var (
	_ binder = localDirectory{}
	_ binder = (*directory.Client)(nil)
)

// publish binds name to address. A name held by a server that still
// answers is left alone and ErrAlreadyRunning returned; a name held by
// an address that does not answer is taken over, but only if nobody
// rebinds it in between.
func publish(ctx context.Context, publisher binder, name, address string, logger *slog.Logger) error {
	err := publisher.Bind(ctx, name, address)
	var conflict *directory.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	if answers(ctx, conflict.Current) {
		return fmt.Errorf("%w at %s", ErrAlreadyRunning, conflict.Current)
	}

	logger.Warn("replacing stale directory entry",
		"service", name,
		"previous", conflict.Current,
		"address", address,
	)
	err = publisher.Replace(ctx, name, conflict.Current, address)
	if errors.Is(err, directory.ErrBindingChanged) {
		return fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	return err
}

// answers reports whether an event log server responds at address.
func answers(ctx context.Context, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, service.DialTimeout)
	defer cancel()
	var response protocol.Response
	fields := map[string]any{"request": protocol.ListEventNames()}
	return service.NewServiceClient(address).Call(ctx, protocol.ExecuteQueryAction, fields, &response) == nil
}
