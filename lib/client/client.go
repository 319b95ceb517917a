// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/directory"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/service"
)

// ErrServerUnavailable is returned once server discovery has failed.
// The failure is permanent for the Client.
var ErrServerUnavailable = errors.New("event logger server unavailable")

// errNotPublished marks a lookup that reached the directory but found
// no server.
var errNotPublished = errors.New("server not published")

// Spawner starts a server process for a configuration.
type Spawner interface {
	Spawn(ctx context.Context, cfg config.Config) error
}

// Options configures a Client.
type Options struct {
	Config config.Config

	// Clock paces lookup retries. Defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Spawner starts the server when none is published. Defaults to a
	// ProcessSpawner.
	Spawner Spawner
}

// Client sends requests to the eventlog server. It is safe for
// concurrent use; discovery runs at most once.
type Client struct {
	config    config.Config
	clock     clock.Clock
	logger    *slog.Logger
	spawner   Spawner
	directory *directory.Client

	mu         sync.Mutex
	resolved   bool
	server     *service.ServiceClient
	resolveErr error
}

// New creates a Client. No connection is made until the first request.
func New(options Options) *Client {
	c := options.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	spawner := options.Spawner
	if spawner == nil {
		spawner = &ProcessSpawner{Logger: logger}
	}
	return &Client{
		config:    options.Config,
		clock:     c,
		logger:    logger,
		spawner:   spawner,
		directory: directory.NewClient(options.Config.DirectoryAddress()),
	}
}

// SendRequest resolves the server if needed and forwards request.
//
// Transport and envelope failures are returned as ERROR responses
// carrying the failure text. The error is non-nil only when discovery
// failed, and then wraps ErrServerUnavailable.
func (c *Client) SendRequest(ctx context.Context, request protocol.Request) (protocol.Response, error) {
	server, err := c.resolve(ctx)
	if err != nil {
		return protocol.Response{}, err
	}

	var response protocol.Response
	err = server.Call(ctx, protocol.ExecuteQueryAction, map[string]any{"request": request}, &response)
	if err != nil {
		c.logger.Debug("request transport failed",
			"request_id", request.ID(),
			"address", server.Address(),
			"error", err,
		)
		return protocol.ErrorResponse(request, err.Error()), nil
	}
	if response.Request().ID() != request.ID() {
		return protocol.ErrorResponse(request,
			fmt.Sprintf("response answers request %q, want %q", response.Request().ID(), request.ID())), nil
	}
	return response, nil
}

// ServerAddress returns the resolved server address, resolving it if
// needed.
func (c *Client) ServerAddress(ctx context.Context) (string, error) {
	server, err := c.resolve(ctx)
	if err != nil {
		return "", err
	}
	return server.Address(), nil
}

// resolve returns the memoized server handle, running discovery on
// the first call.
func (c *Client) resolve(ctx context.Context) (*service.ServiceClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.resolved {
		c.server, c.resolveErr = c.discover(ctx)
		c.resolved = true
	}
	return c.server, c.resolveErr
}

func (c *Client) discover(ctx context.Context) (*service.ServiceClient, error) {
	address, err := c.lookup(ctx)
	if err == nil {
		c.logger.Debug("server found", "address", address)
		return service.NewServiceClient(address), nil
	}
	c.logger.Info("server not reachable, starting one",
		"directory", c.config.DirectoryAddress(),
		"reason", err,
	)

	if err := c.spawner.Spawn(ctx, c.config); err != nil {
		return nil, fmt.Errorf("%w: starting server: %v", ErrServerUnavailable, err)
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.config.RetryDelay), uint64(c.config.Retries))
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("server lookup failed, retrying", "error", err, "wait", wait.String())
	}
	operation := func() error {
		address, err = c.lookup(ctx)
		return err
	}
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, &clockTimer{clock: c.clock}); err != nil {
		return nil, fmt.Errorf("%w: after %d retries: %v", ErrServerUnavailable, c.config.Retries, err)
	}
	c.logger.Info("server started", "address", address)
	return service.NewServiceClient(address), nil
}

// lookup asks the directory for the server's address.
func (c *Client) lookup(ctx context.Context) (string, error) {
	address, found, err := c.directory.Lookup(ctx, protocol.ServiceName)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errNotPublished
	}
	return address, nil
}

// clockTimer adapts a clock.Clock to backoff.Timer.
type clockTimer struct {
	clock   clock.Clock
	timer   clock.Timer
	channel chan time.Time
}

func (t *clockTimer) Start(duration time.Duration) {
	channel := make(chan time.Time, 1)
	t.channel = channel
	t.timer = t.clock.AfterFunc(duration, func() {
		channel <- t.clock.Now()
	})
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.channel
}
