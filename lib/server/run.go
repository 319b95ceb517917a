// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/directory"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/service"
)

// Run serves the directory and the query socket described by cfg,
// publishes the query socket under protocol.ServiceName, and blocks
// until ctx is cancelled or a STOP_SERVER grace period ends.
//
// If another process already serves a directory on the configured
// port, Run publishes into that directory instead. Publishing fails
// with ErrAlreadyRunning when the name belongs to a server that still
// answers, so one directory never lists two live servers.
// STOP_SERVER closes both listeners at once; only requests already
// accepted finish during the grace period.
//
// ready, if non-nil, is called with the query address once published.
func Run(ctx context.Context, cfg config.Config, c clock.Clock, logger *slog.Logger, ready func(address string)) error {
	runCtx, finish := context.WithCancel(ctx)
	defer finish()
	group, groupCtx := errgroup.WithContext(runCtx)
	listenCtx, stopListening := context.WithCancel(groupCtx)
	defer stopListening()

	var publisher binder
	directorySocket := service.NewSocketServer(cfg.DirectoryAddress(), logger.With("listener", "directory"))
	if err := directorySocket.Listen(); err != nil {
		logger.Info("directory port in use, publishing into existing directory",
			"address", cfg.DirectoryAddress(),
			"error", err,
		)
		publisher = directory.NewClient(cfg.DirectoryAddress())
	} else {
		local := directory.New()
		directory.Register(directorySocket, local)
		publisher = localDirectory{directory: local}
		group.Go(func() error {
			return directorySocket.Serve(listenCtx)
		})
	}

	querySocket := service.NewSocketServer(cfg.ListenAddress(), logger.With("listener", "query"))
	if err := querySocket.Listen(); err != nil {
		finish()
		group.Wait()
		return fmt.Errorf("starting query listener: %w", err)
	}
	address := querySocket.Addr()

	server := New(Options{
		Clock:                c,
		Logger:               logger,
		NamingConvention:     cfg.NamingConvention,
		MainEventDefaultName: cfg.MainEventDefaultName,
		Publisher:            publisher,
		ServiceAddress:       address,
		StopListening:        stopListening,
		Exit:                 finish,
	})
	Register(querySocket, server)
	group.Go(func() error {
		return querySocket.Serve(listenCtx)
	})
	// Holds Run open through the grace period after both listeners
	// have closed.
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	if err := publish(groupCtx, publisher, protocol.ServiceName, address, logger); err != nil {
		finish()
		group.Wait()
		return fmt.Errorf("publishing %s: %w", protocol.ServiceName, err)
	}
	logger.Info("server published",
		"service", protocol.ServiceName,
		"address", address,
		"directory", cfg.DirectoryAddress(),
	)
	if ready != nil {
		ready(address)
	}

	return group.Wait()
}
