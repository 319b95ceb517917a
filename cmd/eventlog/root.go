// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/eventlog/lib/client"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/version"
)

// requester sends one request to the server.
type requester interface {
	SendRequest(ctx context.Context, request protocol.Request) (protocol.Response, error)
}

// environment holds the process-level collaborators of the CLI.
type environment struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	newClient func(cfg config.Config, logger *slog.Logger) requester
}

func defaultEnvironment() environment {
	return environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		newClient: func(cfg config.Config, logger *slog.Logger) requester {
			return client.New(client.Options{Config: cfg, Logger: logger})
		},
	}
}

// application is the state shared by every subcommand of one run.
type application struct {
	env        environment
	loader     *config.Loader
	configFile string
	raw        bool

	config config.Config
	logger *slog.Logger
	client requester
	styles styles
}

func newRootCommand(env environment) *cobra.Command {
	app := &application{env: env, loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "eventlog",
		Short: "Record and query events on a timeline shared between processes",
		Long: `eventlog records named events on a timeline kept by a background server.

Events are timed from start to stop and may carry a snapshot of text
data at each end; the report of a stopped event shows how the data
changed. Every event's starting time is relative to the main event.

The first command run starts the server if none is running. Properties
may be given as flags (--event_logger.rmi.port=7000), as environment
variables (EVENT_LOGGER_RMI_PORT=7000), or in a YAML file (--config).`,
		Version:           version.Info(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.configure,
	}
	root.SetIn(env.stdin)
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&app.configFile, "config", "c", "", "YAML file with configuration properties")
	flags.BoolVar(&app.raw, "raw", false, "print responses in CBOR diagnostic notation")
	app.loader.RegisterFlags(flags)

	root.AddCommand(
		app.startMainCommand(),
		app.startCommand(),
		app.instantCommand(),
		app.checkCommand(),
		app.listCommand(),
		app.stopMainCommand(),
		app.stopCommand(),
		app.queryCommand(),
		app.queryAllCommand(),
		app.stopServerCommand(),
		app.configCommand(),
	)
	return root
}

// configure resolves the configuration and builds the client. The
// client does not connect until the first request.
func (a *application) configure(cmd *cobra.Command, args []string) error {
	if a.configFile != "" {
		if err := a.loader.ReadFile(a.configFile); err != nil {
			return err
		}
	}
	cfg, err := a.loader.Resolve()
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}
	a.config = cfg
	a.logger = newCommandLogger(a.env.stderr, cfg.LogLevel).With("command", cmd.Name())
	for _, fallback := range cfg.Fallbacks {
		a.logger.Warn("invalid configuration value, using default",
			"key", fallback.Key,
			"value", fallback.Value,
			"default", fallback.Default,
		)
	}
	a.client = a.env.newClient(cfg, a.logger)
	a.styles = newStyles(isTerminal(a.env.stdout))
	return nil
}

// send forwards request and prints the response. An ERROR response
// becomes the command's error.
func (a *application) send(cmd *cobra.Command, request protocol.Request) error {
	response, err := a.client.SendRequest(cmd.Context(), request)
	if err != nil {
		return err
	}
	return a.print(cmd.OutOrStdout(), response)
}
