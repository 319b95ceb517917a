// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// eventlog-server keeps the event timeline shared by eventlog clients.
// It serves a directory on the registry port, publishes its query
// socket there as EventLoggerServer, and runs until a client sends
// STOP_SERVER or the process is signalled.
//
// Clients start it on demand as
//
//	eventlog-server --start --event_logger.rmi.port=0 ...
//
// Without --start it prints usage and exits.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/process"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/server"
	"github.com/bureau-foundation/eventlog/lib/service"
	"github.com/bureau-foundation/eventlog/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		start       bool
		showHelp    bool
		showVersion bool
		configFile  string
	)

	flags := pflag.NewFlagSet("eventlog-server", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.BoolVar(&start, "start", false, "start the server")
	flags.BoolVarP(&showHelp, "help", "h", false, "print this usage and exit")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	flags.StringVar(&configFile, "config", "", "YAML file with configuration properties")

	loader := config.NewLoader()
	loader.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		return &process.ExitError{Code: 2, Err: fmt.Errorf("%w (see --help)", err)}
	}

	if showVersion {
		fmt.Fprintf(stdout, "eventlog-server %s\n", version.Info())
		return nil
	}
	if showHelp || !start {
		fmt.Fprint(stdout, usage())
		return nil
	}

	if configFile != "" {
		if err := loader.ReadFile(configFile); err != nil {
			return err
		}
	}
	cfg, err := loader.Resolve()
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	logger := service.NewLogger(cfg.LogLevel)
	for _, fallback := range cfg.Fallbacks {
		logger.Warn("invalid configuration value, using default",
			"key", fallback.Key,
			"value", fallback.Value,
			"default", fallback.Default,
			"reason", fallback.Reason,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("eventlog server starting",
		"version", version.Info(),
		"directory", cfg.DirectoryAddress(),
		"listen", cfg.ListenAddress(),
	)
	if err := server.Run(ctx, cfg, clock.Real(), logger, nil); err != nil {
		return err
	}
	logger.Info("eventlog server stopped")
	return nil
}

// usage lists the flags, the responses the server sends, and every
// configuration property.
func usage() string {
	var builder strings.Builder
	builder.WriteString(`Usage: eventlog-server --start [--config FILE] [--<property>=<value> ...]

Options:
  --start            start the server
  --config FILE      YAML file with configuration properties
  --version          print version information and exit
  -h, --help         print this usage and exit

Responses:
`)
	width := 0
	for _, responseType := range protocol.ResponseTypes() {
		width = max(width, len(responseType))
	}
	for _, responseType := range protocol.ResponseTypes() {
		fmt.Fprintf(&builder, "  %-*s  %s\n", width, responseType, responseType.Description())
	}

	builder.WriteString("\nConfiguration properties (flag, or environment variable with dots as underscores):\n")
	for _, key := range config.Keys {
		fmt.Fprintf(&builder, "  --%s\n      %s\n", key.Name, key.Usage())
	}
	return builder.String()
}
