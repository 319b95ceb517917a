// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bureau-foundation/eventlog/lib/protocol"
)

// snapshotFlag is a --<name> / --<name>-file pair supplying one data
// snapshot.
type snapshotFlag struct {
	name string
	text string
	file string
}

func addSnapshotFlag(cmd *cobra.Command, name, usage string) *snapshotFlag {
	flag := &snapshotFlag{name: name}
	cmd.Flags().StringVar(&flag.text, name, "", usage)
	cmd.Flags().StringVar(&flag.file, name+"-file", "", usage+", read from a file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive(name, name+"-file")
	return flag
}

// value returns the snapshot; ok is false when neither flag was given.
func (f *snapshotFlag) value(cmd *cobra.Command) (data string, ok bool, err error) {
	switch {
	case cmd.Flags().Changed(f.name):
		return f.text, true, nil
	case cmd.Flags().Changed(f.name + "-file"):
		var content []byte
		if f.file == "-" {
			content, err = io.ReadAll(cmd.InOrStdin())
		} else {
			content, err = os.ReadFile(f.file)
		}
		if err != nil {
			return "", false, fmt.Errorf("reading --%s-file: %w", f.name, err)
		}
		return string(content), true, nil
	}
	return "", false, nil
}

// option converts the snapshot into a request option, or nil.
func (f *snapshotFlag) option(cmd *cobra.Command, with func(string) protocol.Option) (protocol.Option, error) {
	data, ok, err := f.value(cmd)
	if err != nil || !ok {
		return nil, err
	}
	return with(data), nil
}

// collectOptions drops nil options.
func collectOptions(options ...protocol.Option) []protocol.Option {
	var collected []protocol.Option
	for _, option := range options {
		if option != nil {
			collected = append(collected, option)
		}
	}
	return collected
}

func (a *application) startMainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-main [name]",
		Short: "Start the main event",
		Long: `Start the main event. Every other event's starting time is measured
from it. Without a name the configured default main event name is used.
There is only ever one main event.`,
		Args: cobra.MaximumNArgs(1),
	}
	data := addSnapshotFlag(cmd, "data", "starting data snapshot")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		snapshot, err := data.option(cmd, protocol.WithInitialData)
		if err != nil {
			return err
		}
		options := collectOptions(snapshot)
		if len(args) == 1 {
			options = append(options, protocol.WithName(args[0]))
		}
		return a.send(cmd, protocol.StartMainEvent(options...))
	}
	return cmd
}

func (a *application) startCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start an event",
		Args:  cobra.ExactArgs(1),
	}
	data := addSnapshotFlag(cmd, "data", "starting data snapshot")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		snapshot, err := data.option(cmd, protocol.WithInitialData)
		if err != nil {
			return err
		}
		return a.send(cmd, protocol.StartEvent(args[0], collectOptions(snapshot)...))
	}
	return cmd
}

func (a *application) instantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instant <name>",
		Short: "Record an instant event",
		Long: `Record an event without duration. An instant may carry a starting
and an ending snapshot; their difference is included in its report
unless --no-diff is given.`,
		Args: cobra.ExactArgs(1),
	}
	start := addSnapshotFlag(cmd, "start-data", "starting data snapshot")
	end := addSnapshotFlag(cmd, "end-data", "ending data snapshot")
	noDiff := cmd.Flags().Bool("no-diff", false, "do not compute the snapshot difference")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		startSnapshot, err := start.option(cmd, protocol.WithInitialData)
		if err != nil {
			return err
		}
		endSnapshot, err := end.option(cmd, protocol.WithFinalData)
		if err != nil {
			return err
		}
		options := collectOptions(startSnapshot, endSnapshot)
		if *noDiff {
			options = append(options, protocol.WithoutDifference())
		}
		return a.send(cmd, protocol.StartInstantEvent(args[0], options...))
	}
	return cmd
}

func (a *application) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Print whether an event with the name exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, protocol.CheckEventName(args[0]))
		},
	}
}

func (a *application) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every event name in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, protocol.ListEventNames())
		},
	}
}

// stopOptions builds the options shared by stop and stop-main.
func stopOptions(cmd *cobra.Command, data *snapshotFlag, noDiff bool) ([]protocol.Option, error) {
	snapshot, err := data.option(cmd, protocol.WithFinalData)
	if err != nil {
		return nil, err
	}
	options := collectOptions(snapshot)
	if noDiff {
		options = append(options, protocol.WithoutDifference())
	}
	return options, nil
}

func (a *application) stopMainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop-main",
		Short: "Stop the main event",
		Args:  cobra.NoArgs,
	}
	data := addSnapshotFlag(cmd, "data", "ending data snapshot")
	noDiff := cmd.Flags().Bool("no-diff", false, "do not compute the snapshot difference")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		options, err := stopOptions(cmd, data, *noDiff)
		if err != nil {
			return err
		}
		return a.send(cmd, protocol.StopMainEvent(options...))
	}
	return cmd
}

func (a *application) stopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop an event",
		Args:  cobra.ExactArgs(1),
	}
	data := addSnapshotFlag(cmd, "data", "ending data snapshot")
	noDiff := cmd.Flags().Bool("no-diff", false, "do not compute the snapshot difference")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		options, err := stopOptions(cmd, data, *noDiff)
		if err != nil {
			return err
		}
		return a.send(cmd, protocol.StopEvent(args[0], options...))
	}
	return cmd
}

func (a *application) queryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <name>",
		Short: "Print the report of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, protocol.QueryEventInformation(args[0]))
		},
	}
}

func (a *application) queryAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query-all",
		Short: "Print the report of every event in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, protocol.QueryAllEventsInformation())
		},
	}
}

func (a *application) stopServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-server",
		Short: "Stop the server; its events are discarded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.send(cmd, protocol.StopServer())
		},
	}
}

func (a *application) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Long: `Print the resolved configuration as YAML. The output is a valid
--config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rendered, err := a.config.YAML()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}
