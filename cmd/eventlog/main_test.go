// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/eventlog/lib/client"
	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/event"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/server"
	"github.com/bureau-foundation/eventlog/lib/testutil"
)

// recordingClient answers every request with respond and keeps them.
type recordingClient struct {
	requests []protocol.Request
	respond  func(protocol.Request) protocol.Response
}

func (c *recordingClient) SendRequest(ctx context.Context, request protocol.Request) (protocol.Response, error) {
	c.requests = append(c.requests, request)
	if c.respond == nil {
		return protocol.EventStartedStopped(request), nil
	}
	return c.respond(request), nil
}

// executeCommand runs the CLI with args and returns captured stdout.
func executeCommand(t *testing.T, fake requester, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := environment{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
		newClient: func(cfg config.Config, logger *slog.Logger) requester {
			return fake
		},
	}
	root := newRootCommand(env)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestStartCommandsBuildRequests(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantType protocol.RequestType
		wantName string
		wantOut  string
	}{
		{"start-main default", []string{"start-main"}, protocol.StartMainEventRequest, "", "started main event\n"},
		{"start-main named", []string{"start-main", "release"}, protocol.StartMainEventRequest, "release", "started main event release\n"},
		{"start", []string{"start", "compile"}, protocol.StartEventRequest, "compile", "started compile\n"},
		{"instant", []string{"instant", "tag"}, protocol.StartInstantEventRequest, "tag", "recorded instant tag\n"},
		{"stop", []string{"stop", "compile"}, protocol.StopEventRequest, "compile", "stopped compile\n"},
		{"stop-main", []string{"stop-main"}, protocol.StopMainEventRequest, "", "stopped main event\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fake := &recordingClient{}
			output, err := executeCommand(t, fake, "", test.args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if len(fake.requests) != 1 {
				t.Fatalf("sent %d requests, want 1", len(fake.requests))
			}
			request := fake.requests[0]
			if request.Type() != test.wantType {
				t.Errorf("request type = %s, want %s", request.Type(), test.wantType)
			}
			if name, _ := request.Name(); name != test.wantName {
				t.Errorf("request name = %q, want %q", name, test.wantName)
			}
			if output != test.wantOut {
				t.Errorf("output = %q, want %q", output, test.wantOut)
			}
		})
	}
}

func TestSnapshotFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fake := &recordingClient{}
	if _, err := executeCommand(t, fake, "", "start", "a", "--data", "inline"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := executeCommand(t, fake, "", "stop", "a", "--data-file", path, "--no-diff"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := executeCommand(t, fake, "piped", "instant", "b", "--start-data-file", "-", "--end-data", ""); err != nil {
		t.Fatalf("instant: %v", err)
	}
	if _, err := executeCommand(t, fake, "", "start", "c"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if data, ok := fake.requests[0].InitialData(); !ok || data != "inline" {
		t.Errorf("start initial data = %q, %v", data, ok)
	}
	stop := fake.requests[1]
	if data, ok := stop.FinalData(); !ok || data != "from file" {
		t.Errorf("stop final data = %q, %v", data, ok)
	}
	if stop.CalculateDifference() {
		t.Error("--no-diff did not disable the difference")
	}
	instant := fake.requests[2]
	if data, ok := instant.InitialData(); !ok || data != "piped" {
		t.Errorf("instant initial data = %q, %v", data, ok)
	}
	if data, ok := instant.FinalData(); !ok || data != "" {
		t.Errorf("instant final data = %q, %v, want present and empty", data, ok)
	}
	if _, ok := fake.requests[3].InitialData(); ok {
		t.Error("start without --data sent a snapshot")
	}
}

func TestSnapshotFlagsAreExclusive(t *testing.T) {
	fake := &recordingClient{}
	_, err := executeCommand(t, fake, "", "start", "a", "--data", "x", "--data-file", "y")
	if err == nil {
		t.Fatal("expected error for --data with --data-file")
	}
	if len(fake.requests) != 0 {
		t.Fatal("request sent despite conflicting flags")
	}
}

func TestQueryOutput(t *testing.T) {
	fake := &recordingClient{respond: func(request protocol.Request) protocol.Response {
		switch request.Type() {
		case protocol.CheckEventNameRequest:
			return protocol.EventNameCheck(request, true)
		case protocol.ListEventNamesRequest:
			return protocol.EventNames(request, []string{"one", "two"})
		case protocol.QueryEventInfoRequest:
			return protocol.EventQuery(request, `{"name": "one"}`)
		case protocol.QueryAllEventsInfoRequest:
			return protocol.EventsQuery(request, []string{`{"name": "one"}`, `{"name": "two"}`})
		case protocol.StopServerRequest:
			return protocol.StopServerResponse(request)
		}
		return protocol.ErrorResponse(request, "unexpected")
	}}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"check", "one"}, "true\n"},
		{[]string{"list"}, "one\ntwo\n"},
		{[]string{"query", "one"}, "{\"name\": \"one\"}\n"},
		{[]string{"query-all"}, "{\"name\": \"one\"}\n{\"name\": \"two\"}\n"},
		{[]string{"stop-server"}, "server stopping\n"},
	}
	for _, test := range tests {
		output, err := executeCommand(t, fake, "", test.args...)
		if err != nil {
			t.Fatalf("%v: %v", test.args, err)
		}
		if output != test.want {
			t.Errorf("%v output = %q, want %q", test.args, output, test.want)
		}
	}
}

func TestErrorResponseFailsCommand(t *testing.T) {
	fake := &recordingClient{respond: func(request protocol.Request) protocol.Response {
		return protocol.ErrorResponse(request, "event ghost has not been started yet")
	}}
	_, err := executeCommand(t, fake, "", "stop", "ghost")
	var responseErr *protocol.ResponseError
	if !errors.As(err, &responseErr) {
		t.Fatalf("error = %v, want *protocol.ResponseError", err)
	}
	if responseErr.RequestType != protocol.StopEventRequest {
		t.Errorf("RequestType = %s", responseErr.RequestType)
	}
}

func TestRawOutput(t *testing.T) {
	fake := &recordingClient{}
	output, err := executeCommand(t, fake, "", "--raw", "start", "compile")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(output, `"EVENT_START_STOP"`) || !strings.Contains(output, `"compile"`) {
		t.Fatalf("raw output = %q", output)
	}
}

func TestConfigCommand(t *testing.T) {
	output, err := executeCommand(t, &recordingClient{}, "",
		"config", "--"+config.KeyNamingConvention+"=lowercase")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(output, "naming_convention: LOWERCASE") {
		t.Fatalf("config output lacks the normalized convention:\n%s", output)
	}
}

func TestEndToEnd(t *testing.T) {
	registryPort := strconv.Itoa(testutil.FreePort(t))
	loader := config.NewLoader()
	loader.Set(config.KeyRegistryPort, registryPort)
	cfg, err := loader.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	serverClock := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, cfg, serverClock, testLogger(), func(address string) { ready <- address })
	}()
	testutil.RequireReceive(t, ready, 5*time.Second, "server did not publish")
	t.Cleanup(func() {
		cancel()
		testutil.RequireReceive(t, done, 5*time.Second, "server did not stop")
	})

	run := func(args ...string) string {
		t.Helper()
		var stdout bytes.Buffer
		env := environment{
			stdin:  strings.NewReader(""),
			stdout: &stdout,
			stderr: &bytes.Buffer{},
			newClient: func(cfg config.Config, logger *slog.Logger) requester {
				return client.New(client.Options{Config: cfg, Logger: logger})
			},
		}
		root := newRootCommand(env)
		root.SetArgs(append(args, "--"+config.KeyRegistryPort+"="+registryPort))
		if err := root.Execute(); err != nil {
			t.Fatalf("eventlog %v: %v", args, err)
		}
		return stdout.String()
	}

	run("start-main")
	serverClock.Advance(2 * time.Second)
	run("start", "deploy", "--data", "replicas: 1")
	run("instant", "B")

	running, err := event.ParseReport(run("query", "deploy"))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if running.Status != event.StateRunning || !running.HasStartingData || running.HasEndingData {
		t.Fatalf("report while running = %+v", running)
	}

	serverClock.Advance(3 * time.Second)
	run("stop", "deploy", "--data", "replicas: 3")

	report, err := event.ParseReport(run("query", "deploy"))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if report.StartingTime != 2 || report.ElapsedTime != "3" || report.Status != event.StateStopped {
		t.Fatalf("report = %+v", report)
	}
	if want := "[CHANGE,replicas: ~1~,replicas: **3**]"; len(report.DataDifference) != 1 || report.DataDifference[0] != want {
		t.Fatalf("DataDifference = %v, want [%s]", report.DataDifference, want)
	}
	instant, err := event.ParseReport(run("query", "B"))
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if instant.Status != event.StateInstant || instant.ElapsedTime != event.InstantMarker {
		t.Fatalf("instant report = %+v", instant)
	}
	if names := run("list"); names != "MAIN\ndeploy\nB\n" {
		t.Fatalf("list output = %q", names)
	}

	// A client resolved before the shutdown sees every later request
	// fail with an ERROR response.
	resolved := client.New(client.Options{Config: cfg, Logger: testLogger(), Spawner: refusingSpawner{t}})
	if _, err := resolved.ServerAddress(context.Background()); err != nil {
		t.Fatalf("ServerAddress: %v", err)
	}
	if output := run("stop-server"); !strings.Contains(output, "server stopping") {
		t.Fatalf("stop-server output = %q", output)
	}
	response, err := resolved.SendRequest(context.Background(), protocol.ListEventNames())
	if err != nil {
		t.Fatalf("SendRequest after stop-server returned a Go error: %v", err)
	}
	if !response.IsError() {
		t.Fatalf("request after stop-server answered %s, want ERROR", response.Type())
	}
}

// refusingSpawner fails the test if a client tries to start a server.
type refusingSpawner struct{ t *testing.T }

func (s refusingSpawner) Spawn(ctx context.Context, cfg config.Config) error {
	s.t.Errorf("unexpected server spawn")
	return errors.New("spawning disabled")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}
