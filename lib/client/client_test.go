// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/eventlog/lib/clock"
	"github.com/bureau-foundation/eventlog/lib/config"
	"github.com/bureau-foundation/eventlog/lib/event"
	"github.com/bureau-foundation/eventlog/lib/protocol"
	"github.com/bureau-foundation/eventlog/lib/server"
	"github.com/bureau-foundation/eventlog/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func testConfig(t *testing.T, retries, retryDelaySeconds int) config.Config {
	t.Helper()
	loader := config.NewLoader()
	loader.Set(config.KeyRegistryPort, strconv.Itoa(testutil.FreePort(t)))
	loader.Set(config.KeyRetries, strconv.Itoa(retries))
	loader.Set(config.KeyRetryDelay, strconv.Itoa(retryDelaySeconds))
	loader.Set(config.KeyLogDir, t.TempDir())
	cfg, err := loader.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return cfg
}

// runningServer is an in-process server started by startServer.
type runningServer struct {
	clock *clock.FakeClock
	done  chan error
}

// startServer runs a server for cfg and blocks until it is published.
// The server stops when the test ends.
func startServer(t *testing.T, cfg config.Config) *runningServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	running := &runningServer{clock: clock.Fake(epoch), done: make(chan error, 1)}
	ready := make(chan string, 1)
	go func() {
		running.done <- server.Run(ctx, cfg, running.clock, testLogger(), func(address string) { ready <- address })
	}()
	testutil.RequireReceive(t, ready, 5*time.Second, "server did not publish")
	t.Cleanup(func() {
		cancel()
		testutil.RequireReceive(t, running.done, 5*time.Second, "server did not stop")
	})
	return running
}

// inProcessSpawner starts an in-process server instead of a binary.
type inProcessSpawner struct {
	t     *testing.T
	calls atomic.Int32
	fail  error
}

func (s *inProcessSpawner) Spawn(ctx context.Context, cfg config.Config) error {
	s.calls.Add(1)
	if s.fail != nil {
		return s.fail
	}
	startServer(s.t, cfg)
	return nil
}

// idleSpawner pretends to start a server that never appears.
type idleSpawner struct {
	calls atomic.Int32
}

func (s *idleSpawner) Spawn(ctx context.Context, cfg config.Config) error {
	s.calls.Add(1)
	return nil
}

func TestUsesPublishedServerWithoutSpawning(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	startServer(t, cfg)

	spawner := &inProcessSpawner{t: t}
	client := New(Options{Config: cfg, Logger: testLogger(), Spawner: spawner})

	response, err := client.StartEvent(context.Background(), "found")
	if err != nil {
		t.Fatalf("StartEvent: %v", err)
	}
	if response.Type() != protocol.EventStartStopResponse {
		t.Fatalf("response type = %s, want EVENT_START_STOP", response.Type())
	}
	if spawner.calls.Load() != 0 {
		t.Fatalf("spawner called %d times for a published server", spawner.calls.Load())
	}
}

func TestSpawnsServerWhenNoneIsPublished(t *testing.T) {
	cfg := testConfig(t, 2, 0)
	spawner := &inProcessSpawner{t: t}
	client := New(Options{Config: cfg, Logger: testLogger(), Spawner: spawner})
	ctx := context.Background()

	if response, err := client.StartMainEvent(ctx); err != nil || response.IsError() {
		text, _ := response.Text()
		t.Fatalf("StartMainEvent = %s %q, %v", response.Type(), text, err)
	}
	if response, err := client.StartEvent(ctx, "build", protocol.WithInitialData("a")); err != nil || response.IsError() {
		t.Fatalf("StartEvent = %s, %v", response.Type(), err)
	}
	if _, err := client.StopEvent(ctx, "build", protocol.WithFinalData("b")); err != nil {
		t.Fatalf("StopEvent: %v", err)
	}

	response, err := client.QueryEventInformation(ctx, "build")
	if err != nil {
		t.Fatalf("QueryEventInformation: %v", err)
	}
	text, ok := response.Text()
	if !ok {
		t.Fatalf("response type = %s, want EVENT_QUERY", response.Type())
	}
	report, err := event.ParseReport(text)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if report.Status != event.StateStopped || len(report.DataDifference) != 1 {
		t.Fatalf("report = %+v", report)
	}

	if got := spawner.calls.Load(); got != 1 {
		t.Fatalf("spawner called %d times, want 1", got)
	}
}

func TestDiscoveryFailureIsPermanent(t *testing.T) {
	cfg := testConfig(t, 3, 2)
	fakeClock := clock.Fake(epoch)
	spawner := &idleSpawner{}
	client := New(Options{Config: cfg, Clock: fakeClock, Logger: testLogger(), Spawner: spawner})

	result := make(chan error, 1)
	go func() {
		_, err := client.ListEventNames(context.Background())
		result <- err
	}()

	for range cfg.Retries {
		fakeClock.WaitForTimers(1)
		select {
		case err := <-result:
			t.Fatalf("discovery ended before the retries were spent: %v", err)
		default:
		}
		fakeClock.Advance(2 * time.Second)
	}

	err := testutil.RequireReceive(t, result, 5*time.Second, "discovery did not give up")
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("error = %v, want ErrServerUnavailable", err)
	}

	// The memoized failure is returned without another attempt.
	if _, err := client.StopServer(context.Background()); !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("second request error = %v, want ErrServerUnavailable", err)
	}
	if got := spawner.calls.Load(); got != 1 {
		t.Fatalf("spawner called %d times, want 1", got)
	}
	if fakeClock.PendingCount() != 0 {
		t.Fatalf("%d timers pending after discovery gave up", fakeClock.PendingCount())
	}
}

func TestServerAppearsAfterRetries(t *testing.T) {
	cfg := testConfig(t, 5, 2)
	fakeClock := clock.Fake(epoch)
	spawner := &idleSpawner{}
	client := New(Options{Config: cfg, Clock: fakeClock, Logger: testLogger(), Spawner: spawner})
	ctx := context.Background()

	result := make(chan error, 1)
	go func() {
		response, err := client.StartMainEvent(ctx)
		if err == nil && response.Type() != protocol.EventStartStopResponse {
			err = response.Err()
		}
		result <- err
	}()

	// The spawned server is still coming up for the first two retries.
	for range 2 {
		fakeClock.WaitForTimers(1)
		select {
		case err := <-result:
			t.Fatalf("discovery ended before the server appeared: %v", err)
		default:
		}
		fakeClock.Advance(cfg.RetryDelay)
	}
	fakeClock.WaitForTimers(1)
	startServer(t, cfg)
	fakeClock.Advance(cfg.RetryDelay)

	if err := testutil.RequireReceive(t, result, 5*time.Second, "discovery did not finish"); err != nil {
		t.Fatalf("StartMainEvent: %v", err)
	}
	if fakeClock.PendingCount() != 0 {
		t.Fatalf("%d retry timers still pending", fakeClock.PendingCount())
	}

	first, err := client.ServerAddress(ctx)
	if err != nil {
		t.Fatalf("ServerAddress: %v", err)
	}
	response, err := client.CheckEventName(ctx, "MAIN")
	if err != nil {
		t.Fatalf("CheckEventName: %v", err)
	}
	if exists, _ := response.Bool(); !exists {
		t.Fatalf("main event missing on the discovered server (%s)", response.Type())
	}
	if again, _ := client.ServerAddress(ctx); again != first {
		t.Fatalf("server address changed from %q to %q", first, again)
	}
	if got := spawner.calls.Load(); got != 1 {
		t.Fatalf("spawner called %d times, want 1", got)
	}
}

func TestSpawnFailure(t *testing.T) {
	cfg := testConfig(t, 5, 2)
	spawner := &inProcessSpawner{t: t, fail: errors.New("binary not found")}
	client := New(Options{Config: cfg, Clock: clock.Fake(epoch), Logger: testLogger(), Spawner: spawner})

	_, err := client.CheckEventName(context.Background(), "any")
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("error = %v, want ErrServerUnavailable", err)
	}
}

func TestTransportFailureBecomesErrorResponse(t *testing.T) {
	cfg := testConfig(t, 0, 0)
	running := startServer(t, cfg)
	client := New(Options{Config: cfg, Logger: testLogger(), Spawner: &idleSpawner{}})
	ctx := context.Background()

	response, err := client.StopServer(ctx)
	if err != nil {
		t.Fatalf("StopServer: %v", err)
	}
	if response.Type() != protocol.StopServerResponseType {
		t.Fatalf("response type = %s, want STOP_SERVER", response.Type())
	}
	running.clock.Advance(server.ShutdownGracePeriod)

	response, err = client.QueryAllEventsInformation(ctx)
	if err != nil {
		t.Fatalf("QueryAllEventsInformation returned a Go error: %v", err)
	}
	if !response.IsError() {
		t.Fatalf("response type = %s, want ERROR", response.Type())
	}
	if response.Request().Type() != protocol.QueryAllEventsInfoRequest {
		t.Fatalf("ERROR answers %s", response.Request().Type())
	}
}

func TestConcurrentFirstRequestsSpawnOnce(t *testing.T) {
	cfg := testConfig(t, 2, 0)
	spawner := &inProcessSpawner{t: t}
	client := New(Options{Config: cfg, Logger: testLogger(), Spawner: spawner})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.ListEventNames(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("ListEventNames: %v", err)
	}
	if got := spawner.calls.Load(); got != 1 {
		t.Fatalf("spawner called %d times, want 1", got)
	}
}
