// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/bureau-foundation/eventlog/lib/config"
)

// Log files receiving a spawned server's output, under the configured
// log directory.
const (
	ServerOutputLog = "serverOutput.log"
	ServerErrorLog  = "serverError.log"
)

// StartFlag tells the server binary to start serving.
const StartFlag = "--start"

// ProcessSpawner starts the server binary as a detached process:
//
//	<server.binary> --start --key=value ...
//
// The process runs in its own session so it outlives the client. Its
// stdout and stderr are appended to ServerOutputLog and ServerErrorLog.
type ProcessSpawner struct {
	Logger *slog.Logger
}

// Spawn starts the server and returns without waiting for it.
func (s *ProcessSpawner) Spawn(ctx context.Context, cfg config.Config) error {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	stdout, err := openLog(filepath.Join(cfg.LogDir, ServerOutputLog))
	if err != nil {
		return err
	}
	defer stdout.Close()
	stderr, err := openLog(filepath.Join(cfg.LogDir, ServerErrorLog))
	if err != nil {
		return err
	}
	defer stderr.Close()

	args := append([]string{StartFlag}, cfg.AsArgs()...)
	// Not CommandContext: the server must survive the caller's context.
	cmd := exec.Command(cfg.ServerBinary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cfg.ServerBinary, err)
	}
	if s.Logger != nil {
		s.Logger.Info("server process started",
			"binary", cfg.ServerBinary,
			"pid", cmd.Process.Pid,
			"log_dir", cfg.LogDir,
		)
	}
	// Reap the child if it exits while this process is still running.
	go cmd.Wait()
	return nil
}

func openLog(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return file, nil
}
