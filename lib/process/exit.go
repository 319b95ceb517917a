// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries a specific exit code out of run().
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Fatal writes "error: err" to stderr and exits with code 1, or with
// the code of an *ExitError in err's chain. Use it in main() for
// errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err and returns the exit code for it.
func report(w io.Writer, err error) int {
	code := 1
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Err == nil {
			return code
		}
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return code
}
