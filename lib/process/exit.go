// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is an error that carries its own process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// Fatal reports err from run() and exits. An ExitCoder anywhere in
// the chain sets the exit code and suppresses the message, since the
// command has already reported it. Everything else prints
// "error: err" to stderr and exits 1.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes the message Fatal would print and returns its exit
// code.
func report(w io.Writer, err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
