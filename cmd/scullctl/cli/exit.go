// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError ends the process with Code and no extra message. Commands
// return it when a non-zero exit is an answer rather than a failure,
// such as "read" finding no data with --require-data.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode satisfies process.ExitCoder.
func (e *ExitError) ExitCode() int {
	return e.Code
}
