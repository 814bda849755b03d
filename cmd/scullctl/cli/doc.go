// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is scullctl's command framework: a tree of [Command]
// values dispatched by name, pflag flag sets parsed per command, help
// output, and typo suggestions for unknown commands and flags.
//
// Commands print results to the writer they were built with. [JSONOutput]
// adds a --json flag; [ExitError] ends the process with a code without
// an extra error line.
package cli
