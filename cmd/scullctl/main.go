// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/bureau-foundation/scull/cmd/scullctl/commands"
	"github.com/bureau-foundation/scull/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	return commands.Root(commands.StandardStreams()).Execute(os.Args[1:])
}
