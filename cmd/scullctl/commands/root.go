// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scull/cmd/scullctl/cli"
	"github.com/bureau-foundation/scull/lib/config"
	"github.com/bureau-foundation/scull/lib/control"
	"github.com/bureau-foundation/scull/lib/version"
)

// SocketEnvironmentVariable overrides the default socket path.
const SocketEnvironmentVariable = "SCULL_SOCKET"

// requestTimeout bounds one command's socket traffic.
const requestTimeout = 30 * time.Second

// Streams are the process's standard streams.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StandardStreams returns the os streams.
func StandardStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// connection holds the flags every device command shares.
type connection struct {
	socketPath string
	verbose    bool
}

func (c *connection) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socketPath, "socket", defaultSocketPath(), "sculld control socket")
	flagSet.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")
}

// client returns a control client and a context bounded by
// requestTimeout.
func (c *connection) client() (*control.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	return control.NewClient(c.socketPath), ctx, cancel
}

// defaultSocketPath is $SCULL_SOCKET, else the daemon's default.
func defaultSocketPath() string {
	if path := os.Getenv(SocketEnvironmentVariable); path != "" {
		return path
	}
	cfg := config.Default()
	cfg.Expand()
	return cfg.Socket.Path
}

// Root returns the scullctl command tree.
func Root(streams Streams) *cli.Command {
	var showVersion bool
	var output cli.JSONOutput

	root := &cli.Command{
		Name: "scullctl",
		Description: `Control a scull device served by sculld.

A scull device is a memory-backed file whose reads and writes stop at
quantum boundaries. Opening it write-only discards everything; the
truncate command does exactly that.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("scullctl", pflag.ContinueOnError)
			flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
			output.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if !showVersion {
				return fmt.Errorf("subcommand required\n\nRun 'scullctl --help' for usage.")
			}
			if done, err := output.EmitJSON(streams.Stdout, version.Current()); done {
				return err
			}
			fmt.Fprintf(streams.Stdout, "scullctl %s\n", version.Info())
			return nil
		},
	}
	root.Subcommands = []*cli.Command{
		statusCommand(streams),
		readCommand(streams),
		writeCommand(streams),
		truncateCommand(streams),
		paramsCommand(streams),
	}
	return root
}
