// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scull/cmd/scullctl/cli"
	"github.com/bureau-foundation/scull/lib/control"
	"github.com/bureau-foundation/scull/lib/scull"
)

// readResult is read's --json output.
type readResult struct {
	Offset int64  `json:"offset"`
	Length int    `json:"length"`
	Data   []byte `json:"data"`
}

func readCommand(streams Streams) *cli.Command {
	var (
		conn        connection
		output      cli.JSONOutput
		offset      int64
		length      int
		single      bool
		requireData bool
	)

	return &cli.Command{
		Name:    "read",
		Summary: "Read bytes from the device",
		Description: `Read from the device and write the bytes to stdout.

Without --length, reading continues until the end of data or the first
hole. With --single, exactly one device read is made, so the result
stops at the quantum boundary the way a raw read(2) does.`,
		Usage: "scullctl read [flags]",
		Examples: []cli.Example{
			{Description: "Dump everything", Command: "scullctl read > dump.bin"},
			{Description: "One raw read at offset 3998", Command: "scullctl read --offset 3998 --length 10 --single"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("read", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlags(flagSet)
			flagSet.Int64Var(&offset, "offset", 0, "byte offset to start at")
			flagSet.IntVar(&length, "length", 0, "bytes to read (0 reads to the end of data)")
			flagSet.BoolVar(&single, "single", false, "make exactly one device read")
			flagSet.BoolVar(&requireData, "require-data", false, "exit 1 if nothing was read")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: scullctl read [flags]")
			}
			if length < 0 {
				return fmt.Errorf("--length must not be negative")
			}
			client, ctx, cancel := conn.client()
			defer cancel()
			logger := cli.NewCommandLogger(conn.verbose).With("command", "read", "socket", conn.socketPath)

			var data []byte
			var err error
			switch {
			case length == 0 && !single:
				data, err = client.ReadAll(ctx, offset)
			case length == 0:
				data, err = client.Read(ctx, offset, control.MaxTransfer, true)
			default:
				data, err = readLength(ctx, client, offset, length, single)
			}
			if err != nil {
				return err
			}
			logger.Debug("read complete", "offset", offset, "length", len(data))

			if done, err := output.EmitJSON(streams.Stdout, readResult{Offset: offset, Length: len(data), Data: data}); done {
				if err == nil && requireData && len(data) == 0 {
					return &cli.ExitError{Code: 1}
				}
				return err
			}
			if _, err := streams.Stdout.Write(data); err != nil {
				return err
			}
			if file, ok := streams.Stdout.(*os.File); ok && len(data) > 0 && cli.IsTerminal(file) {
				fmt.Fprintln(streams.Stdout)
			}
			if requireData && len(data) == 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// readLength reads up to length bytes, in MaxTransfer requests unless
// single is set.
func readLength(ctx context.Context, client *control.Client, offset int64, length int, single bool) ([]byte, error) {
	if single {
		return client.Read(ctx, offset, min(length, control.MaxTransfer), true)
	}
	var all []byte
	for len(all) < length {
		chunk, err := client.Read(ctx, offset+int64(len(all)), min(length-len(all), control.MaxTransfer), false)
		if err != nil {
			return all, err
		}
		all = append(all, chunk...)
		if len(chunk) == 0 {
			break
		}
	}
	return all, nil
}

// writeResult is write's --json output.
type writeResult struct {
	Offset  int64  `json:"offset"`
	Written int    `json:"written"`
	Mode    string `json:"mode"`
}

func writeCommand(streams Streams) *cli.Command {
	var (
		conn   connection
		output cli.JSONOutput
		offset int64
		mode   string
	)

	return &cli.Command{
		Name:    "write",
		Summary: "Write bytes to the device",
		Description: `Write the given string, or stdin when no argument is given, at
--offset. The data is stored through a handle opened with --mode:
read-write keeps existing content, write-only trims the device first.`,
		Usage: "scullctl write [flags] [data]",
		Examples: []cli.Example{
			{Description: "Replace the content", Command: "scullctl write --mode write-only 'hello'"},
			{Description: "Load a file at offset 8000", Command: "scullctl write --offset 8000 < image.bin"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("write", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlags(flagSet)
			flagSet.Int64Var(&offset, "offset", 0, "byte offset to write at")
			flagSet.StringVar(&mode, "mode", scull.ReadWrite.String(), "open mode: read-write or write-only")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("usage: scullctl write [flags] [data]")
			}
			accessMode, err := scull.ParseAccessMode(mode)
			if err != nil {
				return err
			}
			if !accessMode.CanWrite() {
				return fmt.Errorf("--mode %s cannot write", mode)
			}

			var data []byte
			if len(args) == 1 {
				data = []byte(args[0])
			} else {
				data, err = io.ReadAll(streams.Stdin)
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			client, ctx, cancel := conn.client()
			defer cancel()
			logger := cli.NewCommandLogger(conn.verbose).With("command", "write", "socket", conn.socketPath)

			written, err := client.Write(ctx, offset, data, accessMode)
			if err != nil {
				return fmt.Errorf("after %d bytes: %w", written, err)
			}
			logger.Debug("write complete", "offset", offset, "written", written, "mode", accessMode.String())

			if done, err := output.EmitJSON(streams.Stdout, writeResult{Offset: offset, Written: written, Mode: accessMode.String()}); done {
				return err
			}
			fmt.Fprintf(streams.Stdout, "wrote %d bytes at offset %d\n", written, offset)
			return nil
		},
	}
}

func truncateCommand(streams Streams) *cli.Command {
	var conn connection

	return &cli.Command{
		Name:    "truncate",
		Summary: "Discard all data and apply pending parameters",
		Description: `Open the device write-only and close it. This frees every quantum,
resets the size to zero, and adopts the pending quantum and qset.`,
		Usage: "scullctl truncate [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("truncate", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: scullctl truncate [flags]")
			}
			client, ctx, cancel := conn.client()
			defer cancel()
			if err := client.Truncate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(streams.Stdout, "device truncated")
			return nil
		},
	}
}
