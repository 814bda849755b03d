// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scull/cmd/scullctl/cli"
	"github.com/bureau-foundation/scull/lib/control"
)

func statusCommand(streams Streams) *cli.Command {
	var conn connection
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "status",
		Summary: "Show device size, geometry, and allocation",
		Description: `Show the device's active geometry, the pending parameters that the
next trim will adopt, the logical size, how many quantum sets and
quantums are allocated, memory use against the limit, open handle
counts, and a fingerprint of the stored content.`,
		Usage: "scullctl status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: scullctl status [flags]")
			}
			client, ctx, cancel := conn.client()
			defer cancel()
			logger := cli.NewCommandLogger(conn.verbose).With("command", "status", "socket", conn.socketPath)

			status, err := client.Status(ctx)
			if err != nil {
				return err
			}
			logger.Debug("status received", "size", status.Size)

			if done, err := output.EmitJSON(streams.Stdout, status); done {
				return err
			}
			return printStatus(streams.Stdout, status)
		},
	}
}

func printStatus(w io.Writer, status control.Status) error {
	limit := "unlimited"
	if status.MemoryLimit > 0 {
		limit = humanize.IBytes(uint64(status.MemoryLimit))
	}

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "device:\t%s\n", status.Name)
	fmt.Fprintf(tw, "geometry:\t%s\n", status.Geometry)
	if status.Parameters != status.Geometry {
		fmt.Fprintf(tw, "pending:\t%s (applies at next trim)\n", status.Parameters)
	}
	fmt.Fprintf(tw, "size:\t%s (%s bytes)\n", humanize.IBytes(uint64(status.Size)), humanize.Comma(status.Size))
	fmt.Fprintf(tw, "sets:\t%s of %s\n", humanize.Comma(int64(status.Sets)), humanize.Comma(int64(status.MaxSets)))
	fmt.Fprintf(tw, "quantums:\t%s\n", humanize.Comma(int64(status.Quantums)))
	fmt.Fprintf(tw, "allocated:\t%s of %s\n", humanize.IBytes(uint64(status.AllocatedBytes)), limit)
	fmt.Fprintf(tw, "handles:\t%d open, %s total\n", status.OpenHandles, humanize.Comma(int64(status.TotalOpens)))
	fmt.Fprintf(tw, "fingerprint:\t%s\n", status.Fingerprint)
	return tw.Flush()
}
