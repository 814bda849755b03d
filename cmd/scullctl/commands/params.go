// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scull/cmd/scullctl/cli"
)

func paramsCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "params",
		Summary: "Show or change the pending quantum and qset",
		Description: `The device's parameters are the quantum and qset the next trim will
lay data out with. Changing them does not touch stored data; run
"scullctl truncate" (or open the device write-only) to apply them.`,
		Subcommands: []*cli.Command{
			paramsGetCommand(streams),
			paramsSetCommand(streams),
		},
	}
}

func paramsGetCommand(streams Streams) *cli.Command {
	var conn connection
	var output cli.JSONOutput

	return &cli.Command{
		Name:    "get",
		Summary: "Show the pending parameters",
		Usage:   "scullctl params get [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: scullctl params get [flags]")
			}
			client, ctx, cancel := conn.client()
			defer cancel()

			geometry, err := client.Params(ctx)
			if err != nil {
				return err
			}
			if done, err := output.EmitJSON(streams.Stdout, geometry); done {
				return err
			}
			fmt.Fprintln(streams.Stdout, geometry)
			return nil
		},
	}
}

func paramsSetCommand(streams Streams) *cli.Command {
	var (
		conn    connection
		output  cli.JSONOutput
		quantum int
		qset    int
		changed func(name string) bool
	)

	return &cli.Command{
		Name:    "set",
		Summary: "Change the pending parameters",
		Usage:   "scullctl params set [--quantum N] [--qset N]",
		Examples: []cli.Example{
			{Description: "Use 64 KiB quantums from the next trim", Command: "scullctl params set --quantum 65536"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			output.AddFlags(flagSet)
			flagSet.IntVar(&quantum, "quantum", 0, "bytes per quantum")
			flagSet.IntVar(&qset, "qset", 0, "quantums per set")
			changed = flagSet.Changed
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: scullctl params set [--quantum N] [--qset N]")
			}
			var quantumValue, qsetValue *int
			if changed("quantum") {
				quantumValue = &quantum
			}
			if changed("qset") {
				qsetValue = &qset
			}
			if quantumValue == nil && qsetValue == nil {
				return fmt.Errorf("nothing to set: pass --quantum, --qset, or both")
			}

			client, ctx, cancel := conn.client()
			defer cancel()

			geometry, err := client.SetParams(ctx, quantumValue, qsetValue)
			if err != nil {
				return err
			}
			if done, err := output.EmitJSON(streams.Stdout, geometry); done {
				return err
			}
			fmt.Fprintf(streams.Stdout, "pending: %s (applies at next trim)\n", geometry)
			return nil
		},
	}
}
