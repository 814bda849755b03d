// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/pflag"
)

// JSONOutput adds --json to a command.
//
//	var output cli.JSONOutput
//	Flags: func() *pflag.FlagSet {
//	    flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
//	    output.AddFlags(flagSet)
//	    return flagSet
//	},
//	Run: func(args []string) error {
//	    if done, err := output.EmitJSON(stdout, status); done {
//	        return err
//	    }
//	    // text output
//	},
type JSONOutput struct {
	Enabled bool
}

// AddFlags registers --json on flagSet.
func (j *JSONOutput) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolVar(&j.Enabled, "json", false, "output as JSON")
}

// EmitJSON writes result to w as indented JSON when --json is set and
// reports whether it did.
func (j *JSONOutput) EmitJSON(w io.Writer, result any) (bool, error) {
	if !j.Enabled {
		return false, nil
	}
	return true, WriteJSON(w, result)
}

// WriteJSON writes value to w as indented JSON.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
