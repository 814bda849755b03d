// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "read", 4},
		{"read", "read", 0},
		{"raed", "read", 2},
		{"stat", "status", 2},
		{"qset", "quantum", 5},
		{"write", "wrote", 1},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		if got := levenshtein(test.b, test.a); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d (symmetry)", test.b, test.a, got, test.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "read"}, {Name: "write"}, {Name: "status"}}
	tests := []struct {
		input string
		want  string
	}{
		{"raed", "read"},
		{"wirte", "write"},
		{"stauts", "status"},
		{"mknod", ""},
	}
	for _, test := range tests {
		if got := suggestCommand(test.input, commands); got != test.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("write", pflag.ContinueOnError)
	flagSet.Int64("offset", 0, "")
	flagSet.String("mode", "read-write", "")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--offest=3"}, "--offset"},
		{[]string{"--offset", "3", "--mdoe", "write-only"}, "--mode"},
		{[]string{"--completely-different"}, ""},
		{[]string{"--", "--offest"}, ""},
	}
	for _, test := range tests {
		if got := suggestFlag(test.args, flagSet); got != test.want {
			t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}
