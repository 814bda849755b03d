// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads sculld's configuration.
//
// Configuration comes from a single file named by the SCULL_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no discovery and no search path. Without a
// file, [Default] supplies every value.
//
// Files are YAML unless the name ends in .json or .jsonc, in which
// case they are parsed as JSON with comments and trailing commas.
// Values absent from the file keep their defaults.
//
// The socket path and mountpoint are expanded after loading:
// ${VAR} and ${VAR:-default} patterns resolve against the
// environment. No environment variable overrides a value directly.
//
// Key exports:
//
//   - [Config] with Device, Mount, Socket, and Log sections
//   - [Default], [Load], [LoadFile]
//   - [Config.Validate], which reports every problem at once
package config
