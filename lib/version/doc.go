// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build information for sculld and scullctl.
//
// Four variables are injected at build time with -ldflags -X:
// [GitCommit], [GitDirty], [BuildTime], and [Version]. They default
// to "unknown" / "0.1.0-dev" in development builds and tests.
//
// [Info] is the one-line --version string, [Full] adds the Go
// toolchain and platform, and [Current] returns the same data as a
// struct for JSON output.
package version
