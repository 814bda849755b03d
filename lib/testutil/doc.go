// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for scull packages.
//
// [SocketDir] creates a short directory under /tmp for Unix sockets,
// whose paths are limited to 108 bytes. [RequireReceive] and
// [RequireClosed] wrap the select-with-timeout pattern so tests that
// wait on servers and goroutines never hang.
//
// All helpers call t.Fatalf on failure.
package testutil
