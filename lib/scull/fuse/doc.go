// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes a [scull.Device] as a file in a FUSE mount, so
// ordinary programs can open, read and write it like a device node.
//
// The mount root contains exactly one regular file named after the
// device. Every open(2) of that file becomes one [scull.Handle] on the
// device's shared engine, released on close(2):
//
//   - O_WRONLY opens trim the device, so "echo data > scull0" replaces
//     the content rather than overwriting a prefix of it.
//   - read(2) and write(2) go straight to the engine with direct I/O,
//     so the short transfers at quantum boundaries and the zero-byte
//     reads at holes reach the caller unchanged.
//   - The file is opened non-seekable: lseek(2) fails, and the only
//     offset a session sees is its own running position.
//   - truncate(2) to zero trims; any other length is rejected.
//
// The file reports the engine's logical size and allocated blocks, so
// stat and du show how sparse the device is.
package fuse
