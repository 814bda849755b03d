// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Sculld hosts one scull device: a memory-backed character device
// whose storage is a list of quantum sets, allocated lazily on write
// and freed only by a trim.
//
// The device is reachable two ways. With mount.mountpoint configured,
// a FUSE filesystem exposes it as a single file: opening it O_WRONLY
// trims it, reads and writes are short at quantum boundaries, and
// lseek fails. The control socket always runs and carries the status,
// read, write, truncate, params, and set-params actions that scullctl
// uses.
//
// Configuration comes from --config or SCULL_CONFIG; without either,
// the built-in defaults apply. On SIGINT or SIGTERM the daemon
// unmounts first, so no new opens arrive, then drains the socket.
package main
