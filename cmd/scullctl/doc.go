// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Scullctl talks to sculld over its control socket: it shows device
// status, reads and writes data, truncates the device, and changes the
// pending quantum and qset. Every command accepts --socket (default
// $SCULL_SOCKET, else ${XDG_RUNTIME_DIR:-/tmp}/scull.sock) and most
// accept --json.
package main
