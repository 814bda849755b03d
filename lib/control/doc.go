// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package control is the scull device's socket API: the action names,
// the request and response shapes, the handlers sculld registers, and
// a typed client for scullctl.
//
// Every action maps onto handle operations. A read opens a read-only
// handle, a write opens a handle in the requested mode (read-write by
// default, so content is kept), and truncate opens and closes a
// write-only handle, which is the only way to trim from outside. Seek
// and ioctl exist so callers get the same "not supported" answer a
// device node gives.
//
// Failures carry an error code. [Client] turns codes back into the
// scull sentinel errors, so errors.Is works across the socket.
package control
