// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"
	"syscall"

	"github.com/bureau-foundation/scull/lib/scull"
)

// toErrno maps engine and handle errors onto the errno a device node
// would return.
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, scull.ErrResourceExhausted):
		return syscall.ENOMEM
	case errors.Is(err, scull.ErrUnsupported):
		return syscall.ENOTSUP
	case errors.Is(err, scull.ErrInvalidGeometry), errors.Is(err, scull.ErrInvalidOffset):
		return syscall.EINVAL
	case errors.Is(err, scull.ErrClosed), errors.Is(err, scull.ErrAccessMode):
		return syscall.EBADF
	default:
		return syscall.EIO
	}
}
