// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import "errors"

var (
	// ErrResourceExhausted is returned when an allocation would push
	// the engine past its memory limit, or when an offset addresses a
	// quantum set that cannot be represented. The engine is left
	// exactly as it was before the failing call.
	ErrResourceExhausted = errors.New("scull: resource exhausted")

	// ErrUnsupported is returned by seek and every ioctl.
	ErrUnsupported = errors.New("scull: operation not supported")

	// ErrInvalidGeometry is returned by engine construction and by
	// trim when the configured quantum or qset size is not positive,
	// or when their product does not fit in an int64.
	ErrInvalidGeometry = errors.New("scull: invalid geometry")

	// ErrInvalidOffset is returned for negative offsets and for
	// transfers whose end would overflow an int64.
	ErrInvalidOffset = errors.New("scull: invalid offset")

	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = errors.New("scull: handle closed")

	// ErrAccessMode is returned when a handle is used for a transfer
	// its access mode does not permit (read on a write-only handle,
	// write on a read-only one).
	ErrAccessMode = errors.New("scull: handle not open for this operation")
)
