// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"

	"github.com/bureau-foundation/scull/lib/scull"
	"github.com/bureau-foundation/scull/lib/service"
)

// Action names.
const (
	ActionStatus    = "status"
	ActionRead      = "read"
	ActionWrite     = "write"
	ActionTruncate  = "truncate"
	ActionParams    = "params"
	ActionSetParams = "set-params"
	ActionSeek      = "seek"
	ActionIoctl     = "ioctl"
)

// MaxTransfer is the largest payload one read or write request
// carries.
const MaxTransfer = service.MaxTransfer

// Error codes carried in failure responses.
const (
	CodeResourceExhausted = "resource_exhausted"
	CodeUnsupported       = "unsupported"
	CodeInvalidGeometry   = "invalid_geometry"
	CodeInvalidOffset     = "invalid_offset"
	CodeAccessMode        = "access_mode"
	CodeClosed            = "closed"
	CodeInvalidArgument   = "invalid_argument"
)

// ErrInvalidArgument reports a malformed request field.
var ErrInvalidArgument = errors.New("control: invalid argument")

var codeErrors = []struct {
	code string
	err  error
}{
	{CodeResourceExhausted, scull.ErrResourceExhausted},
	{CodeUnsupported, scull.ErrUnsupported},
	{CodeInvalidGeometry, scull.ErrInvalidGeometry},
	{CodeInvalidOffset, scull.ErrInvalidOffset},
	{CodeAccessMode, scull.ErrAccessMode},
	{CodeClosed, scull.ErrClosed},
	{CodeInvalidArgument, ErrInvalidArgument},
}

// Classify returns the error code for err, or "" if err matches none
// of the known sentinels. It is the SocketOptions.Classify hook.
func Classify(err error) string {
	for _, entry := range codeErrors {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return ""
}

// sentinel returns the error a code stands for, or nil.
func sentinel(code string) error {
	for _, entry := range codeErrors {
		if entry.code == code {
			return entry.err
		}
	}
	return nil
}

// ReadRequest asks for up to Length bytes at Offset. With Single set
// the server performs exactly one device read, so the reply shows the
// quantum-boundary clamp; otherwise it loops until Length bytes, the
// end of data, or a hole.
type ReadRequest struct {
	Offset int64 `cbor:"offset"`
	Length int   `cbor:"length"`
	Single bool  `cbor:"single,omitempty"`
}

// ReadResponse carries the bytes read. An empty Data means end of data
// or a hole at Offset.
type ReadResponse struct {
	Data []byte `cbor:"data"`
}

// WriteRequest stores Data at Offset through a handle opened with
// Mode ("read-write" when empty). A write-only mode trims first. With
// Single set the server performs exactly one device write.
type WriteRequest struct {
	Offset int64  `cbor:"offset"`
	Data   []byte `cbor:"data"`
	Mode   string `cbor:"mode,omitempty"`
	Single bool   `cbor:"single,omitempty"`
}

// WriteResponse reports how many bytes were stored.
type WriteResponse struct {
	Written int `cbor:"written"`
}

// SetParamsRequest changes the pending geometry. Absent fields keep
// their current value. The new values apply at the next trim.
type SetParamsRequest struct {
	Quantum *int `cbor:"quantum,omitempty"`
	QSet    *int `cbor:"qset,omitempty"`
}

// Status is the status action's reply and scullctl's --json output.
type Status struct {
	scull.DeviceStats
	Fingerprint string `json:"fingerprint"`
}

// remoteError rebuilds a sentinel-wrapping error from a failure
// response so callers can test it with errors.Is.
func remoteError(err error) error {
	var serviceError *service.ServiceError
	if !errors.As(err, &serviceError) {
		return err
	}
	if target := sentinel(serviceError.Code); target != nil {
		return &codedError{ServiceError: serviceError, target: target}
	}
	return err
}

// codedError matches both the ServiceError and the sentinel its code
// names.
type codedError struct {
	*service.ServiceError
	target error
}

func (e *codedError) Unwrap() []error {
	return []error{e.ServiceError, e.target}
}
