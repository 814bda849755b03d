// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// AccessMode is the access requested when a device is opened.
type AccessMode int

const (
	ReadOnly AccessMode = iota
	WriteOnly
	ReadWrite
)

// AccessModeFromFlags maps open(2) flags onto an AccessMode.
func AccessModeFromFlags(flags uint32) AccessMode {
	switch flags & unix.O_ACCMODE {
	case unix.O_WRONLY:
		return WriteOnly
	case unix.O_RDWR:
		return ReadWrite
	default:
		return ReadOnly
	}
}

// ParseAccessMode accepts "read-only", "write-only" and "read-write".
func ParseAccessMode(name string) (AccessMode, error) {
	switch name {
	case "read-only":
		return ReadOnly, nil
	case "write-only":
		return WriteOnly, nil
	case "read-write":
		return ReadWrite, nil
	default:
		return 0, fmt.Errorf("unknown access mode %q (want read-only, write-only or read-write)", name)
	}
}

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// CanRead reports whether handles in this mode may read.
func (m AccessMode) CanRead() bool { return m == ReadOnly || m == ReadWrite }

// CanWrite reports whether handles in this mode may write.
func (m AccessMode) CanWrite() bool { return m == WriteOnly || m == ReadWrite }

// Handle is one open session on an engine. Many handles can share an
// engine; a handle holds nothing but the reference, its mode, and
// whether it has been closed.
type Handle struct {
	engine  *Engine
	mode    AccessMode
	closed  atomic.Bool
	release func()
}

// Open returns a handle on engine. Opening WriteOnly trims the engine
// before the handle is returned; a failed trim fails the open.
func Open(engine *Engine, mode AccessMode) (*Handle, error) {
	if mode < ReadOnly || mode > ReadWrite {
		return nil, fmt.Errorf("open: invalid access mode %d", int(mode))
	}
	if mode == WriteOnly {
		if err := engine.Trim(); err != nil {
			return nil, fmt.Errorf("open write-only: %w", err)
		}
	}
	return &Handle{engine: engine, mode: mode}, nil
}

// Mode returns the access mode the handle was opened with.
func (h *Handle) Mode() AccessMode {
	return h.mode
}

// Read forwards to [Engine.Read].
func (h *Handle) Read(dest []byte, offset int64) (int, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	if !h.mode.CanRead() {
		return 0, fmt.Errorf("read on %s handle: %w", h.mode, ErrAccessMode)
	}
	return h.engine.Read(dest, offset)
}

// Write forwards to [Engine.Write].
func (h *Handle) Write(data []byte, offset int64) (int, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	if !h.mode.CanWrite() {
		return 0, fmt.Errorf("write on %s handle: %w", h.mode, ErrAccessMode)
	}
	return h.engine.Write(data, offset)
}

// Seek always fails with ErrUnsupported.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrUnsupported
}

// Ioctl always fails with ErrUnsupported, whatever the command.
func (h *Handle) Ioctl(command uint, argument uintptr) (int, error) {
	return 0, ErrUnsupported
}

// Close ends the session. The engine is unaffected. Closing twice is
// harmless.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	if h.release != nil {
		h.release()
	}
	return nil
}
