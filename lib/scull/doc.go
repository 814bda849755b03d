// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scull implements an in-memory character device: a byte
// store addressed by 64-bit offset, shared by every session that opens
// it.
//
// # Layout
//
// Storage is a two-level sparse structure. The [Engine] holds a
// growable slice of quantum sets; each set holds exactly QSet slots;
// each slot is either empty or a Quantum-byte buffer. An offset is
// split into (set, slot, byte) by [Geometry]:
//
//	setBytes = Quantum * QSet
//	set      = offset / setBytes
//	slot     = (offset % setBytes) / Quantum
//	byte     = (offset % setBytes) % Quantum
//
// Sets are appended on demand by writes and never removed except by
// [Engine.Trim]. Quantum buffers are allocated zero-filled on the
// first write that touches them. Reads never allocate: reading an
// empty quantum (a hole) returns zero bytes.
//
// # Short transfers
//
// A single Read or Write never crosses a quantum boundary and never
// reads past the logical end of data, so either may transfer fewer
// bytes than asked. Callers loop, advancing the offset by the count
// returned. [ReadFull] and [WriteFull] implement those loops.
//
// # Geometry lifecycle
//
// Quantum and QSet are snapshotted from a [GeometrySource] when the
// engine is built and at every trim, and stay fixed in between so that
// offsets keep their meaning. [Parameters] is the runtime-settable
// source used by the daemon; changes take effect at the next trim.
//
// # Sessions
//
// A [Device] owns one engine and hands out a [Handle] per open. Opening
// with [WriteOnly] trims the engine first, mirroring a shell
// redirection onto a device node. Seek and ioctl always fail with
// [ErrUnsupported].
//
// # Concurrency
//
// One mutex guards all engine state for the full duration of every
// Read, Write and Trim. There is no reader/writer split: a write may
// grow the set slice, so every access needs exclusivity.
package scull
