// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"log/slog"
	"syscall"

	"github.com/bureau-foundation/scull/lib/scull"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// deviceNode is the device file. It holds no state of its own: every
// open gets a fresh handle on the device.
type deviceNode struct {
	gofuse.Inode
	device *scull.Device
	logger *slog.Logger
}

var _ gofuse.InodeEmbedder = (*deviceNode)(nil)
var _ gofuse.NodeGetattrer = (*deviceNode)(nil)
var _ gofuse.NodeSetattrer = (*deviceNode)(nil)
var _ gofuse.NodeOpener = (*deviceNode)(nil)

func (d *deviceNode) Getattr(_ context.Context, _ gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	d.fillAttr(out)
	return 0
}

// Setattr accepts truncation to zero, which trims the device the same
// way a write-only open does. Other lengths are rejected. Mode, owner
// and time changes are ignored.
func (d *deviceNode) Setattr(_ context.Context, _ gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if size != 0 {
			return syscall.ENOTSUP
		}
		handle, err := d.device.Open(scull.WriteOnly)
		if err != nil {
			d.logger.Error("truncate failed", "error", err)
			return toErrno(err)
		}
		handle.Close()
	}
	d.fillAttr(out)
	return 0
}

func (d *deviceNode) Open(_ context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	mode := scull.AccessModeFromFlags(flags)
	handle, err := d.device.Open(mode)
	if err != nil {
		d.logger.Error("open failed", "mode", mode.String(), "error", err)
		return nil, 0, toErrno(err)
	}
	return &fileHandle{handle: handle, logger: d.logger}, fuse.FOPEN_DIRECT_IO | fuse.FOPEN_NONSEEKABLE, 0
}

func (d *deviceNode) fillAttr(out *fuse.AttrOut) {
	stats := d.device.Engine().Stats()
	out.Mode = syscall.S_IFREG | 0o666
	out.Nlink = 1
	out.Size = uint64(stats.Size)
	out.Blocks = uint64(stats.AllocatedBytes+511) / 512
	out.Blksize = uint32(stats.Geometry.Quantum)
}

// fileHandle is one open session on the device file.
type fileHandle struct {
	handle *scull.Handle
	logger *slog.Logger
}

var _ gofuse.FileReader = (*fileHandle)(nil)
var _ gofuse.FileWriter = (*fileHandle)(nil)
var _ gofuse.FileLseeker = (*fileHandle)(nil)
var _ gofuse.FileReleaser = (*fileHandle)(nil)

// Read performs one engine read. A short or empty result is passed
// through; the caller decides whether to continue.
func (f *fileHandle) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.handle.Read(dest, off)
	if err != nil {
		f.logger.Debug("read failed", "offset", off, "error", err)
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// Write performs one engine write. The kernel reports a short count
// to the caller, who retries at the advanced offset.
func (f *fileHandle) Write(_ context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := f.handle.Write(data, off)
	if err != nil {
		f.logger.Debug("write failed", "offset", off, "length", len(data), "error", err)
		return 0, toErrno(err)
	}
	return uint32(n), 0
}

func (f *fileHandle) Lseek(_ context.Context, off uint64, whence uint32) (uint64, syscall.Errno) {
	_, err := f.handle.Seek(int64(off), int(whence))
	return 0, toErrno(err)
}

func (f *fileHandle) Release(_ context.Context) syscall.Errno {
	return toErrno(f.handle.Close())
}
