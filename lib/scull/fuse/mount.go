// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/bureau-foundation/scull/lib/scull"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// Created if it does not exist.
	Mountpoint string

	// Device is the device exposed as the mount's only file.
	Device *scull.Device

	// AllowOther permits other users (including root) to open the
	// device file. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, an error-level
	// stderr logger is used.
	Logger *slog.Logger
}

// Mount mounts the device filesystem at the configured mountpoint.
// The caller must call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Device == nil {
		return nil, fmt.Errorf("device is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &rootNode{options: &options}

	// Size changes through other sessions and the control socket, so
	// attributes are never cached.
	entryTimeout := 1 * time.Second
	attrTimeout := time.Duration(0)
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     options.Device.Name(),
			Name:       "scull",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("device FUSE filesystem mounted",
		"mountpoint", options.Mountpoint,
		"device", options.Device.Name(),
	)
	return server, nil
}

// rootNode is the mount root. Its only child is the device file.
type rootNode struct {
	gofuse.Inode
	options *Options
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	node := &deviceNode{
		device: r.options.Device,
		logger: r.options.Logger.With("device", r.options.Device.Name()),
	}
	child := r.NewPersistentInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG})
	r.AddChild(r.options.Device.Name(), child, true)
}
