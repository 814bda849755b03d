// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/scull/lib/scull"
	"github.com/bureau-foundation/scull/lib/service"
)

// Client is a typed client for a sculld socket.
type Client struct {
	service *service.Client
}

// NewClient returns a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{service: service.NewClient(socketPath)}
}

// SocketPath returns the socket the client talks to.
func (c *Client) SocketPath() string {
	return c.service.SocketPath()
}

func (c *Client) call(ctx context.Context, action string, fields map[string]any, result any) error {
	return remoteError(c.service.Call(ctx, action, fields, result))
}

// Status returns the device's counters and content fingerprint.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.call(ctx, ActionStatus, nil, &status)
	return status, err
}

// Read reads up to length bytes at offset. With single set, the
// server performs one device read.
func (c *Client) Read(ctx context.Context, offset int64, length int, single bool) ([]byte, error) {
	var response ReadResponse
	err := c.call(ctx, ActionRead, map[string]any{
		"offset": offset,
		"length": length,
		"single": single,
	}, &response)
	return response.Data, err
}

// ReadAll reads from offset in MaxTransfer chunks until the end of
// data or a hole.
func (c *Client) ReadAll(ctx context.Context, offset int64) ([]byte, error) {
	var all []byte
	for {
		chunk, err := c.Read(ctx, offset+int64(len(all)), MaxTransfer, false)
		if err != nil {
			return all, err
		}
		all = append(all, chunk...)
		if len(chunk) < MaxTransfer {
			return all, nil
		}
	}
}

// Write stores data at offset through a handle opened with mode.
// Data longer than MaxTransfer is sent in chunks; only the first chunk
// uses mode, so a write-only write trims once.
func (c *Client) Write(ctx context.Context, offset int64, data []byte, mode scull.AccessMode) (int, error) {
	written := 0
	for {
		chunk := data[written:]
		if len(chunk) > MaxTransfer {
			chunk = chunk[:MaxTransfer]
		}
		chunkMode := mode
		if written > 0 {
			chunkMode = scull.ReadWrite
		}

		var response WriteResponse
		err := c.call(ctx, ActionWrite, map[string]any{
			"offset": offset + int64(written),
			"data":   chunk,
			"mode":   chunkMode.String(),
		}, &response)
		written += response.Written
		if err != nil {
			return written, err
		}
		if written >= len(data) {
			return written, nil
		}
		if response.Written == 0 {
			return written, fmt.Errorf("write at %d stored nothing", offset+int64(written))
		}
	}
}

// Truncate trims the device with a write-only open.
func (c *Client) Truncate(ctx context.Context) error {
	return c.call(ctx, ActionTruncate, nil, nil)
}

// Params returns the pending geometry, applied at the next trim.
func (c *Client) Params(ctx context.Context) (scull.Geometry, error) {
	var geometry scull.Geometry
	err := c.call(ctx, ActionParams, nil, &geometry)
	return geometry, err
}

// SetParams changes the pending geometry. A nil pointer keeps that
// knob. It returns the stored geometry.
func (c *Client) SetParams(ctx context.Context, quantum, qset *int) (scull.Geometry, error) {
	fields := map[string]any{}
	if quantum != nil {
		fields["quantum"] = *quantum
	}
	if qset != nil {
		fields["qset"] = *qset
	}
	var geometry scull.Geometry
	err := c.call(ctx, ActionSetParams, fields, &geometry)
	return geometry, err
}

// Seek always fails with scull.ErrUnsupported.
func (c *Client) Seek(ctx context.Context) error {
	return c.call(ctx, ActionSeek, nil, nil)
}

// Ioctl always fails with scull.ErrUnsupported.
func (c *Client) Ioctl(ctx context.Context) error {
	return c.call(ctx, ActionIoctl, nil, nil)
}
