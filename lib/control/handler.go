// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/scull/lib/codec"
	"github.com/bureau-foundation/scull/lib/scull"
	"github.com/bureau-foundation/scull/lib/service"
)

// Handler serves the socket actions for one device.
type Handler struct {
	device *scull.Device
	logger *slog.Logger
}

// NewHandler returns a handler for device. A nil logger discards
// everything below error level.
func NewHandler(device *scull.Device, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}
	return &Handler{device: device, logger: logger}
}

// Register adds every action to server.
func (h *Handler) Register(server *service.SocketServer) {
	server.Handle(ActionStatus, h.status)
	server.Handle(ActionRead, h.read)
	server.Handle(ActionWrite, h.write)
	server.Handle(ActionTruncate, h.truncate)
	server.Handle(ActionParams, h.params)
	server.Handle(ActionSetParams, h.setParams)
	server.Handle(ActionSeek, h.seek)
	server.Handle(ActionIoctl, h.ioctl)
}

func (h *Handler) status(_ context.Context, _ []byte) (any, error) {
	stats, fingerprint := h.device.Snapshot()
	return Status{
		DeviceStats: stats,
		Fingerprint: fingerprint.String(),
	}, nil
}

func (h *Handler) read(_ context.Context, raw []byte) (any, error) {
	var request ReadRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if request.Length < 0 || request.Length > MaxTransfer {
		return nil, fmt.Errorf("%w: length %d outside 0..%d", ErrInvalidArgument, request.Length, MaxTransfer)
	}

	handle, err := h.device.Open(scull.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	buffer := make([]byte, request.Length)
	var n int
	if request.Single {
		n, err = handle.Read(buffer, request.Offset)
	} else {
		n, err = scull.ReadFull(handle, buffer, request.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("read at %d: %w", request.Offset, err)
	}
	return ReadResponse{Data: buffer[:n]}, nil
}

func (h *Handler) write(_ context.Context, raw []byte) (any, error) {
	var request WriteRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(request.Data) > MaxTransfer {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidArgument, len(request.Data), MaxTransfer)
	}

	mode := scull.ReadWrite
	if request.Mode != "" {
		parsed, err := scull.ParseAccessMode(request.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		mode = parsed
	}

	handle, err := h.device.Open(mode)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	var n int
	if request.Single {
		n, err = handle.Write(request.Data, request.Offset)
	} else {
		n, err = scull.WriteFull(handle, request.Data, request.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("wrote %d of %d bytes at %d: %w", n, len(request.Data), request.Offset, err)
	}
	h.logger.Debug("socket write", "offset", request.Offset, "length", n, "mode", mode.String())
	return WriteResponse{Written: n}, nil
}

func (h *Handler) truncate(_ context.Context, _ []byte) (any, error) {
	handle, err := h.device.Open(scull.WriteOnly)
	if err != nil {
		return nil, err
	}
	h.logger.Info("device truncated", "device", h.device.Name(), "geometry", h.device.Engine().Geometry().String())
	return nil, handle.Close()
}

func (h *Handler) params(_ context.Context, _ []byte) (any, error) {
	return h.device.Parameters().Current(), nil
}

func (h *Handler) setParams(_ context.Context, raw []byte) (any, error) {
	var request SetParamsRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if request.Quantum == nil && request.QSet == nil {
		return nil, fmt.Errorf("%w: set-params needs quantum or qset", ErrInvalidArgument)
	}

	geometry, err := h.device.Parameters().Apply(func(g *scull.Geometry) {
		if request.Quantum != nil {
			g.Quantum = *request.Quantum
		}
		if request.QSet != nil {
			g.QSet = *request.QSet
		}
	})
	if err != nil {
		return nil, err
	}
	h.logger.Info("parameters changed", "device", h.device.Name(), "pending", geometry.String())
	return geometry, nil
}

func (h *Handler) seek(_ context.Context, _ []byte) (any, error) {
	return nil, h.unsupported(func(handle *scull.Handle) error {
		_, err := handle.Seek(0, 0)
		return err
	})
}

func (h *Handler) ioctl(_ context.Context, _ []byte) (any, error) {
	return nil, h.unsupported(func(handle *scull.Handle) error {
		_, err := handle.Ioctl(0, 0)
		return err
	})
}

// unsupported runs operation on a short-lived read-only handle and
// returns its error.
func (h *Handler) unsupported(operation func(*scull.Handle) error) error {
	handle, err := h.device.Open(scull.ReadOnly)
	if err != nil {
		return err
	}
	defer handle.Close()
	return operation(handle)
}
