// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// DefaultDeviceName is the node name used when none is configured.
const DefaultDeviceName = "scull0"

// DeviceOptions configures a Device.
type DeviceOptions struct {
	// Name identifies the device node. Empty uses DefaultDeviceName.
	Name string

	// Parameters supplies the geometry at construction and at every
	// trim. Nil uses fresh parameters with DefaultGeometry.
	Parameters *Parameters

	// MemoryLimit is passed through to the engine.
	MemoryLimit int64

	// MaxSets is passed through to the engine.
	MaxSets int

	// Logger receives open and trim events at debug level. If nil,
	// an error-level stderr logger is used.
	Logger *slog.Logger
}

// Device is a registered device node: the one engine every open
// shares, plus the parameters that engine snapshots from.
type Device struct {
	name       string
	parameters *Parameters
	engine     *Engine
	logger     *slog.Logger

	openHandles atomic.Int64
	totalOpens  atomic.Uint64
}

// NewDevice builds the device's engine from the current parameters.
func NewDevice(options DeviceOptions) (*Device, error) {
	if options.Name == "" {
		options.Name = DefaultDeviceName
	}
	if options.Parameters == nil {
		options.Parameters = NewParameters(DefaultGeometry())
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	engine, err := NewEngine(EngineOptions{
		Geometry:    options.Parameters,
		MemoryLimit: options.MemoryLimit,
		MaxSets:     options.MaxSets,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine for %s: %w", options.Name, err)
	}

	return &Device{
		name:       options.Name,
		parameters: options.Parameters,
		engine:     engine,
		logger:     options.Logger.With("device", options.Name),
	}, nil
}

// Open hands out a new handle on the shared engine. WriteOnly trims
// first.
func (d *Device) Open(mode AccessMode) (*Handle, error) {
	handle, err := Open(d.engine, mode)
	if err != nil {
		d.logger.Warn("open failed", "mode", mode.String(), "error", err)
		return nil, err
	}

	d.openHandles.Add(1)
	d.totalOpens.Add(1)
	handle.release = func() { d.openHandles.Add(-1) }

	if mode == WriteOnly {
		d.logger.Debug("device trimmed on write-only open", "geometry", d.engine.Geometry().String())
	}
	d.logger.Debug("device opened", "mode", mode.String())
	return handle, nil
}

// Name returns the device node name.
func (d *Device) Name() string { return d.name }

// Parameters returns the knobs the engine snapshots at trim.
func (d *Device) Parameters() *Parameters { return d.parameters }

// Engine returns the shared engine.
func (d *Device) Engine() *Engine { return d.engine }

// DeviceStats extends EngineStats with session counters.
type DeviceStats struct {
	EngineStats
	Name        string   `json:"name"`
	Parameters  Geometry `json:"parameters"`
	OpenHandles int64    `json:"open_handles"`
	TotalOpens  uint64   `json:"total_opens"`
}

// Stats returns a snapshot of the engine and session counters.
func (d *Device) Stats() DeviceStats {
	return d.stats(d.engine.Stats())
}

// Snapshot is Stats plus the fingerprint of the same engine state.
func (d *Device) Snapshot() (DeviceStats, Fingerprint) {
	engineStats, fingerprint := d.engine.Snapshot()
	return d.stats(engineStats), fingerprint
}

func (d *Device) stats(engineStats EngineStats) DeviceStats {
	return DeviceStats{
		EngineStats: engineStats,
		Name:        d.name,
		Parameters:  d.parameters.Current(),
		OpenHandles: d.openHandles.Load(),
		TotalOpens:  d.totalOpens.Load(),
	}
}
