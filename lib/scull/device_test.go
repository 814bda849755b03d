// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scull

import (
	"errors"
	"testing"
)

func TestNewDeviceDefaults(t *testing.T) {
	device, err := NewDevice(DeviceOptions{})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	if device.Name() != DefaultDeviceName {
		t.Errorf("Name = %q, want %q", device.Name(), DefaultDeviceName)
	}
	if got := device.Engine().Geometry(); got != DefaultGeometry() {
		t.Errorf("Geometry = %v, want %v", got, DefaultGeometry())
	}
}

func TestNewDeviceInvalidParameters(t *testing.T) {
	_, err := NewDevice(DeviceOptions{Parameters: NewParameters(Geometry{Quantum: 0, QSet: 1})})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("NewDevice error = %v, want ErrInvalidGeometry", err)
	}
}

func TestDeviceOpenSharesOneEngine(t *testing.T) {
	device, err := NewDevice(DeviceOptions{Parameters: NewParameters(Geometry{Quantum: 16, QSet: 4})})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	first, err := device.Open(ReadWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	second, err := device.Open(ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := WriteFull(first, sequence(0, 50), 0); err != nil {
		t.Fatalf("WriteFull: %v", err)
	}
	got := make([]byte, 50)
	if n, err := ReadFull(second, got, 0); err != nil || n != 50 {
		t.Fatalf("ReadFull = (%d, %v), want (50, nil)", n, err)
	}

	stats := device.Stats()
	if stats.OpenHandles != 2 || stats.TotalOpens != 2 {
		t.Errorf("OpenHandles=%d TotalOpens=%d, want 2 and 2", stats.OpenHandles, stats.TotalOpens)
	}
	if stats.Size != 50 {
		t.Errorf("Size = %d, want 50", stats.Size)
	}

	snapshot, fingerprint := device.Snapshot()
	if snapshot != stats {
		t.Errorf("Snapshot stats = %+v, want %+v", snapshot, stats)
	}
	if fingerprint != device.Engine().Fingerprint() {
		t.Errorf("Snapshot fingerprint = %s, want %s", fingerprint, device.Engine().Fingerprint())
	}

	// Write-only open resets content seen by every handle.
	third, err := device.Open(WriteOnly)
	if err != nil {
		t.Fatalf("Open(WriteOnly): %v", err)
	}
	if n, err := second.Read(make([]byte, 10), 0); err != nil || n != 0 {
		t.Errorf("Read after write-only open = (%d, %v), want (0, nil)", n, err)
	}

	first.Close()
	second.Close()
	third.Close()
	third.Close()

	stats = device.Stats()
	if stats.OpenHandles != 0 {
		t.Errorf("OpenHandles after close = %d, want 0", stats.OpenHandles)
	}
	if stats.TotalOpens != 3 {
		t.Errorf("TotalOpens = %d, want 3", stats.TotalOpens)
	}
}

func TestDeviceParametersApplyAtNextTrim(t *testing.T) {
	parameters := NewParameters(Geometry{Quantum: 16, QSet: 4})
	device, err := NewDevice(DeviceOptions{Parameters: parameters})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}

	parameters.SetQuantum(32)
	stats := device.Stats()
	if stats.Geometry.Quantum != 16 || stats.Parameters.Quantum != 32 {
		t.Fatalf("active quantum %d, pending %d; want 16 and 32", stats.Geometry.Quantum, stats.Parameters.Quantum)
	}

	handle, err := device.Open(WriteOnly)
	if err != nil {
		t.Fatalf("Open(WriteOnly): %v", err)
	}
	defer handle.Close()

	if got := device.Engine().Geometry(); got != (Geometry{Quantum: 32, QSet: 4}) {
		t.Errorf("Geometry after write-only open = %v, want quantum=32 qset=4", got)
	}
}

func TestDeviceFailedOpenIsNotCounted(t *testing.T) {
	parameters := NewParameters(Geometry{Quantum: 16, QSet: 4})
	device, err := NewDevice(DeviceOptions{Parameters: parameters})
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	parameters.SetQuantum(0)

	if _, err := device.Open(WriteOnly); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("Open error = %v, want ErrInvalidGeometry", err)
	}
	if stats := device.Stats(); stats.OpenHandles != 0 || stats.TotalOpens != 0 {
		t.Errorf("stats after failed open = %+v", stats)
	}
}
