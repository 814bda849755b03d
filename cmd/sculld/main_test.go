// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/scull/lib/config"
	"github.com/bureau-foundation/scull/lib/scull"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/42")

	cfg, err := loadConfig("", overrides{})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Socket.Path != "/run/user/42/scull.sock" {
		t.Errorf("socket path = %q", cfg.Socket.Path)
	}
	if cfg.Mount.Mountpoint != "" {
		t.Errorf("mountpoint = %q, want empty", cfg.Mount.Mountpoint)
	}
}

func TestLoadConfigFromEnvironmentWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sculld.yaml")
	content := "device:\n  quantum: 64\n  qset: 8\nsocket:\n  path: /tmp/from-file.sock\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(config.EnvironmentVariable, path)

	cfg, err := loadConfig("", overrides{socketPath: "/tmp/from-flag.sock", logLevel: "debug"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Device.Quantum != 64 || cfg.Device.QSet != 8 {
		t.Errorf("geometry = %d/%d, want 64/8", cfg.Device.Quantum, cfg.Device.QSet)
	}
	if cfg.Socket.Path != "/tmp/from-flag.sock" {
		t.Errorf("socket path = %q, flag should win", cfg.Socket.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	_, err := loadConfig("", overrides{logLevel: "loud"})
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("loadConfig error = %v, want log.level complaint", err)
	}
}

func TestNewDeviceFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Name = "scull7"
	cfg.Device.Quantum = 16
	cfg.Device.QSet = 4
	cfg.Device.MemoryLimit = "1KiB"

	device, err := newDevice(cfg, nil)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	stats := device.Stats()
	if stats.Name != "scull7" {
		t.Errorf("name = %q", stats.Name)
	}
	if stats.Geometry != (scull.Geometry{Quantum: 16, QSet: 4}) {
		t.Errorf("geometry = %v", stats.Geometry)
	}
	if stats.MemoryLimit != 1024 {
		t.Errorf("memory limit = %d, want 1024", stats.MemoryLimit)
	}
	if stats.MaxSets != 16384 {
		t.Errorf("max sets = %d, want the configured 16384", stats.MaxSets)
	}
}

func TestNewDeviceRejectsOverflowingGeometry(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Quantum = 1 << 40
	cfg.Device.QSet = 1 << 40

	if _, err := newDevice(cfg, nil); !errors.Is(err, scull.ErrInvalidGeometry) {
		t.Errorf("newDevice error = %v, want ErrInvalidGeometry", err)
	}
}
