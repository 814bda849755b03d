// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/scull/lib/config"
	"github.com/bureau-foundation/scull/lib/control"
	"github.com/bureau-foundation/scull/lib/process"
	"github.com/bureau-foundation/scull/lib/scull"
	scullfuse "github.com/bureau-foundation/scull/lib/scull/fuse"
	"github.com/bureau-foundation/scull/lib/service"
	"github.com/bureau-foundation/scull/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// overrides are command-line values that replace config file values
// when set.
type overrides struct {
	mountpoint string
	socketPath string
	logLevel   string
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("sculld", pflag.ContinueOnError)
	var (
		showVersion bool
		configPath  string
		override    overrides
	)
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.StringVar(&configPath, "config", "", "config file (default: $SCULL_CONFIG, else built-in defaults)")
	flagSet.StringVar(&override.mountpoint, "mountpoint", "", "FUSE mount directory for the device file (overrides mount.mountpoint)")
	flagSet.StringVar(&override.socketPath, "socket", "", "control socket path (overrides socket.path)")
	flagSet.StringVar(&override.logLevel, "log-level", "", "debug, info, warn, or error (overrides log.level)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("sculld %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath, override)
	if err != nil {
		return err
	}

	logger, err := service.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	device, err := newDevice(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	socketMode, err := cfg.SocketMode()
	if err != nil {
		return err
	}
	server := service.NewSocketServer(service.SocketOptions{
		Path:     cfg.Socket.Path,
		Mode:     socketMode,
		Classify: control.Classify,
		Logger:   logger,
	})
	control.NewHandler(device, logger).Register(server)

	var unmount func()
	if cfg.Mount.Mountpoint != "" {
		fuseServer, err := scullfuse.Mount(scullfuse.Options{
			Mountpoint: cfg.Mount.Mountpoint,
			Device:     device,
			AllowOther: cfg.Mount.AllowOther,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("mounting device file: %w", err)
		}
		unmount = func() {
			if err := fuseServer.Unmount(); err != nil {
				logger.Error("failed to unmount device file", "error", err)
			} else {
				logger.Info("device file unmounted", "mountpoint", cfg.Mount.Mountpoint)
			}
		}
	}

	// The socket gets its own context so it keeps serving until the
	// mount is gone.
	socketContext, stopSocket := context.WithCancel(context.Background())
	defer stopSocket()
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(socketContext)
	}()

	geometry := device.Engine().Geometry()
	logger.Info("scull device running",
		"device", device.Name(),
		"quantum", geometry.Quantum,
		"qset", geometry.QSet,
		"memory_limit", device.Engine().Stats().MemoryLimit,
		"max_sets", cfg.Device.MaxSets,
		"mountpoint", cfg.Mount.Mountpoint,
		"socket", cfg.Socket.Path,
		"version", version.Info(),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-socketDone:
		if unmount != nil {
			unmount()
		}
		if err != nil {
			return fmt.Errorf("control socket: %w", err)
		}
		return nil
	}

	if unmount != nil {
		unmount()
	}
	stopSocket()
	if err := <-socketDone; err != nil {
		logger.Error("socket listener error", "error", err)
	}
	return nil
}

// loadConfig reads path, or SCULL_CONFIG when path is empty, or falls
// back to the defaults when neither is given. Command-line overrides
// are applied before validation.
func loadConfig(path string, override overrides) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(config.EnvironmentVariable)
	}

	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
		cfg.Expand()
	} else {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if override.mountpoint != "" {
		cfg.Mount.Mountpoint = override.mountpoint
	}
	if override.socketPath != "" {
		cfg.Socket.Path = override.socketPath
	}
	if override.logLevel != "" {
		cfg.Log.Level = override.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// newDevice registers the device described by cfg.
func newDevice(cfg *config.Config, logger *slog.Logger) (*scull.Device, error) {
	memoryLimit, err := cfg.MemoryLimitBytes()
	if err != nil {
		return nil, err
	}
	return scull.NewDevice(scull.DeviceOptions{
		Name: cfg.Device.Name,
		Parameters: scull.NewParameters(scull.Geometry{
			Quantum: cfg.Device.Quantum,
			QSet:    cfg.Device.QSet,
		}),
		MemoryLimit: memoryLimit,
		MaxSets:     cfg.Device.MaxSets,
		Logger:      logger,
	})
}
