// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "SCULL_CONFIG"

// Config is the daemon configuration.
type Config struct {
	// Device configures the storage device and its initial geometry.
	Device DeviceConfig `yaml:"device" json:"device"`

	// Mount configures the optional FUSE device node.
	Mount MountConfig `yaml:"mount" json:"mount"`

	// Socket configures the control socket.
	Socket SocketConfig `yaml:"socket" json:"socket"`

	// Log configures the daemon logger.
	Log LogConfig `yaml:"log" json:"log"`
}

// DeviceConfig configures the device.
type DeviceConfig struct {
	// Name is the device node name. Default: scull0
	Name string `yaml:"name" json:"name"`

	// Quantum is the initial quantum size in bytes. Default: 4000
	Quantum int `yaml:"quantum" json:"quantum"`

	// QSet is the initial number of quantums per set. Default: 1000
	QSet int `yaml:"qset" json:"qset"`

	// MemoryLimit caps allocated storage, as a human size such as
	// "512MiB" or "2 GB". "0" means unlimited. Default: 1GiB
	MemoryLimit string `yaml:"memory_limit" json:"memory_limit"`

	// MaxSets caps the number of quantum sets, and with it the highest
	// writable offset, whatever the memory limit. Default: 16384
	MaxSets int `yaml:"max_sets" json:"max_sets"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// Mountpoint is the directory the device file appears in. Empty
	// disables the mount.
	Mountpoint string `yaml:"mountpoint" json:"mountpoint"`

	// AllowOther lets users other than the daemon's open the device.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool `yaml:"allow_other" json:"allow_other"`
}

// SocketConfig configures the control socket.
type SocketConfig struct {
	// Path is the Unix socket path.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/scull.sock
	Path string `yaml:"path" json:"path"`

	// Mode is the socket file's permission bits as an octal string.
	// Default: 0600
	Mode string `yaml:"mode" json:"mode"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level" json:"level"`

	// Format is json or text. Default: json
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given, and
// the base every file is merged onto.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:        "scull0",
			Quantum:     4000,
			QSet:        1000,
			MemoryLimit: "1GiB",
			MaxSets:     16384,
		},
		Socket: SocketConfig{
			Path: "${XDG_RUNTIME_DIR:-/tmp}/scull.sock",
			Mode: "0600",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the file named by SCULL_CONFIG. It fails if the variable
// is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your sculld config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults and
// expands variables in path-valued fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.Expand()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return yaml.Unmarshal(data, c)
	}
}

// Expand resolves ${VAR} and ${VAR:-default} in the socket path and
// mountpoint.
func (c *Config) Expand() {
	c.Socket.Path = expandVars(c.Socket.Path)
	c.Mount.Mountpoint = expandVars(c.Mount.Mountpoint)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// MemoryLimitBytes parses Device.MemoryLimit. Zero means unlimited.
func (c *Config) MemoryLimitBytes() (int64, error) {
	limit := strings.TrimSpace(c.Device.MemoryLimit)
	if limit == "" || limit == "0" {
		return 0, nil
	}
	bytes, err := humanize.ParseBytes(limit)
	if err != nil {
		return 0, fmt.Errorf("device.memory_limit: %w", err)
	}
	if bytes > 1<<62 {
		return 0, fmt.Errorf("device.memory_limit %q is too large", limit)
	}
	return int64(bytes), nil
}

// SocketMode parses Socket.Mode as octal permission bits.
func (c *Config) SocketMode() (os.FileMode, error) {
	if c.Socket.Mode == "" {
		return 0, nil
	}
	var mode uint32
	if _, err := fmt.Sscanf(c.Socket.Mode, "%o", &mode); err != nil || mode > 0o777 {
		return 0, fmt.Errorf("socket.mode %q is not an octal permission", c.Socket.Mode)
	}
	return os.FileMode(mode), nil
}

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Name == "" {
		errs = append(errs, errors.New("device.name is required"))
	} else if strings.ContainsRune(c.Device.Name, '/') {
		errs = append(errs, fmt.Errorf("device.name %q must not contain '/'", c.Device.Name))
	}
	if c.Device.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("device.quantum must be positive, got %d", c.Device.Quantum))
	}
	if c.Device.QSet <= 0 {
		errs = append(errs, fmt.Errorf("device.qset must be positive, got %d", c.Device.QSet))
	}
	if _, err := c.MemoryLimitBytes(); err != nil {
		errs = append(errs, err)
	}
	if c.Device.MaxSets <= 0 {
		errs = append(errs, fmt.Errorf("device.max_sets must be positive, got %d", c.Device.MaxSets))
	}

	if c.Socket.Path == "" {
		errs = append(errs, errors.New("socket.path is required"))
	}
	if _, err := c.SocketMode(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}

	return errors.Join(errs...)
}
