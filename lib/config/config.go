// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "CYPHAL_BRIDGE_CONFIG"

// Config is the master configuration for the bridge.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Node configures the local CAN node.
	Node NodeConfig `yaml:"node"`

	// Subscribers lists the logical units to run.
	Subscribers []SubscriberConfig `yaml:"subscribers"`

	// Params seeds the register store, e.g. uavcan.sub.esc.0.id: 22.
	Params map[string]int64 `yaml:"params"`

	// Recorder configures the flight recorder.
	Recorder RecorderConfig `yaml:"recorder"`

	// Tap configures the live stream socket.
	Tap TapConfig `yaml:"tap"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// NodeConfig configures the local CAN node.
type NodeConfig struct {
	// ID is the local node ID (0..127). The bridge only listens; the
	// ID is used by tools that transmit.
	ID int `yaml:"id"`

	// Interface is the SocketCAN interface name.
	// Default: can0
	Interface string `yaml:"interface"`

	// MTU is 8 for classic CAN or 64 for CAN FD.
	// Default: 8
	MTU int `yaml:"mtu"`
}

// SubscriberConfig names one logical unit.
type SubscriberConfig struct {
	// Name selects the unit type. Only "esc" is known.
	Name string `yaml:"name"`

	// Instance distinguishes units of the same type.
	Instance uint8 `yaml:"instance"`
}

// RecorderConfig configures the flight recorder.
type RecorderConfig struct {
	// Enabled turns recording on.
	Enabled bool `yaml:"enabled"`

	// Path is the recording file. Expanded.
	// Default: ${CYPHAL_BRIDGE_STATE}/flight.rec
	Path string `yaml:"path"`

	// Compression is one of none, lz4, zstd.
	// Default: zstd
	Compression string `yaml:"compression"`

	// FlushInterval bounds how long a record waits in memory.
	// Default: 1s
	FlushInterval time.Duration `yaml:"flush_interval"`

	// BlockRecords flushes a block once it holds this many records.
	// Default: 256
	BlockRecords int `yaml:"block_records"`
}

// TapConfig configures the live stream socket.
type TapConfig struct {
	// Enabled turns the tap on.
	Enabled bool `yaml:"enabled"`

	// SocketPath is the Unix socket to listen on. Expanded.
	// Default: ${CYPHAL_BRIDGE_STATE}/tap.sock
	SocketPath string `yaml:"socket_path"`

	// QueueDepth is the per-client backlog before records are dropped.
	// Default: 64
	QueueDepth int `yaml:"queue_depth"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the HTTP listen address. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// Default returns the default configuration. The config file is still
// required; defaults only fill fields it omits.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Node: NodeConfig{
			ID:        0,
			Interface: "can0",
			MTU:       8,
		},
		Params: map[string]int64{},
		Recorder: RecorderConfig{
			Path:          "${CYPHAL_BRIDGE_STATE}/flight.rec",
			Compression:   "zstd",
			FlushInterval: time.Second,
			BlockRecords:  256,
		},
		Tap: TapConfig{
			SocketPath: "${CYPHAL_BRIDGE_STATE}/tap.sock",
			QueueDepth: 64,
		},
	}
}

// Load loads configuration from the CYPHAL_BRIDGE_CONFIG environment
// variable. There is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your bridge config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// defaultStateDir is used for ${CYPHAL_BRIDGE_STATE} when the
// environment does not set it.
func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "cyphal-bridge")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "state", "cyphal-bridge")
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":                os.Getenv("HOME"),
		"CYPHAL_BRIDGE_STATE": os.Getenv("CYPHAL_BRIDGE_STATE"),
	}
	if vars["CYPHAL_BRIDGE_STATE"] == "" {
		vars["CYPHAL_BRIDGE_STATE"] = defaultStateDir()
	}

	c.Recorder.Path = expandVars(c.Recorder.Path, vars)
	c.Tap.SocketPath = expandVars(c.Tap.SocketPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

const (
	maxNodeID  = 127
	maxSubject = 8191
	portUnset  = 65535
)

var (
	knownSubscribers = []string{"esc"}
	compressions     = []string{"none", "lz4", "zstd"}
)

// Validate checks the configuration for errors. Every problem is
// reported, joined.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if c.Node.ID < 0 || c.Node.ID > maxNodeID {
		errs = append(errs, fmt.Errorf("node.id must be in [0, %d], got %d", maxNodeID, c.Node.ID))
	}
	if c.Node.Interface == "" {
		errs = append(errs, fmt.Errorf("node.interface is required"))
	}
	if c.Node.MTU != 8 && c.Node.MTU != 64 {
		errs = append(errs, fmt.Errorf("node.mtu must be 8 or 64, got %d", c.Node.MTU))
	}

	seen := make(map[SubscriberConfig]bool)
	for i, subscriber := range c.Subscribers {
		if !contains(knownSubscribers, subscriber.Name) {
			errs = append(errs, fmt.Errorf("subscribers[%d].name must be one of: %v", i, knownSubscribers))
		}
		if seen[subscriber] {
			errs = append(errs, fmt.Errorf("subscribers[%d]: duplicate %s instance %d", i, subscriber.Name, subscriber.Instance))
		}
		seen[subscriber] = true
	}

	for name, value := range c.Params {
		if !strings.HasPrefix(name, "uavcan.sub.") || !strings.HasSuffix(name, ".id") {
			continue
		}
		if value != portUnset && (value < 0 || value > maxSubject) {
			errs = append(errs, fmt.Errorf("params.%s must be in [0, %d] or %d, got %d", name, maxSubject, portUnset, value))
		}
	}

	if c.Recorder.Enabled {
		if c.Recorder.Path == "" {
			errs = append(errs, fmt.Errorf("recorder.path is required when recording"))
		}
		if !contains(compressions, c.Recorder.Compression) {
			errs = append(errs, fmt.Errorf("recorder.compression must be one of: %v", compressions))
		}
		if c.Recorder.FlushInterval <= 0 {
			errs = append(errs, fmt.Errorf("recorder.flush_interval must be positive"))
		}
		if c.Recorder.BlockRecords <= 0 {
			errs = append(errs, fmt.Errorf("recorder.block_records must be positive"))
		}
	}

	if c.Tap.Enabled {
		if c.Tap.SocketPath == "" {
			errs = append(errs, fmt.Errorf("tap.socket_path is required when the tap is enabled"))
		}
		if c.Tap.QueueDepth <= 0 {
			errs = append(errs, fmt.Errorf("tap.queue_depth must be positive"))
		}
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the parent directories of the recorder file and
// tap socket.
func (c *Config) EnsurePaths() error {
	var paths []string
	if c.Recorder.Enabled {
		paths = append(paths, filepath.Dir(c.Recorder.Path))
	}
	if c.Tap.Enabled {
		paths = append(paths, filepath.Dir(c.Tap.SocketPath))
	}
	for _, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
