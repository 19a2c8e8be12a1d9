// Package config handles TOML configuration for shotty.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSnapshotDescription is set on snapshots when none is configured.
const DefaultSnapshotDescription = "Created by shotty"

// Config is the root configuration structure.
type Config struct {
	AWS      AWSConfig      `toml:"aws"`
	Wait     WaitConfig     `toml:"wait"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Log      LogConfig      `toml:"log"`
	Journal  JournalConfig  `toml:"journal"`
	Policy   PolicyConfig   `toml:"policy"`
	Metrics  MetricsConfig  `toml:"metrics"`
	OTEL     OTELConfig     `toml:"otel"`
}

// AWSConfig holds session settings.
type AWSConfig struct {
	Profile string `toml:"profile"`
	Region  string `toml:"region"`
}

// WaitConfig bounds the blocking waits for instance state transitions.
type WaitConfig struct {
	TimeoutStr  string `toml:"timeout"`
	MinDelayStr string `toml:"min_delay"`
	MaxDelayStr string `toml:"max_delay"`
	Timeout     time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// SnapshotConfig holds snapshot creation settings.
type SnapshotConfig struct {
	Description string `toml:"description"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// JournalConfig holds action journal settings.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// PolicyConfig points at an optional Rego protection policy.
type PolicyConfig struct {
	File string `toml:"file"`
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// OTELConfig holds OpenTelemetry settings.
type OTELConfig struct {
	Endpoint    string            `toml:"endpoint"`
	Insecure    bool              `toml:"insecure"`
	ServiceName string            `toml:"service_name"`
	Traces      TracesConfig      `toml:"traces"`
	Metrics     OTELMetricsConfig `toml:"metrics"`
}

// TracesConfig holds tracing settings.
type TracesConfig struct {
	Enabled    bool    `toml:"enabled"`
	SampleRate float64 `toml:"sample_rate"`
}

// OTELMetricsConfig holds OTLP metrics settings.
type OTELMetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultPath returns ~/.config/shotty/config.toml, or "" if the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shotty", "config.toml")
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	// defaults always parse
	_ = parseDurations(cfg)
	return cfg
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional loads path when it exists and falls back to Default otherwise.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.AWS.Profile == "" {
		cfg.AWS.Profile = "default"
	}
	if cfg.Wait.TimeoutStr == "" {
		cfg.Wait.TimeoutStr = "10m"
	}
	if cfg.Wait.MinDelayStr == "" {
		cfg.Wait.MinDelayStr = "15s"
	}
	if cfg.Wait.MaxDelayStr == "" {
		cfg.Wait.MaxDelayStr = "2m"
	}
	if cfg.Snapshot.Description == "" {
		cfg.Snapshot.Description = DefaultSnapshotDescription
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Journal.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Journal.Dir = filepath.Join(home, ".local", "state", "shotty")
		}
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "shotty"
	}
}

func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"wait.timeout", cfg.Wait.TimeoutStr, &cfg.Wait.Timeout},
		{"wait.min_delay", cfg.Wait.MinDelayStr, &cfg.Wait.MinDelay},
		{"wait.max_delay", cfg.Wait.MaxDelayStr, &cfg.Wait.MaxDelay},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks the configuration is valid.
func (c *Config) Validate() error {
	if c.Wait.Timeout <= 0 {
		return fmt.Errorf("wait: timeout must be positive (got %v)", c.Wait.Timeout)
	}
	if c.Wait.MinDelay <= 0 {
		return fmt.Errorf("wait: min_delay must be positive (got %v)", c.Wait.MinDelay)
	}
	if c.Wait.MinDelay > c.Wait.MaxDelay {
		return fmt.Errorf("wait: min_delay %v exceeds max_delay %v", c.Wait.MinDelay, c.Wait.MaxDelay)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", c.Log.Format)
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		return fmt.Errorf("journal: dir required when enabled")
	}
	if c.OTEL.Traces.SampleRate < 0.0 || c.OTEL.Traces.SampleRate > 1.0 {
		return fmt.Errorf("otel: traces.sample_rate must be between 0.0 and 1.0 (got %v)", c.OTEL.Traces.SampleRate)
	}
	return nil
}
