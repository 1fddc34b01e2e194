// Package config decodes the daemon's YAML configuration file into a
// validated Config, following the pack's config-loader idiom (defaults
// applied post-decode, then validated before use). This is boot-strapping
// plumbing for cmd/playtimed, not core business logic.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Config is the top-level decoded configuration.
type Config struct {
	Daemon DaemonConfig `yaml:"daemon"`
}

// DaemonConfig mirrors the YAML schema in the external-interfaces section:
// poll cadence, day-rollover hour, storage location, initial mode, grace
// period, warning thresholds and default CPU threshold.
type DaemonConfig struct {
	PollIntervalSec    int             `yaml:"poll_interval"`
	ResetHour          int             `yaml:"reset_hour"`
	DBPath             string          `yaml:"db_path"`
	Mode               domain.DaemonMode `yaml:"mode"`
	GracePeriodSeconds int             `yaml:"grace_period_seconds"`
	WarningThresholds  []int           `yaml:"warning_thresholds"`
	CPUThreshold       float64         `yaml:"cpu_threshold"`
}

// Default returns the documented defaults for every key.
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			PollIntervalSec:    30,
			ResetHour:          4,
			DBPath:             "/var/lib/playtimed/store.db",
			Mode:               domain.ModeNormal,
			GracePeriodSeconds: 60,
			WarningThresholds:  []int{30, 15, 5},
			CPUThreshold:       5.0,
		},
	}
}

// Load reads and decodes the YAML file at path, filling any unset key with
// its documented default and validating the result. A missing file is not
// an error: the daemon starts from documented defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, domain.Wrap(domain.ErrConfigInvalid, "config.Load", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.Wrap(domain.ErrConfigInvalid, "config.Load", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, domain.Wrap(domain.ErrConfigInvalid, "config.Load", err)
	}
	return cfg, nil
}

// applyDefaults fills any zero-value field left unset by a partial YAML
// document, since yaml.Unmarshal only overwrites keys actually present.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Daemon.PollIntervalSec == 0 {
		cfg.Daemon.PollIntervalSec = def.Daemon.PollIntervalSec
	}
	if cfg.Daemon.DBPath == "" {
		cfg.Daemon.DBPath = def.Daemon.DBPath
	}
	if cfg.Daemon.Mode == "" {
		cfg.Daemon.Mode = def.Daemon.Mode
	}
	if cfg.Daemon.GracePeriodSeconds == 0 {
		cfg.Daemon.GracePeriodSeconds = def.Daemon.GracePeriodSeconds
	}
	if len(cfg.Daemon.WarningThresholds) == 0 {
		cfg.Daemon.WarningThresholds = def.Daemon.WarningThresholds
	}
	if cfg.Daemon.CPUThreshold == 0 {
		cfg.Daemon.CPUThreshold = def.Daemon.CPUThreshold
	}
}

// Validate checks the decoded shape before it is handed to the core.
func (c *Config) Validate() error {
	if c.Daemon.PollIntervalSec <= 0 {
		return fmt.Errorf("daemon.poll_interval must be > 0")
	}
	if c.Daemon.ResetHour < 0 || c.Daemon.ResetHour > 23 {
		return fmt.Errorf("daemon.reset_hour must be 0-23")
	}
	if c.Daemon.DBPath == "" {
		return fmt.Errorf("daemon.db_path must not be empty")
	}
	switch c.Daemon.Mode {
	case domain.ModeNormal, domain.ModePassthrough, domain.ModeStrict:
	default:
		return fmt.Errorf("daemon.mode must be normal, passthrough, or strict (got %q)", c.Daemon.Mode)
	}
	if c.Daemon.GracePeriodSeconds < 0 {
		return fmt.Errorf("daemon.grace_period_seconds must be >= 0")
	}
	if c.Daemon.CPUThreshold < 0 {
		return fmt.Errorf("daemon.cpu_threshold must be >= 0")
	}
	return nil
}
