// Package config loads the canvasd server configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

// UnmarshalYAML accepts Go duration strings ("1s", "500ms").
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full server configuration. Absent fields take the values
// from Default.
type Config struct {
	Listen       string `yaml:"listen"`
	DatabasePath string `yaml:"database_path"`
	BackupPath   string `yaml:"backup_path"`
	MDNS         bool   `yaml:"mdns"`

	SnapTolerance float64 `yaml:"snap_tolerance"`

	AutosaveDebounce Duration `yaml:"autosave_debounce"`
	AutosaveInterval Duration `yaml:"autosave_interval"`
	HistoryLimit     int      `yaml:"history_limit"`
	BackupMaxAge     Duration `yaml:"backup_max_age"`

	ChangeLogLimit int `yaml:"change_log_limit"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:           ":8890",
		DatabasePath:     "doccanvas.db",
		BackupPath:       "doccanvas.backup.json",
		MDNS:             true,
		SnapTolerance:    5,
		AutosaveDebounce: Duration(time.Second),
		AutosaveInterval: Duration(30 * time.Second),
		HistoryLimit:     10,
		BackupMaxAge:     Duration(24 * time.Hour),
		ChangeLogLimit:   100,
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.SnapTolerance < 0 {
		return fmt.Errorf("snap_tolerance must be >= 0")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be >= 1")
	}
	if c.ChangeLogLimit < 1 {
		return fmt.Errorf("change_log_limit must be >= 1")
	}
	return nil
}
