package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchConfig describes what the watch command keeps under evaluation.
type WatchConfig struct {
	// Name labels the pipeline in logs and names its state directory.
	Name string `yaml:"name"`

	// Paths are files whose content the pipeline depends on.
	Paths []string `yaml:"paths"`

	// Interval optionally forces a periodic re-evaluation, e.g. "30s".
	// Empty means no timer input.
	Interval string `yaml:"interval"`

	// HistoryDB is an explicit path for the cycle history database.
	HistoryDB string `yaml:"history_db"`

	// StateRoot, when HistoryDB is unset, is the root under which a
	// per-pipeline state directory (holding the history database) is
	// created. Leaving both empty disables history recording.
	StateRoot string `yaml:"state_root"`
}

// LoadWatchConfig reads and validates a YAML watch config. Unknown keys
// are rejected to catch typos early.
func LoadWatchConfig(path string) (*WatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg WatchConfig
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the config and fills defaults.
func (c *WatchConfig) Validate() error {
	if c.Name == "" {
		c.Name = "pipeline"
	}
	if len(c.Paths) == 0 && c.Interval == "" {
		return fmt.Errorf("nothing to watch: need at least one path or an interval")
	}
	for _, p := range c.Paths {
		if p == "" {
			return fmt.Errorf("empty path entry")
		}
	}
	if _, _, err := c.IntervalDuration(); err != nil {
		return err
	}
	return nil
}

// IntervalDuration parses the optional interval. The bool reports whether
// an interval is configured.
func (c *WatchConfig) IntervalDuration() (time.Duration, bool, error) {
	if c.Interval == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, false, fmt.Errorf("invalid interval %q: %w", c.Interval, err)
	}
	if d <= 0 {
		return 0, false, fmt.Errorf("invalid interval %q: must be positive", c.Interval)
	}
	return d, true, nil
}
