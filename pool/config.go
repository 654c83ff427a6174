package pool

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Config is the file-loadable form of the pool's tuning parameters.
// Durations are strings in time.ParseDuration syntax ("500us", "2ms").
type Config struct {
	// Workers is the worker count. Zero selects the available
	// parallelism; negative values are rejected by [NewFromConfig].
	Workers int `yaml:"workers"`

	SpinCycles    int    `yaml:"spin_cycles"`
	MaxParkDelay  string `yaml:"max_park_delay"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// ParseConfig decodes a YAML config, rejecting unknown fields.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("pool: parse config: %w", err)
	}
	return cfg, nil
}

// NewFromConfig creates a pool from cfg. Explicit opts are applied after
// the config and take precedence.
func NewFromConfig(cfg Config, opts ...Option) (*Pool, error) {
	fromCfg, err := cfg.options()
	if err != nil {
		return nil, err
	}
	all := append(fromCfg, opts...)
	if cfg.Workers == 0 {
		return NewAuto(all...)
	}
	return New(cfg.Workers, all...)
}

func (c Config) options() ([]Option, error) {
	var opts []Option
	if c.SpinCycles > 0 {
		opts = append(opts, WithSpinCycles(c.SpinCycles))
	}
	if c.QueueCapacity > 0 {
		opts = append(opts, WithQueueCapacity(c.QueueCapacity))
	}
	d, err := parseDurationField("max_park_delay", c.MaxParkDelay)
	if err != nil {
		return nil, err
	}
	if d > 0 {
		opts = append(opts, WithMaxParkDelay(d))
	}
	return opts, nil
}

func parseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("pool: %s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("pool: %s: duration must be >= 0", path)
	}
	return d, nil
}
