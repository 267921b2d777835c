// Package config loads the throughput driver configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rishav/disruptor/internal/disruptor"
)

// Driver configures the throughput driver binary. Flags override whatever
// the YAML file sets.
type Driver struct {
	// Capacity is the ring buffer slot count, a power of two.
	Capacity int64 `yaml:"capacity"`

	// WaitStrategy is one of busy-spin, yielding, sleeping, blocking.
	WaitStrategy string `yaml:"wait_strategy"`

	// Producers is the number of concurrent producer goroutines.
	Producers int `yaml:"producers"`

	// Stages is the number of chained consumer stages.
	Stages int `yaml:"stages"`

	// Events is the total number of events to publish.
	Events int64 `yaml:"events"`
}

// Default returns reasonable driver defaults.
func Default() Driver {
	return Driver{
		Capacity:     8192,
		WaitStrategy: "yielding",
		Producers:    1,
		Stages:       1,
		Events:       1_000_000,
	}
}

// Load reads a YAML driver config from path, applied on top of defaults.
func Load(path string) (Driver, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Driver{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Driver{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Driver{}, err
	}
	return cfg, nil
}

// Validate checks field ranges. Ring capacity itself is re-validated by
// the disruptor at construction.
func (c Driver) Validate() error {
	if c.Producers < 1 {
		return fmt.Errorf("config: producers must be >= 1, got %d", c.Producers)
	}
	if c.Stages < 1 {
		return fmt.Errorf("config: stages must be >= 1, got %d", c.Stages)
	}
	if c.Events < 1 {
		return fmt.Errorf("config: events must be >= 1, got %d", c.Events)
	}
	if _, err := c.WaitKind(); err != nil {
		return err
	}
	return nil
}

// WaitKind maps the configured strategy name to its kind.
func (c Driver) WaitKind() (disruptor.WaitStrategyKind, error) {
	switch c.WaitStrategy {
	case "busy-spin":
		return disruptor.BusySpin, nil
	case "yielding":
		return disruptor.Yielding, nil
	case "sleeping":
		return disruptor.Sleeping, nil
	case "blocking":
		return disruptor.Blocking, nil
	default:
		return 0, fmt.Errorf("config: unknown wait strategy %q", c.WaitStrategy)
	}
}

// ProducerMode returns MultiProducer when more than one producer is
// configured.
func (c Driver) ProducerMode() disruptor.ProducerMode {
	if c.Producers > 1 {
		return disruptor.MultiProducer
	}
	return disruptor.SingleProducer
}
