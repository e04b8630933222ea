package config

import (
	"fmt"

	"github.com/kilianp07/ridefair/core/factory"
)

// SeedConfig configures the optional historical seed sink.
type SeedConfig struct {
	// Sink selects the backend ("nop", "mysql", "postgis", "sqlite") and its settings.
	Sink factory.ModuleConfig `json:"sink"`
	// Limit caps the number of generated records written to the sink.
	Limit int `json:"limit"`
}

// SetDefaults applies sane defaults.
func (c *SeedConfig) SetDefaults() {
	if c.Sink.Type == "" {
		c.Sink.Type = "nop"
	}
	if c.Limit == 0 {
		c.Limit = 100
	}
}

// Validate checks the configuration ranges.
func (c SeedConfig) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("seed limit must be >=0")
	}
	return nil
}
