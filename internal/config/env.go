package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the settings that may be overridden from the environment.
type envOverrides struct {
	GameRoot   string   `env:"SPRITEGG_GAME_ROOT"`
	Targets    []string `env:"SPRITEGG_TARGETS"     envSeparator:","`
	StitchMode string   `env:"SPRITEGG_STITCH_MODE"`
	Backend    string   `env:"SPRITEGG_BACKEND"`
	Timeout    string   `env:"SPRITEGG_TIMEOUT"`
	LogLevel   string   `env:"SPRITEGG_LOG_LEVEL"`
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.GameRoot != "" {
		c.GameRoot = o.GameRoot
	}
	if len(o.Targets) > 0 {
		c.Targets = o.Targets
	}
	if o.StitchMode != "" {
		c.Stitch.Mode = o.StitchMode
	}
	if o.Backend != "" {
		c.Stitch.Backend = o.Backend
	}
	if o.Timeout != "" {
		c.Stitch.Timeout = o.Timeout
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	return nil
}
