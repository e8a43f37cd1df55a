package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateReferences()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}

func (c *Config) validateEncoder() error {
	if c.Encoder.IntraPeriod < 0 {
		return errors.New("encoder.intra_period must not be negative")
	}
	if c.Encoder.History < 0 {
		return errors.New("encoder.history must not be negative")
	}
	return nil
}

func (c *Config) validateReferences() error {
	refs, err := c.ReferenceConfig()
	if err != nil {
		return err
	}
	if err := refs.Validate(); err != nil {
		return fmt.Errorf("references: %w", err)
	}
	return nil
}
