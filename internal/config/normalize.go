package config

import "strings"

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Encoder.Preset = strings.ToLower(strings.TrimSpace(c.Encoder.Preset))
	if len(c.References.ShortTerm) > 0 {
		// Explicit templates replace the default preset.
		c.Encoder.Preset = ""
	} else if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultPreset
	}
}
