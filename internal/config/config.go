package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/djdv/go-encrefs"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Encoder contains the encoder session settings around the reference pattern.
type Encoder struct {
	IntraPeriod int    `toml:"intra_period"`
	Preset      string `toml:"preset"`
	History     int    `toml:"history"`
}

// Config encapsulates all configuration values for refsim.
type Config struct {
	Logging    Logging                 `toml:"logging"`
	Encoder    Encoder                 `toml:"encoder"`
	References encrefs.ReferenceConfig `toml:"references"`
}

// Load reads, normalizes, and validates the configuration at path.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a TOML document over the defaults,
// then normalizes and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReferenceConfig returns the explicit templates,
// or the named preset when none are given.
func (c *Config) ReferenceConfig() (encrefs.ReferenceConfig, error) {
	if len(c.References.ShortTerm) > 0 {
		return c.References.Clone(), nil
	}
	refs, err := encrefs.Preset(c.Encoder.Preset)
	if err != nil {
		return encrefs.ReferenceConfig{}, fmt.Errorf("encoder.preset: %w", err)
	}
	refs.KeepExistingCache = c.References.KeepExistingCache
	return refs, nil
}

// Options returns the engine options implied by the configuration.
func (c *Config) Options() []encrefs.Option {
	return []encrefs.Option{
		encrefs.WithIntraPeriod(c.Encoder.IntraPeriod),
		encrefs.WithHistory(c.Encoder.History),
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
