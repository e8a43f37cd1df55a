package main

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/djdv/go-encrefs"
	"github.com/djdv/go-encrefs/internal/config"
	"github.com/djdv/go-encrefs/internal/logging"
)

type (
	globalFlags struct {
		config,
		preset,
		logLevel,
		logFormat string
		intraPeriod int
	}
	commandContext struct {
		flags *globalFlags
	}
)

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// loadConfig reads the configuration file and applies flag overrides.
func (c *commandContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(strings.TrimSpace(c.flags.config))
	if err != nil {
		return nil, err
	}
	if preset := strings.TrimSpace(c.flags.preset); preset != "" {
		cfg.Encoder.Preset = strings.ToLower(preset)
		cfg.References.ShortTerm = nil
		cfg.References.LongTerm = nil
	}
	if c.flags.intraPeriod >= 0 {
		cfg.Encoder.IntraPeriod = c.flags.intraPeriod
	}
	if c.flags.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.flags.logLevel)
	}
	if c.flags.logFormat != "" {
		cfg.Logging.Format = strings.ToLower(c.flags.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	return logging.NewSessionLogger(logger, uuid.NewString()), nil
}

// newEngine builds a configured engine from the command's configuration.
func (c *commandContext) newEngine(cmd *cobra.Command) (*encrefs.Engine, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	refs, err := cfg.ReferenceConfig()
	if err != nil {
		return nil, nil, err
	}
	options := append(cfg.Options(), encrefs.WithLogger(logger))
	engine, err := encrefs.New(options...)
	if err != nil {
		return nil, nil, err
	}
	if err := engine.Configure(refs); err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
