package encrefs

import (
	"fmt"
	"log/slog"
)

type (
	// Option configures an [Engine] at construction.
	Option   func(*settings) error
	settings struct {
		logger      *slog.Logger
		historySize int
		intraPeriod int
	}
)

const defaultHistorySize = 16

// WithLogger directs the engine's diagnostics to logger.
// Per-frame decisions are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithHistory sets how many recent decisions the engine retains
// for [Engine.History] and [Engine.Diagnostics]. 0 disables it.
func WithHistory(size int) Option {
	return func(s *settings) error {
		if size < 0 {
			return fmt.Errorf("history size must not be negative but is %d", size)
		}
		s.historySize = size
		return nil
	}
}

// WithIntraPeriod sets the initial intra period.
// See [Engine.SetIntraPeriod].
func WithIntraPeriod(period int) Option {
	return func(s *settings) error {
		s.intraPeriod = period
		return nil
	}
}
