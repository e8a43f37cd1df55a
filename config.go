package encrefs

import (
	"fmt"
	"slices"
)

// Fixed bounds of the modeled buffer and its lookup tables.
const (
	// MaxShortTermCount is the physical size of the short-term region.
	MaxShortTermCount = 16
	// MaxLongTermCount is the physical size of the long-term region.
	MaxLongTermCount = 16
	// MaxLongTermIndex bounds long-term indices to [0, MaxLongTermIndex).
	MaxLongTermIndex = maskLongTermIndex + 1
	// MaxTemporalLayers bounds temporal IDs to [0, MaxTemporalLayers).
	MaxTemporalLayers = maskTemporalID + 1
	// MaxShortTermTemplates bounds the length of a short-term pattern.
	MaxShortTermTemplates = 64
)

type (
	// ShortTermTemplate describes one step of the GOP pattern.
	ShortTermTemplate struct {
		TemporalID   int      `toml:"temporal_id" json:"temporalId"`
		Selector     Selector `toml:"ref" json:"ref"`
		SelectorArg  int      `toml:"arg" json:"refArg"`
		NonReference bool     `toml:"non_ref" json:"nonRef"`
		// Repeat is how many consecutive frames use this step.
		// Values below 1 count as 1.
		Repeat int `toml:"repeat" json:"repeat"`
	}
	// LongTermTemplate promotes a frame to a long-term reference
	// every Period frames, once InitialDelay frames have passed.
	// A Period of 0 promotes a single frame.
	LongTermTemplate struct {
		InitialDelay  int      `toml:"delay" json:"delay"`
		Period        int      `toml:"period" json:"period"`
		LongTermIndex int      `toml:"index" json:"index"`
		TemporalID    int      `toml:"temporal_id" json:"temporalId"`
		Selector      Selector `toml:"ref" json:"ref"`
		SelectorArg   int      `toml:"arg" json:"refArg"`
	}
	// ReferenceConfig is the reference topology of one GOP.
	// It must not be modified once passed to [Engine.Configure].
	ReferenceConfig struct {
		// KeepExistingCache preserves stored frames across
		// [Engine.Configure], resetting only the pattern cursors.
		KeepExistingCache bool                `toml:"keep_existing_cache" json:"keepExistingCache"`
		LongTerm          []LongTermTemplate  `toml:"long_term" json:"longTerm"`
		ShortTerm         []ShortTermTemplate `toml:"short_term" json:"shortTerm"`
	}
	// CapacityInfo describes the buffer a configuration needs.
	// CacheCapacity is always the sum of the long-term and short-term counts.
	CapacityInfo struct {
		CacheCapacity     int `json:"cacheCapacity"`
		MaxLongTermCount  int `json:"maxLongTermCount"`
		MaxShortTermCount int `json:"maxShortTermCount"`
		// MaxLongTermIndex is the highest long-term index in use.
		MaxLongTermIndex int `json:"maxLongTermIndex"`
		// MaxTemporalID is the highest temporal layer in use.
		MaxTemporalID       int `json:"maxTemporalId"`
		LongTermPeriodHint  int `json:"longTermPeriodHint"`
		ShortTermPeriodHint int `json:"shortTermPeriodHint"`
	}
)

func (t ShortTermTemplate) repeats() int { return max(t.Repeat, 1) }

// Clone returns a deep copy of cfg.
func (cfg ReferenceConfig) Clone() ReferenceConfig {
	cfg.LongTerm = slices.Clone(cfg.LongTerm)
	cfg.ShortTerm = slices.Clone(cfg.ShortTerm)
	return cfg
}

// Validate checks template counts, selectors and argument ranges.
func (cfg *ReferenceConfig) Validate() error {
	if count := len(cfg.ShortTerm); count == 0 || count > MaxShortTermTemplates {
		return configError("short-term template count must be within [1,%d] but is %d",
			MaxShortTermTemplates, count)
	}
	if count := len(cfg.LongTerm); count > MaxLongTermCount {
		return configError("%w: %d long-term templates but only %d long-term slots",
			ErrCapacityExceeded, count, MaxLongTermCount)
	}
	for i, template := range cfg.ShortTerm {
		if err := checkTemporalID(template.TemporalID); err != nil {
			return configError("short-term template %d: %w", i, err)
		}
		if err := checkSelector(template.Selector, template.SelectorArg); err != nil {
			return configError("short-term template %d: %w", i, err)
		}
	}
	var indices [MaxLongTermIndex]bool
	for i, template := range cfg.LongTerm {
		index := template.LongTermIndex
		if index < 0 || index >= MaxLongTermIndex {
			return configError("long-term template %d: index must be within [0,%d) but is %d",
				i, MaxLongTermIndex, index)
		}
		if indices[index] {
			return configError("long-term template %d: index %d is used twice", i, index)
		}
		indices[index] = true
		if template.InitialDelay < 0 || template.Period < 0 {
			return configError("long-term template %d: delay and period must not be negative", i)
		}
		if err := checkTemporalID(template.TemporalID); err != nil {
			return configError("long-term template %d: %w", i, err)
		}
		if err := checkSelector(template.Selector, template.SelectorArg); err != nil {
			return configError("long-term template %d: %w", i, err)
		}
	}
	return nil
}

func checkTemporalID(id int) error {
	if id < 0 || id >= MaxTemporalLayers {
		return fmt.Errorf("temporal id must be within [0,%d) but is %d",
			MaxTemporalLayers, id)
	}
	return nil
}

func checkSelector(selector Selector, arg int) error {
	var limit int
	switch selector {
	case SelectPreviousReference, SelectPreviousShortTerm,
		SelectPreviousLongTerm, SelectPreviousIntra:
		return nil
	case SelectTemporalLayer:
		limit = MaxTemporalLayers
	case SelectLongTermIndex:
		limit = MaxLongTermIndex
	case SelectBackwardDistance:
		limit = MaxShortTermCount
	default:
		return fmt.Errorf("unsupported selector %s", selector)
	}
	if arg < 0 || arg >= limit {
		return fmt.Errorf("%s argument must be within [0,%d) but is %d",
			selector, limit, arg)
	}
	return nil
}

// capacityHints derives everything but the short-term count,
// which only a dry run can determine.
func (cfg *ReferenceConfig) capacityHints() CapacityInfo {
	var info CapacityInfo
	for _, template := range cfg.LongTerm {
		info.MaxLongTermCount++
		info.MaxLongTermIndex = max(info.MaxLongTermIndex, template.LongTermIndex)
		info.MaxTemporalID = max(info.MaxTemporalID, template.TemporalID)
		info.LongTermPeriodHint = max(info.LongTermPeriodHint,
			template.InitialDelay+template.Period)
	}
	for _, template := range cfg.ShortTerm {
		info.MaxTemporalID = max(info.MaxTemporalID, template.TemporalID)
		info.ShortTermPeriodHint += template.repeats()
	}
	return info
}
