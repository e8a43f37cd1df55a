package encrefs

import (
	"maps"
	"slices"
)

// SmartPPeriod is the long-term refresh period of the "smartp" preset.
const SmartPPeriod = 30

var presets = map[string]func() ReferenceConfig{
	"prev": func() ReferenceConfig {
		return ReferenceConfig{
			ShortTerm: []ShortTermTemplate{
				{Selector: SelectPreviousReference},
			},
		}
	},
	// Two temporal layers; layer 1 is never referenced.
	"tsvc2": func() ReferenceConfig {
		return ReferenceConfig{
			ShortTerm: []ShortTermTemplate{
				{TemporalID: 0, Selector: SelectPreviousReference},
				{TemporalID: 1, Selector: SelectTemporalLayer, SelectorArg: 0, NonReference: true},
				{TemporalID: 0, Selector: SelectTemporalLayer, SelectorArg: 0},
			},
		}
	},
	"tsvc3": func() ReferenceConfig {
		return ReferenceConfig{
			ShortTerm: []ShortTermTemplate{
				{TemporalID: 0, Selector: SelectPreviousReference},
				{TemporalID: 2, Selector: SelectTemporalLayer, SelectorArg: 0, NonReference: true},
				{TemporalID: 1, Selector: SelectTemporalLayer, SelectorArg: 0},
				{TemporalID: 2, Selector: SelectTemporalLayer, SelectorArg: 1, NonReference: true},
				{TemporalID: 0, Selector: SelectTemporalLayer, SelectorArg: 0},
			},
		}
	},
	"tsvc4": func() ReferenceConfig {
		return ReferenceConfig{
			ShortTerm: []ShortTermTemplate{
				{TemporalID: 0, Selector: SelectPreviousReference},
				{TemporalID: 3, Selector: SelectTemporalLayer, SelectorArg: 0, NonReference: true},
				{TemporalID: 2, Selector: SelectTemporalLayer, SelectorArg: 0},
				{TemporalID: 3, Selector: SelectTemporalLayer, SelectorArg: 2, NonReference: true},
				{TemporalID: 1, Selector: SelectTemporalLayer, SelectorArg: 0},
				{TemporalID: 3, Selector: SelectTemporalLayer, SelectorArg: 1, NonReference: true},
				{TemporalID: 2, Selector: SelectTemporalLayer, SelectorArg: 1},
				{TemporalID: 3, Selector: SelectTemporalLayer, SelectorArg: 2, NonReference: true},
				{TemporalID: 0, Selector: SelectTemporalLayer, SelectorArg: 0},
			},
		}
	},
	// A long-term background frame every SmartPPeriod frames,
	// each referencing the background before it.
	"smartp": func() ReferenceConfig {
		return ReferenceConfig{
			LongTerm: []LongTermTemplate{
				{Period: SmartPPeriod, Selector: SelectPreviousLongTerm},
			},
			ShortTerm: []ShortTermTemplate{
				{Selector: SelectPreviousReference},
				{Selector: SelectPreviousReference},
			},
		}
	},
}

// Preset returns a copy of a named reference configuration.
func Preset(name string) (ReferenceConfig, error) {
	preset, ok := presets[name]
	if !ok {
		return ReferenceConfig{}, configError("unknown preset %q", name)
	}
	return preset(), nil
}

// Presets returns the sorted preset names.
func Presets() []string {
	return slices.Sorted(maps.Keys(presets))
}
