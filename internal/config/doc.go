// Package config loads, normalizes, and validates refsim configuration data.
//
// A configuration names either a built-in reference preset or an explicit
// list of short-term and long-term templates, along with the encoder's intra
// period and logging preferences. Selectors are written by name
// (for example "prev_ref" or "temporal_layer").
package config
