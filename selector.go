package encrefs

import "fmt"

// Selector names the lookup a frame uses to find its reference.
// The zero value is [SelectPreviousReference].
type Selector uint8

const (
	// SelectPreviousReference refers to the last stored frame,
	// short-term or long-term.
	SelectPreviousReference Selector = iota
	// SelectPreviousShortTerm refers to the last stored short-term frame.
	SelectPreviousShortTerm
	// SelectPreviousLongTerm refers to the last stored long-term frame.
	SelectPreviousLongTerm
	// SelectPreviousIntra refers to the last stored intra frame.
	SelectPreviousIntra
	// SelectTemporalLayer refers to the last stored frame
	// of the temporal layer given as argument.
	SelectTemporalLayer
	// SelectLongTermIndex refers to the long-term frame
	// stored under the index given as argument.
	SelectLongTermIndex
	// SelectBackwardDistance refers to the short-term frame
	// the argument's number of positions back (0 is the newest).
	SelectBackwardDistance

	selectorCount
	categoryCount = int(SelectPreviousIntra) + 1
)

var selectorNames = [selectorCount]string{
	SelectPreviousReference: "prev_ref",
	SelectPreviousShortTerm: "prev_st_ref",
	SelectPreviousLongTerm:  "prev_lt_ref",
	SelectPreviousIntra:     "prev_intra",
	SelectTemporalLayer:     "temporal_layer",
	SelectLongTermIndex:     "lt_index",
	SelectBackwardDistance:  "distance",
}

// ParseSelector returns the selector with the given name.
func ParseSelector(name string) (Selector, error) {
	for selector, selectorName := range selectorNames {
		if name == selectorName {
			return Selector(selector), nil
		}
	}
	return 0, configError("unknown selector %q", name)
}

func (s Selector) valid() bool { return s < selectorCount }

// symbolic reports whether s is one of the category selectors
// whose argument is ignored.
func (s Selector) symbolic() bool { return int(s) < categoryCount }

// String returns the configuration name of s.
func (s Selector) String() string {
	if s.valid() {
		return selectorNames[s]
	}
	return fmt.Sprintf("selector(%d)", uint8(s))
}

// MarshalText encodes s by name, failing for unknown selectors.
func (s Selector) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, configError("unknown selector %d", uint8(s))
	}
	return []byte(selectorNames[s]), nil
}

// UnmarshalText decodes a selector name as accepted by [ParseSelector].
func (s *Selector) UnmarshalText(text []byte) error {
	selector, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = selector
	return nil
}
