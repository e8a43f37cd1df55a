package encrefs

import "slices"

// Diagnostics is a structured capture of the whole buffer model.
type Diagnostics struct {
	Status   Status       `json:"status"`
	Capacity CapacityInfo `json:"capacity"`
	// LongTerm holds every long-term slot, including empty ones.
	LongTerm []Frame `json:"longTerm"`
	// ShortTerm holds the short-term region, newest first.
	ShortTerm []Frame `json:"shortTerm"`
	// Categories is indexed by the symbolic [Selector] values.
	Categories      []Frame           `json:"categories"`
	TemporalLayers  []Frame           `json:"temporalLayers"`
	LongTermIndices []Frame           `json:"longTermIndices"`
	Counters        []PeriodicCounter `json:"counters"`
	// History is only filled by [Engine.Diagnostics].
	History []Decision `json:"history,omitempty"`
}

// Diagnostics captures the engine's full state, including recent decisions.
func (e *Engine) Diagnostics() *Diagnostics {
	diagnostics := e.cache.diagnostics()
	diagnostics.History = e.History()
	return diagnostics
}

func (c *virtualCache) status() Status {
	return Status{
		FrameCount:      c.frameCount,
		SequenceIndex:   c.sequenceIndex,
		GOPCount:        c.gopCount,
		PatternPosition: c.patternPosition,
		RepeatPosition:  c.repeatPosition,
	}
}

func (c *virtualCache) diagnostics() *Diagnostics {
	shortTerm := make([]Frame, 0, c.shortTerm.Len())
	for _, frame := range c.shortTerm.All() {
		shortTerm = append(shortTerm, frame)
	}
	return &Diagnostics{
		Status:          c.status(),
		Capacity:        c.info,
		LongTerm:        slices.Clone(c.longTerm[:]),
		ShortTerm:       shortTerm,
		Categories:      slices.Clone(c.byCategory[:]),
		TemporalLayers:  slices.Clone(c.byTemporalID[:]),
		LongTermIndices: slices.Clone(c.byLongTermIndex[:]),
		Counters:        slices.Clone(c.counters),
	}
}
