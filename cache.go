package encrefs

import (
	"slices"

	"github.com/djdv/go-encrefs/internal/ring"
)

type (
	// longTermRegion holds long-term frames keyed by
	// their long-term index; at most one slot per index.
	longTermRegion [MaxLongTermCount]Frame
	// virtualCache models the decoder's reference buffer.
	// Concurrent access must be guarded by the caller.
	virtualCache struct {
		config *ReferenceConfig
		info   CapacityInfo
		// shortTerm is most-recent-first and doubles
		// as the backward distance lookup table.
		shortTerm       *ring.Window[Frame]
		longTerm        longTermRegion
		byCategory      [categoryCount]Frame
		byTemporalID    [MaxTemporalLayers]Frame
		byLongTermIndex [MaxLongTermIndex]Frame
		counters        []PeriodicCounter
		cursors
	}
	cursors struct {
		frameCount,
		sequenceIndex,
		gopCount,
		patternPosition,
		repeatPosition int
	}
)

func newVirtualCache() *virtualCache {
	return &virtualCache{
		shortTerm: ring.New[Frame](MaxShortTermCount),
	}
}

// store places frame into the slot already holding its index,
// otherwise into the first empty slot.
func (r *longTermRegion) store(frame Frame) error {
	slot, found := r.find(frame.LongTermIndex())
	if !found {
		if slot = slices.Index(r[:], NoFrame); slot == -1 {
			return ErrCapacityExceeded
		}
	}
	r[slot] = frame
	return nil
}

func (r *longTermRegion) find(index int) (int, bool) {
	for slot, frame := range r {
		if frame.Valid() && frame.LongTermIndex() == index {
			return slot, true
		}
	}
	return -1, false
}

func (r *longTermRegion) occupied() int {
	var count int
	for _, frame := range r {
		if frame.Valid() {
			count++
		}
	}
	return count
}

// clearRegions drops every stored frame and lookup entry.
func (c *virtualCache) clearRegions() {
	c.shortTerm.Reset()
	clear(c.longTerm[:])
	clear(c.byCategory[:])
	clear(c.byTemporalID[:])
	clear(c.byLongTermIndex[:])
}

func (c *virtualCache) restartPattern() {
	c.patternPosition = 0
	c.repeatPosition = 0
}

// wipe returns the cache to the start of a GOP.
func (c *virtualCache) wipe() {
	c.clearRegions()
	c.sequenceIndex = 0
	c.restartPattern()
	for i := range c.counters {
		c.counters[i].restart()
	}
}

// install makes config active and derives its counters.
// Stored frames are kept unless config asks otherwise.
// It reports whether the stored frames were dropped.
func (c *virtualCache) install(config *ReferenceConfig) bool {
	c.config = config
	c.counters = newCounters(config.LongTerm)
	if config.KeepExistingCache {
		return false
	}
	c.clearRegions()
	c.sequenceIndex = 0
	c.restartPattern()
	return true
}

// setCapacity adopts info and bounds the short-term region to it.
// It reports whether the capacity grew.
func (c *virtualCache) setCapacity(info CapacityInfo) (bool, error) {
	if err := c.shortTerm.SetLimit(info.MaxShortTermCount); err != nil {
		return false, configError("%w: %d short-term frames requested but only %d slots",
			ErrCapacityExceeded, info.MaxShortTermCount, MaxShortTermCount)
	}
	// Kept long-term frames stay addressable.
	if stored := c.longTerm.occupied(); stored > info.MaxLongTermCount {
		info.MaxLongTermCount = stored
		info.CacheCapacity = info.MaxLongTermCount + info.MaxShortTermCount
	}
	grew := info.CacheCapacity > c.info.CacheCapacity
	c.info = info
	return grew, nil
}

// reserveLongTerm makes room in the capacity for a long-term frame
// whose index no stored frame holds and no slot was budgeted for.
// It reports whether the capacity grew.
func (c *virtualCache) reserveLongTerm(frame Frame) bool {
	if !frame.LongTerm() || frame.NonReference() {
		return false
	}
	index := frame.LongTermIndex()
	c.info.MaxLongTermIndex = max(c.info.MaxLongTermIndex, index)
	needed := c.longTerm.occupied()
	if _, found := c.longTerm.find(index); !found {
		needed++
	}
	if needed <= c.info.MaxLongTermCount {
		return false
	}
	c.info.CacheCapacity += needed - c.info.MaxLongTermCount
	c.info.MaxLongTermCount = needed
	return true
}

// template returns the short-term template at the pattern cursor.
func (c *virtualCache) template() ShortTermTemplate {
	return c.config.ShortTerm[c.patternPosition]
}

// stamp builds the next frame of the pattern from template.
func (c *virtualCache) stamp(template ShortTermTemplate) Frame {
	frame := NoFrame.
		withValid().
		withSequenceIndex(c.sequenceIndex).
		withTemporalID(template.TemporalID)
	c.sequenceIndex++
	if frame.SequenceIndex() == 0 {
		frame = frame.withIDR()
	} else {
		frame = frame.withSelector(template.Selector, template.SelectorArg)
	}
	return frame.withNonReference(template.NonReference)
}

// stepPattern moves the pattern cursors by one frame.
// After the last template the pattern restarts at template 1;
// template 0 is reserved for the start of a GOP.
func (c *virtualCache) stepPattern() {
	c.repeatPosition++
	if c.repeatPosition >= c.template().repeats() {
		c.repeatPosition = 0
		c.patternPosition++
	}
	if count := len(c.config.ShortTerm); c.patternPosition >= count {
		c.patternPosition = min(1, count-1)
	}
}

// resolve returns the frame that frame references,
// or [NoFrame] for intra frames.
func (c *virtualCache) resolve(frame Frame) (Frame, error) {
	if frame.Intra() {
		return NoFrame, nil
	}
	var (
		reference Frame
		arg       = frame.SelectorArg()
	)
	switch selector := frame.Selector(); selector {
	case SelectPreviousReference, SelectPreviousShortTerm,
		SelectPreviousLongTerm, SelectPreviousIntra:
		reference = c.byCategory[selector]
	case SelectTemporalLayer:
		if arg < len(c.byTemporalID) {
			reference = c.byTemporalID[arg]
		}
	case SelectLongTermIndex:
		if arg < len(c.byLongTermIndex) {
			reference = c.byLongTermIndex[arg]
		}
	case SelectBackwardDistance:
		reference, _ = c.shortTerm.At(arg)
	default:
		return NoFrame, configError("frame %d: unsupported selector %s",
			frame.SequenceIndex(), selector)
	}
	if !reference.Valid() {
		return NoFrame, &ReferenceError{
			Err:       ErrUnresolvedReference,
			Frame:     frame,
			Reference: reference,
		}
	}
	return reference, nil
}

// locate returns the slot holding reference within its region.
// For short-term frames the slot is the backward distance minus one.
func (c *virtualCache) locate(frame, reference Frame) (int, error) {
	if reference.LongTerm() {
		if slot, found := c.longTerm.find(reference.LongTermIndex()); found &&
			c.longTerm[slot].SequenceIndex() == reference.SequenceIndex() {
			return slot, nil
		}
	} else {
		for slot, stored := range c.shortTerm.All() {
			if stored.Valid() &&
				stored.SequenceIndex() == reference.SequenceIndex() {
				return slot, nil
			}
		}
	}
	return -1, &ReferenceError{
		Err:       ErrPositionNotFound,
		Frame:     frame,
		Reference: reference,
		State:     c.diagnostics(),
	}
}

// commit stores frame and updates the lookup tables.
// Non-reference frames leave no trace.
func (c *virtualCache) commit(frame Frame) error {
	if frame.NonReference() {
		return nil
	}
	if frame.Intra() {
		c.byCategory[SelectPreviousIntra] = frame
	}
	c.byTemporalID[frame.TemporalID()] = frame
	c.byCategory[SelectPreviousReference] = frame
	if frame.LongTerm() {
		c.byLongTermIndex[frame.LongTermIndex()] = frame
		c.byCategory[SelectPreviousLongTerm] = frame
		return c.longTerm.store(frame)
	}
	c.byCategory[SelectPreviousShortTerm] = frame
	c.shortTerm.Push(frame)
	return nil
}

// snapshot lists stored frames, long-term slots first in storage
// order, then short-term most-recent-first, up to the cache capacity.
func (c *virtualCache) snapshot() []Frame {
	var (
		limit  = c.info.CacheCapacity
		frames = make([]Frame, 0, limit)
	)
	for _, frame := range c.longTerm {
		if len(frames) == limit {
			return frames
		}
		if frame.Valid() {
			frames = append(frames, frame)
		}
	}
	for _, frame := range c.shortTerm.All() {
		if len(frames) == limit {
			break
		}
		if frame.Valid() {
			frames = append(frames, frame)
		}
	}
	return frames
}

// clone returns an independent copy of the cache.
// The installed config is immutable and shared.
func (c *virtualCache) clone() *virtualCache {
	clone := *c
	clone.shortTerm = c.shortTerm.Clone()
	clone.counters = slices.Clone(c.counters)
	return &clone
}
