package encrefs

import "fmt"

// size replays one pass of the installed pattern on a scratch copy
// of the cache and reports the capacity that pass required.
// The receiver is not modified.
func (c *virtualCache) size() (CapacityInfo, error) {
	var (
		scratch     = c.clone()
		info        = c.config.capacityHints()
		maxDistance int
	)
	scratch.wipe()
	if err := scratch.shortTerm.SetLimit(MaxShortTermCount); err != nil {
		return CapacityInfo{}, err
	}
	for position, template := range c.config.ShortTerm {
		for range template.repeats() {
			frame := scratch.stamp(template)
			frame = tickCounters(scratch.counters, frame)
			reference, err := scratch.resolve(frame)
			if err != nil {
				return CapacityInfo{}, sizeError(position, err)
			}
			if reference.Valid() {
				slot, err := scratch.locate(frame, reference)
				if err != nil {
					return CapacityInfo{}, sizeError(position, err)
				}
				if !reference.LongTerm() {
					maxDistance = max(maxDistance, slot+1)
				}
			}
			if err := scratch.commit(frame); err != nil {
				return CapacityInfo{}, sizeError(position, err)
			}
		}
	}
	info.MaxShortTermCount = max(maxDistance, 1)
	info.CacheCapacity = info.MaxLongTermCount + info.MaxShortTermCount
	return info, nil
}

func sizeError(template int, err error) error {
	return fmt.Errorf("%w: sizing short-term template %d: %w",
		ErrInvalidConfig, template, err)
}
