// Package ring is a fixed-capacity recency window,
// a specialized adaption of `container/ring` for sliding-window reference slots.
package ring

import (
	"iter"
	"slices"
)

type constError string

// ErrLimit is returned by [Window.SetLimit] when the requested
// limit does not fit the window's physical capacity.
const ErrLimit = constError("limit outside of window capacity")

func (errStr constError) Error() string { return string(errStr) }

// A Window holds the most recently pushed values, newest first.
// Its physical capacity is fixed at construction; the limit
// bounds how many values are observable and may be lowered or
// raised within that capacity. Pushing onto a full window
// evicts the oldest value.
// The zero value is an empty window with no capacity.
type Window[Value any] struct {
	slots []Value
	// head is the physical index of position 0.
	head,
	length,
	limit int
}

// New creates a window with the given physical capacity.
// The limit starts equal to the capacity.
func New[Value any](capacity int) *Window[Value] {
	capacity = max(capacity, 0)
	return &Window[Value]{
		slots: make([]Value, capacity),
		limit: capacity,
	}
}

// physical maps a recency position to a slot index.
func (w *Window[Value]) physical(position int) int {
	size := len(w.slots)
	return ((w.head-position)%size + size) % size
}

// Push places value at position 0, moving every other value one
// position back. If the window was full, the value that fell past
// the limit is returned along with true.
func (w *Window[Value]) Push(value Value) (Value, bool) {
	var evicted Value
	if w.limit == 0 {
		return value, true
	}
	full := w.length == w.limit
	if full {
		evicted = w.slots[w.physical(w.length-1)]
	}
	w.head = (w.head + 1) % len(w.slots)
	w.slots[w.head] = value
	if !full {
		w.length++
		return evicted, false
	}
	if w.limit < len(w.slots) {
		// The oldest value still occupies a physical slot
		// beyond the limit; clear it so a later raise cannot revive it.
		var zero Value
		w.slots[w.physical(w.limit)] = zero
	}
	return evicted, true
}

// At returns the value at recency position n (0 is the newest).
// Positions past the current length yield the zero value and false.
func (w *Window[Value]) At(n int) (Value, bool) {
	if n < 0 || n >= w.length {
		var zero Value
		return zero, false
	}
	return w.slots[w.physical(n)], true
}

// Len returns the number of observable values.
func (w *Window[Value]) Len() int { return w.length }

// Cap returns the physical capacity.
func (w *Window[Value]) Cap() int { return len(w.slots) }

// Limit returns the number of values the window will retain.
func (w *Window[Value]) Limit() int { return w.limit }

// SetLimit changes the retention limit.
// Lowering it drops the oldest values beyond the new limit.
func (w *Window[Value]) SetLimit(limit int) error {
	if limit < 0 || limit > len(w.slots) {
		return ErrLimit
	}
	var zero Value
	for w.length > limit {
		w.slots[w.physical(w.length-1)] = zero
		w.length--
	}
	w.limit = limit
	return nil
}

// Reset drops every value, keeping capacity and limit.
func (w *Window[Value]) Reset() {
	clear(w.slots)
	w.head = 0
	w.length = 0
}

// Clone returns an independent copy of the window.
func (w *Window[Value]) Clone() *Window[Value] {
	clone := *w
	clone.slots = slices.Clone(w.slots)
	return &clone
}

// All returns an iterator over observable values, newest first.
func (w *Window[Value]) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for position := range w.length {
			if !yield(position, w.slots[w.physical(position)]) {
				return
			}
		}
	}
}
