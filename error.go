package encrefs

import "fmt"

type constError string

const (
	// ErrInvalidConfig is returned when a [ReferenceConfig]
	// cannot be installed or sized.
	ErrInvalidConfig = constError("invalid reference config")
	// ErrUnresolvedReference is returned when a frame's selector
	// points at a lookup slot that was never populated.
	ErrUnresolvedReference = constError("unresolved reference")
	// ErrPositionNotFound is returned when a resolved reference
	// is no longer present in the modeled buffer.
	ErrPositionNotFound = constError("reference position not found")
	// ErrCapacityExceeded is returned when a region refuses an insert.
	ErrCapacityExceeded = constError("capacity exceeded")
	// ErrNotConfigured is returned by [Engine.Advance] before [Engine.Configure].
	ErrNotConfigured = constError("engine not configured")
	// ErrNoCheckpoint is returned by [Engine.Rollback] when given a nil [Checkpoint].
	ErrNoCheckpoint = constError("no checkpoint")
)

func (errStr constError) Error() string { return string(errStr) }

// ReferenceError describes a failed reference lookup for a frame.
// It unwraps to [ErrUnresolvedReference] or [ErrPositionNotFound].
type ReferenceError struct {
	// Err is the sentinel this error unwraps to.
	Err error
	// Frame is the frame that requested the reference.
	Frame Frame
	// Reference is what the lookup produced (possibly invalid).
	Reference Frame
	// State is a capture of the cache taken when
	// the reference was missing from the modeled buffer.
	State *Diagnostics
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf(
		"%s: frame %d (%s %d)",
		e.Err, e.Frame.SequenceIndex(),
		e.Frame.Selector(), e.Frame.SelectorArg(),
	)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format,
		append([]any{ErrInvalidConfig}, args...)...)
}
