package encrefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

type (
	// Frame is the reference-relevant status of one scheduled picture,
	// packed into a single word so that frames compare and copy as a whole.
	// The zero value is [NoFrame].
	Frame uint64
	// FrameFlags are auxiliary per-frame markers carried in a [Frame].
	FrameFlags uint8
)

// NoFrame is the invalid frame, used where no reference exists.
const NoFrame Frame = 0

const (
	// FlagNoReconstruction marks frames whose reconstruction
	// does not need to be written back (never referenced).
	FlagNoReconstruction FrameFlags = 1 << iota
	// FlagOverridden marks frames shaped by a [UserFrameOverride].
	FlagOverridden
)

// Layout, least significant bit first.
const (
	bitValid = 1 << iota
	bitIDR
	bitIntra
	bitNonReference
	bitLongTerm

	shiftTemporalID    = 5
	shiftLongTermIndex = 8
	shiftSelector      = 12
	shiftSelectorArg   = 16
	shiftFlags         = 20
	shiftSequence      = 32

	maskTemporalID    = 0x7
	maskLongTermIndex = 0xf
	maskSelector      = 0xf
	maskSelectorArg   = 0xf
	maskFlags         = 0xff
	maskSequence      = 0xffff_ffff
)

func (f Frame) bit(b Frame) bool { return f&b != 0 }

func (f Frame) field(shift, mask uint) int { return int(uint64(f) >> shift & uint64(mask)) }

func (f Frame) setBit(b Frame, on bool) Frame {
	if on {
		return f | b
	}
	return f &^ b
}

func (f Frame) setField(shift, mask uint, value int) Frame {
	if debugging {
		assert(value >= 0 && uint64(value) <= uint64(mask),
			"frame field value out of range")
	}
	cleared := uint64(f) &^ (uint64(mask) << shift)
	return Frame(cleared | (uint64(value)&uint64(mask))<<shift)
}

// Valid reports whether f describes a frame.
func (f Frame) Valid() bool { return f.bit(bitValid) }

// IDR reports whether f resets all reference state.
func (f Frame) IDR() bool { return f.bit(bitIDR) }

// Intra reports whether f is coded without a reference.
func (f Frame) Intra() bool { return f.bit(bitIntra) }

// NonReference reports whether f is never stored for later reference.
func (f Frame) NonReference() bool { return f.bit(bitNonReference) }

// LongTerm reports whether f is stored by [Frame.LongTermIndex] rather than recency.
func (f Frame) LongTerm() bool { return f.bit(bitLongTerm) }

// TemporalID returns the temporal layer of f.
func (f Frame) TemporalID() int { return f.field(shiftTemporalID, maskTemporalID) }

// LongTermIndex returns the long-term index of f.
// It is only meaningful when [Frame.LongTerm] is true.
func (f Frame) LongTermIndex() int { return f.field(shiftLongTermIndex, maskLongTermIndex) }

// Selector returns how f finds its reference.
func (f Frame) Selector() Selector { return Selector(f.field(shiftSelector, maskSelector)) }

// SelectorArg returns the argument of [Frame.Selector].
func (f Frame) SelectorArg() int { return f.field(shiftSelectorArg, maskSelectorArg) }

// SequenceIndex returns the position of f within its GOP.
func (f Frame) SequenceIndex() int { return f.field(shiftSequence, maskSequence) }

// Flags returns the auxiliary flags of f.
func (f Frame) Flags() FrameFlags { return FrameFlags(f.field(shiftFlags, maskFlags)) }

// Has reports whether all of flags are set on f.
func (f Frame) Has(flags FrameFlags) bool { return f.Flags()&flags == flags }

func (f Frame) withValid() Frame { return f.setBit(bitValid, true) }
func (f Frame) withNonReference(on bool) Frame { return f.setBit(bitNonReference, on) }
func (f Frame) withLongTerm(on bool) Frame { return f.setBit(bitLongTerm, on) }
func (f Frame) withTemporalID(id int) Frame { return f.setField(shiftTemporalID, maskTemporalID, id) }
func (f Frame) withLongTermIndex(index int) Frame { return f.setField(shiftLongTermIndex, maskLongTermIndex, index) }
func (f Frame) withSequenceIndex(index int) Frame { return f.setField(shiftSequence, maskSequence, index) }

// withIDR marks f as an IDR frame, which is always intra
// and has no use for a selector.
func (f Frame) withIDR() Frame {
	f = f.setBit(bitIDR, true).setBit(bitIntra, true)
	return f.setField(shiftSelector, maskSelector, 0).
		setField(shiftSelectorArg, maskSelectorArg, 0)
}

func (f Frame) withSelector(selector Selector, arg int) Frame {
	if f.Intra() {
		return f
	}
	return f.setField(shiftSelector, maskSelector, int(selector)).
		setField(shiftSelectorArg, maskSelectorArg, arg)
}

func (f Frame) withFlags(flags FrameFlags) Frame {
	return f.setField(shiftFlags, maskFlags, int(f.Flags()|flags))
}

func (f Frame) kind() string {
	switch {
	case !f.Valid():
		return "none"
	case f.IDR():
		return "IDR"
	case f.Intra():
		return "I"
	default:
		return "P"
	}
}

// String formats f compactly, e.g. "P#12/t1/lt0->prev_ref".
func (f Frame) String() string {
	if !f.Valid() {
		return "none"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s#%d/t%d", f.kind(), f.SequenceIndex(), f.TemporalID())
	if f.LongTerm() {
		fmt.Fprintf(&b, "/lt%d", f.LongTermIndex())
	}
	if f.NonReference() {
		b.WriteString("/nr")
	}
	if !f.Intra() {
		fmt.Fprintf(&b, "->%s", f.Selector())
		if !f.Selector().symbolic() {
			fmt.Fprintf(&b, "(%d)", f.SelectorArg())
		}
	}
	return b.String()
}

// LogValue groups the fields of f for structured logs.
func (f Frame) LogValue() slog.Value {
	if !f.Valid() {
		return slog.StringValue("none")
	}
	attrs := []slog.Attr{
		slog.Int("seq", f.SequenceIndex()),
		slog.String("kind", f.kind()),
		slog.Int("tid", f.TemporalID()),
	}
	if f.LongTerm() {
		attrs = append(attrs, slog.Int("lt_idx", f.LongTermIndex()))
	}
	if f.NonReference() {
		attrs = append(attrs, slog.Bool("non_ref", true))
	}
	if !f.Intra() {
		attrs = append(attrs,
			slog.String("ref", f.Selector().String()),
			slog.Int("ref_arg", f.SelectorArg()),
		)
	}
	return slog.GroupValue(attrs...)
}

type frameJSON struct {
	SequenceIndex int      `json:"seq"`
	IDR           bool     `json:"idr,omitempty"`
	Intra         bool     `json:"intra,omitempty"`
	NonReference  bool     `json:"nonRef,omitempty"`
	LongTerm      bool     `json:"longTerm,omitempty"`
	LongTermIndex *int     `json:"ltIdx,omitempty"`
	TemporalID    int      `json:"tid"`
	Selector      Selector `json:"ref"`
	SelectorArg   int      `json:"refArg,omitempty"`
	Flags         uint8    `json:"flags,omitempty"`
}

// MarshalJSON encodes f as an object, or null for [NoFrame].
func (f Frame) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	encoded := frameJSON{
		SequenceIndex: f.SequenceIndex(),
		IDR:           f.IDR(),
		Intra:         f.Intra(),
		NonReference:  f.NonReference(),
		LongTerm:      f.LongTerm(),
		TemporalID:    f.TemporalID(),
		Selector:      f.Selector(),
		SelectorArg:   f.SelectorArg(),
		Flags:         uint8(f.Flags()),
	}
	if f.LongTerm() {
		index := f.LongTermIndex()
		encoded.LongTermIndex = &index
	}
	return json.Marshal(encoded)
}
