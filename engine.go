package encrefs

import (
	"log/slog"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/djdv/go-encrefs/internal/logging"
)

type (
	// Engine decides, frame by frame, which stored picture each
	// encoded frame references, and keeps the virtual buffer
	// that makes those decisions realizable.
	// Concurrent access must be guarded by the caller.
	// Constructed by [New].
	Engine struct {
		cache       *virtualCache
		logger      *slog.Logger
		history     *lru.Cache[int, Decision]
		pending     UserFrameOverride
		intraPeriod int
		// headerUpdate is set when the consumer must
		// re-announce the buffer capacity.
		headerUpdate,
		gopChanged,
		patternChanged bool
	}
	// UserFrameOverride adjusts the next frame.
	// Each Force field is applied once and then cleared.
	UserFrameOverride struct {
		ForceIDR          bool
		ForceNonReference bool
		// ForceLongTerm stores the frame under LongTermIndex
		// on temporal layer 0 and restarts the pattern.
		// An index beyond the configured long-term slots
		// grows the capacity and requests a [Engine.HeaderUpdate].
		ForceLongTerm   bool
		LongTermIndex   int
		ForceTemporalID bool
		TemporalID      int
		ForceReference  bool
		Selector        Selector
		SelectorArg     int
	}
	// Decision is the outcome of one [Engine.Advance].
	// The consumer diffs Before and After to find the changed slot.
	Decision struct {
		// FrameCount numbers the decision across GOPs, starting at 1.
		FrameCount int     `json:"frame"`
		Current    Frame   `json:"current"`
		Reference  Frame   `json:"reference"`
		Before     []Frame `json:"before"`
		After      []Frame `json:"after"`
	}
	// Status exposes the cursors of the engine.
	Status struct {
		FrameCount      int `json:"frameCount"`
		SequenceIndex   int `json:"sequenceIndex"`
		GOPCount        int `json:"gopCount"`
		PatternPosition int `json:"patternPosition"`
		RepeatPosition  int `json:"repeatPosition"`
	}
	// Checkpoint is a copy of the engine's buffer state.
	// Constructed by [Engine.Stash].
	Checkpoint struct {
		cache *virtualCache
	}
)

// New creates an unconfigured [Engine].
func New(options ...Option) (*Engine, error) {
	set := settings{
		logger:      logging.NewNop(),
		historySize: defaultHistorySize,
	}
	for _, apply := range options {
		if err := apply(&set); err != nil {
			return nil, err
		}
	}
	engine := &Engine{
		cache:       newVirtualCache(),
		logger:      logging.NewComponentLogger(set.logger, "encrefs"),
		intraPeriod: set.intraPeriod,
	}
	if set.historySize > 0 {
		history, err := lru.New[int, Decision](set.historySize)
		if err != nil {
			return nil, err
		}
		engine.history = history
	}
	return engine, nil
}

func (e *Engine) configured() bool { return e.cache.config != nil }

// Configure validates and sizes cfg, then installs it.
// On error the engine is left unchanged.
func (e *Engine) Configure(cfg ReferenceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var (
		config    = cfg.Clone()
		candidate = e.cache.clone()
		dropped   = candidate.install(&config)
	)
	info, err := candidate.size()
	if err != nil {
		return err
	}
	grew, err := candidate.setCapacity(info)
	if err != nil {
		return err
	}
	e.cache = candidate
	e.patternChanged = true
	if dropped || grew {
		e.headerUpdate = true
	}
	e.logger.Info("reference config installed",
		slog.Int("short_term_templates", len(config.ShortTerm)),
		slog.Int("long_term_templates", len(config.LongTerm)),
		slog.Int("capacity", info.CacheCapacity),
		slog.Int("max_st", info.MaxShortTermCount),
		slog.Int("max_lt", info.MaxLongTermCount),
		slog.Bool("kept_cache", !dropped),
	)
	return nil
}

// Capacity returns the buffer capacity the installed configuration needs.
func (e *Engine) Capacity() (CapacityInfo, error) {
	if !e.configured() {
		return CapacityInfo{}, ErrNotConfigured
	}
	return e.cache.info, nil
}

// HeaderUpdate reports whether the buffer capacity must be
// re-announced, and clears the request.
// Capacity is re-announced after a reset (including GOP boundaries)
// or when it grows, not when it shrinks.
func (e *Engine) HeaderUpdate() bool {
	update := e.headerUpdate
	e.headerUpdate = false
	return update
}

// SetIntraPeriod sets the number of frames between IDR frames.
// 1 makes every frame an IDR; values below 1 disable periodic IDR frames.
// A change takes effect as a GOP boundary on the next frame.
func (e *Engine) SetIntraPeriod(period int) {
	if period == e.intraPeriod {
		return
	}
	e.intraPeriod = period
	if e.cache.frameCount > 0 {
		e.gopChanged = true
	}
}

// SetOverride merges override into the pending override for the next frame.
func (e *Engine) SetOverride(override UserFrameOverride) error {
	if override.ForceLongTerm &&
		(override.LongTermIndex < 0 || override.LongTermIndex >= MaxLongTermIndex) {
		return configError("override long-term index must be within [0,%d) but is %d",
			MaxLongTermIndex, override.LongTermIndex)
	}
	if override.ForceTemporalID {
		if err := checkTemporalID(override.TemporalID); err != nil {
			return configError("override: %w", err)
		}
	}
	if override.ForceReference {
		if err := checkSelector(override.Selector, override.SelectorArg); err != nil {
			return configError("override: %w", err)
		}
	}
	pending := &e.pending
	pending.ForceIDR = pending.ForceIDR || override.ForceIDR
	pending.ForceNonReference = pending.ForceNonReference || override.ForceNonReference
	if override.ForceLongTerm {
		pending.ForceLongTerm = true
		pending.LongTermIndex = override.LongTermIndex
	}
	if override.ForceTemporalID {
		pending.ForceTemporalID = true
		pending.TemporalID = override.TemporalID
	}
	if override.ForceReference {
		pending.ForceReference = true
		pending.Selector = override.Selector
		pending.SelectorArg = override.SelectorArg
	}
	return nil
}

// Advance decides the next frame and commits it to the buffer.
// Errors indicate a configuration that cannot be realized;
// the engine is left as it was before the call.
func (e *Engine) Advance() (Decision, error) {
	if !e.configured() {
		return Decision{}, ErrNotConfigured
	}
	cache := e.cache.clone()
	decision, reset, err := e.decide(cache, e.pending)
	if err != nil {
		e.logger.Warn("reference resolution failed",
			slog.Any("frame", decision.Current),
			logging.Error(err),
		)
		return Decision{}, err
	}
	e.cache = cache
	e.pending = UserFrameOverride{}
	e.gopChanged = false
	e.patternChanged = false
	if reset {
		e.headerUpdate = true
	}
	if e.history != nil {
		e.history.Add(decision.FrameCount, decision)
	}
	e.logger.Debug("frame decided", slog.Any("decision", decision))
	return decision, nil
}

// decide runs one frame against cache.
// It reports whether the buffer was reset or grew,
// either of which requires the capacity to be re-announced.
// On error, decision.Current holds the failing frame.
func (e *Engine) decide(cache *virtualCache, override UserFrameOverride) (Decision, bool, error) {
	reset := e.startFrame(cache, override.ForceIDR)
	cache.frameCount++
	frame := cache.stamp(cache.template())
	frame = tickCounters(cache.counters, frame)
	if override != (UserFrameOverride{}) {
		frame = applyOverride(cache, frame, override)
	}
	if frame.NonReference() || e.intraPeriod == 1 {
		frame = frame.withFlags(FlagNoReconstruction)
	}
	cache.stepPattern()
	reference, err := cache.resolve(frame)
	if err == nil && reference.Valid() {
		_, err = cache.locate(frame, reference)
	}
	if err != nil {
		return Decision{Current: frame}, false, err
	}
	if cache.reserveLongTerm(frame) {
		reset = true
		e.logger.Info("long-term capacity grew",
			slog.Int("capacity", cache.info.CacheCapacity),
			slog.Int("max_lt", cache.info.MaxLongTermCount),
		)
	}
	before := cache.snapshot()
	if err := cache.commit(frame); err != nil {
		return Decision{Current: frame}, false, err
	}
	return Decision{
		FrameCount: cache.frameCount,
		Current:    frame,
		Reference:  reference,
		Before:     before,
		After:      cache.snapshot(),
	}, reset, nil
}

// startFrame handles GOP boundaries and pending pattern restarts.
// It reports whether the buffer was wiped.
func (e *Engine) startFrame(cache *virtualCache, forceIDR bool) bool {
	boundary := e.intraPeriod > 0 && cache.sequenceIndex >= e.intraPeriod
	switch {
	case e.gopChanged || forceIDR || boundary:
		cache.wipe()
		cache.gopCount++
		e.logger.Debug("gop boundary",
			slog.Int("gop", cache.gopCount),
			slog.Bool("forced", forceIDR),
			slog.Bool("period_changed", e.gopChanged),
		)
		return true
	case e.patternChanged:
		cache.restartPattern()
	}
	return false
}

func applyOverride(cache *virtualCache, frame Frame, override UserFrameOverride) Frame {
	if override.ForceLongTerm {
		frame = frame.
			withNonReference(false).
			withLongTerm(true).
			withLongTermIndex(override.LongTermIndex).
			withTemporalID(0)
		cache.restartPattern()
	}
	if override.ForceTemporalID {
		frame = frame.withTemporalID(override.TemporalID)
	}
	if override.ForceReference {
		frame = frame.withSelector(override.Selector, override.SelectorArg)
	}
	if override.ForceNonReference {
		frame = frame.withNonReference(true).withLongTerm(false)
	}
	return frame.withFlags(FlagOverridden)
}

// Snapshot lists the frames currently stored,
// long-term first, then short-term most-recent-first.
func (e *Engine) Snapshot() []Frame { return e.cache.snapshot() }

// Status returns the engine's cursors.
func (e *Engine) Status() Status { return e.cache.status() }

// Stash copies the buffer state so that a speculative
// [Engine.Advance] can be undone with [Engine.Rollback].
func (e *Engine) Stash() *Checkpoint {
	return &Checkpoint{cache: e.cache.clone()}
}

// Rollback restores the buffer state saved by [Engine.Stash],
// discarding every decision made since.
// Pending overrides, the intra period and header requests are kept.
func (e *Engine) Rollback(checkpoint *Checkpoint) error {
	if checkpoint == nil || checkpoint.cache == nil {
		return ErrNoCheckpoint
	}
	e.cache = checkpoint.cache.clone()
	if e.history != nil {
		for _, frame := range e.history.Keys() {
			if frame > e.cache.frameCount {
				e.history.Remove(frame)
			}
		}
	}
	e.logger.Debug("rolled back", slog.Int("frame", e.cache.frameCount))
	return nil
}

// History returns the most recent decisions, oldest first.
func (e *Engine) History() []Decision {
	if e.history == nil {
		return nil
	}
	decisions := e.history.Values()
	slices.SortFunc(decisions, func(a, b Decision) int {
		return a.FrameCount - b.FrameCount
	})
	return decisions
}

// LogValue summarizes d for structured logs.
func (d Decision) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", d.FrameCount),
		slog.Any("current", d.Current),
		slog.Any("reference", d.Reference),
		slog.Int("stored", len(d.After)),
	)
}
