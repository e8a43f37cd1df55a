package encrefs_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/djdv/go-encrefs"
)

func TestEngine(t *testing.T) {
	t.Run("previous short-term", previousShortTerm)
	t.Run("periodic long-term", periodicLongTerm)
	t.Run("keep existing cache", keepExistingCache)
	t.Run("snapshot continuity", snapshotContinuity)
	t.Run("gop boundaries", gopBoundaries)
	t.Run("gop header updates", gopHeaderUpdates)
	t.Run("intra period change", intraPeriodChange)
	t.Run("intra only", intraOnly)
	t.Run("non-reference frames", nonReferenceFrames)
	t.Run("stash and rollback", stashRollback)
	t.Run("long-term keys", longTermKeys)
	t.Run("capacity bounds", capacityBounds)
	t.Run("presets", presetsRun)
	t.Run("header updates", headerUpdates)
	t.Run("history", history)
	t.Run("diagnostics", diagnostics)
}

func previousShortTerm(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, encrefs.ReferenceConfig{
		ShortTerm: []encrefs.ShortTermTemplate{
			{Selector: encrefs.SelectPreviousShortTerm, Repeat: 1},
		},
	})
	info := mustCapacity(t, engine)
	checkValue(t, info.MaxShortTermCount, 1, "max short-term count")
	checkValue(t, info.CacheCapacity, 1, "cache capacity")

	decisions := advanceN(t, engine, 24)
	first := decisions[0]
	if !first.Current.IDR() || first.Reference.Valid() {
		t.Fatalf("first frame must be an unreferenced IDR but is %v -> %v",
			first.Current, first.Reference)
	}
	for _, decision := range decisions[1:] {
		var (
			got  = decision.Reference.SequenceIndex()
			want = decision.Current.SequenceIndex() - 1
		)
		checkValue(t, got, want, "reference of "+decision.Current.String())
	}
}

func periodicLongTerm(t *testing.T) {
	t.Parallel()
	const period = 4
	engine := newEngine(t, encrefs.ReferenceConfig{
		LongTerm: []encrefs.LongTermTemplate{
			{Period: period, LongTermIndex: 0},
		},
		ShortTerm: []encrefs.ShortTermTemplate{
			{Selector: encrefs.SelectPreviousReference},
		},
	})
	checkValue(t, mustCapacity(t, engine).CacheCapacity, 2, "cache capacity")
	for _, decision := range advanceN(t, engine, 25) {
		var (
			current = decision.Current
			seq     = current.SequenceIndex()
		)
		checkValue(t, current.LongTerm(), seq%period == 0,
			"long-term marking of "+current.String())
		longTerm := longTermFrames(decision.After)
		if len(longTerm) != 1 {
			t.Fatalf("expected one long-term frame after %v but got: %v",
				current, decision.After)
		}
		var (
			held = longTerm[0]
			want = seq - seq%period
		)
		checkValue(t, held.LongTermIndex(), 0, "long-term index")
		checkValue(t, held.SequenceIndex(), want, "long-term occupant after "+current.String())
	}
}

func keepExistingCache(t *testing.T) {
	t.Parallel()
	config := encrefs.ReferenceConfig{
		KeepExistingCache: true,
		ShortTerm: []encrefs.ShortTermTemplate{
			{Selector: encrefs.SelectPreviousReference},
		},
	}
	engine := newEngine(t, config)
	checkValue(t, engine.HeaderUpdate(), true, "header update after first configure")
	advanceN(t, engine, 3)
	before := engine.Snapshot()
	if err := engine.Configure(config); err != nil {
		t.Fatal(err)
	}
	checkValue(t, engine.HeaderUpdate(), false, "header update after unchanged configure")
	checkValue(t, engine.Status().SequenceIndex, 3, "sequence index after reconfigure")
	checkFrames(t, engine.Snapshot(), before, "stored frames after reconfigure")

	decision := mustAdvance(t, engine)
	if decision.Current.IDR() {
		t.Fatalf("reconfigure with kept cache must not start a GOP: %v", decision.Current)
	}
	checkValue(t, decision.Current.SequenceIndex(), 3, "sequence index")
	checkValue(t, decision.Reference.SequenceIndex(), 2, "reference sequence index")

	config.KeepExistingCache = false
	if err := engine.Configure(config); err != nil {
		t.Fatal(err)
	}
	checkValue(t, engine.HeaderUpdate(), true, "header update after reset")
	if decision := mustAdvance(t, engine); !decision.Current.IDR() {
		t.Fatalf("reconfigure without kept cache must start a GOP: %v", decision.Current)
	}
}

func snapshotContinuity(t *testing.T) {
	for _, test := range []struct {
		name        string
		intraPeriod int
	}{
		{"single gop", 0},
		{"gop of 8", 8},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			engine := newPresetEngine(t, "tsvc4", encrefs.WithIntraPeriod(test.intraPeriod))
			decisions := advanceN(t, engine, 50)
			for i, next := range decisions[1:] {
				if next.Current.IDR() {
					if len(next.Before) != 0 {
						t.Fatalf("GOP must start empty but holds: %v", next.Before)
					}
					continue
				}
				checkFrames(t, next.Before, decisions[i].After,
					"snapshot chain at "+next.Current.String())
			}
			checkReferencesStored(t, decisions)
		})
	}
}

func gopBoundaries(t *testing.T) {
	t.Parallel()
	const intraPeriod = 4
	engine := newPresetEngine(t, "prev", encrefs.WithIntraPeriod(intraPeriod))
	for i, decision := range advanceN(t, engine, 9) {
		var (
			current = decision.Current
			want    = i%intraPeriod == 0
		)
		checkValue(t, current.IDR(), want, "IDR marking of frame "+current.String())
		checkValue(t, current.SequenceIndex(), i%intraPeriod, "sequence index")
		checkValue(t, decision.FrameCount, i+1, "frame count")
	}
	checkValue(t, engine.Status().GOPCount, 2, "GOP count")

	if err := engine.SetOverride(encrefs.UserFrameOverride{ForceIDR: true}); err != nil {
		t.Fatal(err)
	}
	forced := mustAdvance(t, engine)
	if !forced.Current.IDR() || !forced.Current.Has(encrefs.FlagOverridden) {
		t.Fatalf("expected a forced IDR but got: %v", forced.Current)
	}
	if len(forced.Before) != 0 {
		t.Fatalf("forced IDR must start empty but holds: %v", forced.Before)
	}
	checkValue(t, engine.Status().GOPCount, 3, "GOP count after forced IDR")
	if next := mustAdvance(t, engine); next.Current.Has(encrefs.FlagOverridden) {
		t.Fatalf("override must apply to one frame only: %v", next.Current)
	}
}

func gopHeaderUpdates(t *testing.T) {
	t.Parallel()
	const intraPeriod = 4
	engine := newPresetEngine(t, "prev", encrefs.WithIntraPeriod(intraPeriod))
	checkValue(t, engine.HeaderUpdate(), true, "header update after configure")
	advanceN(t, engine, intraPeriod)
	checkValue(t, engine.HeaderUpdate(), false, "header update within a GOP")
	mustAdvance(t, engine)
	checkValue(t, engine.HeaderUpdate(), true, "header update at a GOP boundary")
	mustAdvance(t, engine)
	checkValue(t, engine.HeaderUpdate(), false, "header update after the boundary")
	if err := engine.SetOverride(encrefs.UserFrameOverride{ForceIDR: true}); err != nil {
		t.Fatal(err)
	}
	mustAdvance(t, engine)
	checkValue(t, engine.HeaderUpdate(), true, "header update after a forced IDR")
}

func intraPeriodChange(t *testing.T) {
	t.Parallel()
	engine := newPresetEngine(t, "prev")
	engine.SetIntraPeriod(100)
	mustAdvance(t, engine)
	checkValue(t, engine.Status().GOPCount, 0, "GOP count after period set before the first frame")
	advanceN(t, engine, 3)
	engine.SetIntraPeriod(100)
	if decision := mustAdvance(t, engine); decision.Current.IDR() {
		t.Fatalf("unchanged period must not start a GOP: %v", decision.Current)
	}
	engine.SetIntraPeriod(50)
	if decision := mustAdvance(t, engine); !decision.Current.IDR() {
		t.Fatalf("changed period must start a GOP: %v", decision.Current)
	}
}

func intraOnly(t *testing.T) {
	t.Parallel()
	engine := newPresetEngine(t, "tsvc3", encrefs.WithIntraPeriod(1))
	for _, decision := range advanceN(t, engine, 8) {
		current := decision.Current
		if !current.IDR() || decision.Reference.Valid() {
			t.Fatalf("expected an unreferenced IDR but got: %v -> %v",
				current, decision.Reference)
		}
		if !current.Has(encrefs.FlagNoReconstruction) {
			t.Fatalf("intra only frames need no reconstruction: %v", current)
		}
		checkFrames(t, decision.After, []encrefs.Frame{current}, "buffer")
	}
}

func nonReferenceFrames(t *testing.T) {
	t.Parallel()
	engine := newPresetEngine(t, "tsvc2")
	for _, decision := range advanceN(t, engine, 12) {
		current := decision.Current
		checkValue(t, current.NonReference(), current.TemporalID() == 1,
			"non-reference marking of "+current.String())
		checkValue(t, current.Has(encrefs.FlagNoReconstruction), current.NonReference(),
			"reconstruction flag of "+current.String())
		if current.NonReference() {
			checkFrames(t, decision.After, decision.Before,
				"buffer around "+current.String())
		}
	}

	if err := engine.SetOverride(encrefs.UserFrameOverride{ForceNonReference: true}); err != nil {
		t.Fatal(err)
	}
	forced := mustAdvance(t, engine)
	if !forced.Current.NonReference() {
		t.Fatalf("expected a forced non-reference frame: %v", forced.Current)
	}
	checkFrames(t, forced.After, forced.Before, "buffer around forced frame")
}

func stashRollback(t *testing.T) {
	t.Parallel()
	engine := newPresetEngine(t, "smartp", encrefs.WithIntraPeriod(60))
	advanceN(t, engine, 5)
	checkpoint := engine.Stash()
	first := advanceN(t, engine, 40)
	if err := engine.Rollback(checkpoint); err != nil {
		t.Fatal(err)
	}
	checkValue(t, engine.Status().FrameCount, 5, "frame count after rollback")
	for _, decision := range engine.History() {
		if decision.FrameCount > 5 {
			t.Fatalf("history retained a rolled back decision: %d", decision.FrameCount)
		}
	}
	second := advanceN(t, engine, 40)
	for i := range first {
		checkDecision(t, second[i], first[i], "replayed decision")
	}
	if err := engine.Rollback(checkpoint); err != nil {
		t.Fatalf("checkpoint must be reusable: %v", err)
	}
	checkError(t, engine.Rollback(nil), encrefs.ErrNoCheckpoint, "nil checkpoint")
}

func longTermKeys(t *testing.T) {
	t.Parallel()
	engine := newEngine(t, encrefs.ReferenceConfig{
		LongTerm: []encrefs.LongTermTemplate{
			{Period: 3, LongTermIndex: 1},
			{InitialDelay: 1, Period: 3, LongTermIndex: 2},
		},
		ShortTerm: []encrefs.ShortTermTemplate{
			{Selector: encrefs.SelectPreviousReference},
		},
	})
	for i, decision := range advanceN(t, engine, 30) {
		current := decision.Current
		switch i % 3 {
		case 0:
			checkValue(t, current.LongTermIndex(), 1, "long-term index of "+current.String())
		case 1:
			checkValue(t, current.LongTermIndex(), 2, "long-term index of "+current.String())
		default:
			checkValue(t, current.LongTerm(), false, "long-term marking of "+current.String())
		}
		var seen [encrefs.MaxLongTermIndex]bool
		for _, frame := range longTermFrames(decision.After) {
			index := frame.LongTermIndex()
			if seen[index] {
				t.Fatalf("long-term index %d stored twice: %v", index, decision.After)
			}
			seen[index] = true
		}
	}
}

func capacityBounds(t *testing.T) {
	for _, name := range encrefs.Presets() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			engine := newPresetEngine(t, name)
			info := mustCapacity(t, engine)
			for _, decision := range advanceN(t, engine, 200) {
				if len(decision.After) > info.CacheCapacity {
					t.Fatalf("buffer exceeds capacity %d: %v",
						info.CacheCapacity, decision.After)
				}
				shortTerm := len(decision.After) - len(longTermFrames(decision.After))
				if shortTerm > info.MaxShortTermCount {
					t.Fatalf("short-term region exceeds %d: %v",
						info.MaxShortTermCount, decision.After)
				}
			}
		})
	}
}

func presetsRun(t *testing.T) {
	for _, test := range []struct {
		name       string
		shortTerm  int
		capacity   int
		temporalID int
	}{
		{"prev", 1, 1, 0},
		{"smartp", 1, 2, 0},
		{"tsvc2", 1, 1, 1},
		{"tsvc3", 2, 2, 2},
		{"tsvc4", 4, 4, 3},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			engine := newPresetEngine(t, test.name, encrefs.WithIntraPeriod(64))
			info := mustCapacity(t, engine)
			checkValue(t, info.MaxShortTermCount, test.shortTerm, "max short-term count")
			checkValue(t, info.CacheCapacity, test.capacity, "cache capacity")
			checkValue(t, info.MaxTemporalID, test.temporalID, "max temporal id")
			advanceN(t, engine, 300)
		})
	}
	if _, err := encrefs.Preset("missing"); !errors.Is(err, encrefs.ErrInvalidConfig) {
		t.Fatalf("expected unknown preset to be invalid but got: %v", err)
	}
}

func headerUpdates(t *testing.T) {
	t.Parallel()
	engine, err := encrefs.New()
	if err != nil {
		t.Fatal(err)
	}
	checkValue(t, engine.HeaderUpdate(), false, "header update before configure")
	configure := func(name string, keep bool) {
		t.Helper()
		config := mustPreset(t, name)
		config.KeepExistingCache = keep
		if err := engine.Configure(config); err != nil {
			t.Fatal(err)
		}
	}
	configure("prev", false)
	checkValue(t, engine.HeaderUpdate(), true, "header update after configure")
	checkValue(t, engine.HeaderUpdate(), false, "header update after read")
	advanceN(t, engine, 6)

	configure("tsvc4", true)
	checkValue(t, engine.HeaderUpdate(), true, "header update after growth")
	advanceN(t, engine, 6)

	configure("prev", true)
	checkValue(t, engine.HeaderUpdate(), false, "header update after shrink")
	if got := len(engine.Snapshot()); got > 1 {
		t.Fatalf("shrunk buffer still holds %d frames", got)
	}
	advanceN(t, engine, 6)
}

func history(t *testing.T) {
	t.Parallel()
	const size = 4
	engine := newPresetEngine(t, "prev", encrefs.WithHistory(size))
	advanceN(t, engine, 10)
	got := engine.History()
	checkValue(t, len(got), size, "history length")
	for i, decision := range got {
		checkValue(t, decision.FrameCount, 10-size+1+i, "history order")
	}

	disabled := newPresetEngine(t, "prev", encrefs.WithHistory(0))
	advanceN(t, disabled, 3)
	if got := disabled.History(); got != nil {
		t.Fatalf("disabled history returned: %v", got)
	}
	if _, err := encrefs.New(encrefs.WithHistory(-1)); err == nil {
		t.Fatal("expected negative history size to be rejected")
	}
}

func diagnostics(t *testing.T) {
	t.Parallel()
	engine := newPresetEngine(t, "smartp")
	advanceN(t, engine, 3)
	state := engine.Diagnostics()
	checkValue(t, state.Status.FrameCount, 3, "frame count")
	checkValue(t, len(state.LongTerm), encrefs.MaxLongTermCount, "long-term slots")
	checkValue(t, len(state.TemporalLayers), encrefs.MaxTemporalLayers, "temporal layer table")
	checkValue(t, len(state.Counters), 1, "counters")
	checkValue(t, len(state.History), 3, "history")
	checkValue(t, state.Counters[0].Count, 3, "counter position")
	checkValue(t, state.Capacity.CacheCapacity, 2, "capacity")
}

func newEngine(tb testing.TB, config encrefs.ReferenceConfig, options ...encrefs.Option) *encrefs.Engine {
	tb.Helper()
	engine, err := encrefs.New(options...)
	if err != nil {
		tb.Fatal(err)
	}
	if err := engine.Configure(config); err != nil {
		tb.Fatal(err)
	}
	return engine
}

func newPresetEngine(tb testing.TB, name string, options ...encrefs.Option) *encrefs.Engine {
	tb.Helper()
	return newEngine(tb, mustPreset(tb, name), options...)
}

func mustPreset(tb testing.TB, name string) encrefs.ReferenceConfig {
	tb.Helper()
	config, err := encrefs.Preset(name)
	if err != nil {
		tb.Fatal(err)
	}
	return config
}

func mustCapacity(tb testing.TB, engine *encrefs.Engine) encrefs.CapacityInfo {
	tb.Helper()
	info, err := engine.Capacity()
	if err != nil {
		tb.Fatal(err)
	}
	return info
}

func mustAdvance(tb testing.TB, engine *encrefs.Engine) encrefs.Decision {
	tb.Helper()
	decision, err := engine.Advance()
	if err != nil {
		tb.Fatal(err)
	}
	return decision
}

func advanceN(tb testing.TB, engine *encrefs.Engine, count int) []encrefs.Decision {
	tb.Helper()
	decisions := make([]encrefs.Decision, count)
	for i := range decisions {
		decisions[i] = mustAdvance(tb, engine)
	}
	return decisions
}

func longTermFrames(frames []encrefs.Frame) []encrefs.Frame {
	var longTerm []encrefs.Frame
	for _, frame := range frames {
		if frame.LongTerm() {
			longTerm = append(longTerm, frame)
		}
	}
	return longTerm
}

func checkValue[Value comparable](tb testing.TB, got, want Value, msg string) {
	tb.Helper()
	if got == want {
		return
	}
	tb.Fatalf(
		"unexpected %s"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		msg, got, want)
}

func checkFrames(tb testing.TB, got, want []encrefs.Frame, msg string) {
	tb.Helper()
	if slices.Equal(got, want) {
		return
	}
	tb.Fatalf(
		"unexpected %s"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		msg, got, want)
}

func checkDecision(tb testing.TB, got, want encrefs.Decision, msg string) {
	tb.Helper()
	checkValue(tb, got.FrameCount, want.FrameCount, msg+" frame count")
	checkValue(tb, got.Current, want.Current, msg+" current frame")
	checkValue(tb, got.Reference, want.Reference, msg+" reference")
	checkFrames(tb, got.Before, want.Before, msg+" before")
	checkFrames(tb, got.After, want.After, msg+" after")
}

func checkError(tb testing.TB, err, target error, msg string) {
	tb.Helper()
	if errors.Is(err, target) {
		return
	}
	tb.Fatalf(
		"unexpected error for %s"+
			"\n\tgot: %v"+
			"\n\twant: %v",
		msg, err, target)
}
