package encrefs_test

import (
	"testing"

	"github.com/djdv/go-encrefs"
)

func BenchmarkEngine(b *testing.B) {
	b.Run("Configure", benchConfigure)
	for _, name := range encrefs.Presets() {
		b.Run("Advance/"+name, newBenchAdvance(name))
	}
}

func benchConfigure(b *testing.B) {
	config := mustPreset(b, "tsvc4")
	engine, err := encrefs.New()
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if err := engine.Configure(config); err != nil {
			b.Fatal(err)
		}
	}
}

func newBenchAdvance(preset string) func(b *testing.B) {
	return func(b *testing.B) {
		const intraPeriod = 120 // Long enough for several long-term cycles.
		engine := newPresetEngine(b, preset,
			encrefs.WithIntraPeriod(intraPeriod),
			encrefs.WithHistory(0),
		)
		b.ReportAllocs()
		for b.Loop() {
			if _, err := engine.Advance(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
