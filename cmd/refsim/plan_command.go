package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/djdv/go-encrefs"
)

type (
	planFlags struct {
		frames   int
		json     bool
		idrAt    []int
		nonRefAt []int
		retryAt  []int
		ltAt     []string
	}
	planEntry struct {
		encrefs.Decision
		Retried bool `json:"retried,omitempty"`
	}
	planReport struct {
		Capacity  encrefs.CapacityInfo `json:"capacity"`
		Decisions []planEntry          `json:"decisions"`
	}
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Decide references for a run of frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, ctx, &flags)
		},
	}
	cmd.Flags().IntVarP(&flags.frames, "frames", "n", 32, "Number of frames to decide")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Emit decisions as JSON")
	cmd.Flags().IntSliceVar(&flags.idrAt, "idr-at", nil, "Force an IDR frame at these frame numbers")
	cmd.Flags().IntSliceVar(&flags.nonRefAt, "nonref-at", nil, "Force non-reference frames at these frame numbers")
	cmd.Flags().IntSliceVar(&flags.retryAt, "retry-at", nil, "Decide these frames twice, rolling back the first attempt")
	cmd.Flags().StringSliceVar(&flags.ltAt, "lt-at", nil, "Force long-term frames, as frame:index pairs")
	return cmd
}

func runPlan(cmd *cobra.Command, ctx *commandContext, flags *planFlags) error {
	if flags.frames < 1 {
		return fmt.Errorf("--frames must be positive but is %d", flags.frames)
	}
	overrides, err := flags.overrides()
	if err != nil {
		return err
	}
	retries := make(map[int]bool, len(flags.retryAt))
	for _, frame := range flags.retryAt {
		retries[frame] = true
	}
	engine, _, err := ctx.newEngine(cmd)
	if err != nil {
		return err
	}
	capacity, err := engine.Capacity()
	if err != nil {
		return err
	}
	report := planReport{
		Capacity:  capacity,
		Decisions: make([]planEntry, 0, flags.frames),
	}
	for frame := 1; frame <= flags.frames; frame++ {
		override, forced := overrides[frame]
		var retried bool
		if retries[frame] {
			if err := tryFrame(engine, override, forced); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
			retried = true
		}
		if forced {
			if err := engine.SetOverride(override); err != nil {
				return fmt.Errorf("frame %d: %w", frame, err)
			}
		}
		decision, err := engine.Advance()
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		report.Decisions = append(report.Decisions, planEntry{
			Decision: decision,
			Retried:  retried,
		})
	}
	if flags.json {
		return writeJSON(cmd, report)
	}
	printPlan(cmd, report)
	return nil
}

// tryFrame decides the next frame speculatively and discards the result.
func tryFrame(engine *encrefs.Engine, override encrefs.UserFrameOverride, forced bool) error {
	checkpoint := engine.Stash()
	if forced {
		if err := engine.SetOverride(override); err != nil {
			return err
		}
	}
	if _, err := engine.Advance(); err != nil {
		return err
	}
	return engine.Rollback(checkpoint)
}

func (f *planFlags) overrides() (map[int]encrefs.UserFrameOverride, error) {
	overrides := make(map[int]encrefs.UserFrameOverride)
	for _, frame := range f.idrAt {
		override := overrides[frame]
		override.ForceIDR = true
		overrides[frame] = override
	}
	for _, frame := range f.nonRefAt {
		override := overrides[frame]
		override.ForceNonReference = true
		overrides[frame] = override
	}
	for _, pair := range f.ltAt {
		frame, index, err := parseLongTermPair(pair)
		if err != nil {
			return nil, err
		}
		override := overrides[frame]
		override.ForceLongTerm = true
		override.LongTermIndex = index
		overrides[frame] = override
	}
	return overrides, nil
}

func parseLongTermPair(pair string) (frame, index int, err error) {
	frameText, indexText, ok := strings.Cut(strings.TrimSpace(pair), ":")
	if !ok {
		return 0, 0, fmt.Errorf("--lt-at %q: expected frame:index", pair)
	}
	if frame, err = strconv.Atoi(frameText); err != nil {
		return 0, 0, fmt.Errorf("--lt-at %q: frame: %w", pair, err)
	}
	if index, err = strconv.Atoi(indexText); err != nil {
		return 0, 0, fmt.Errorf("--lt-at %q: index: %w", pair, err)
	}
	return frame, index, nil
}

func printPlan(cmd *cobra.Command, report planReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Capacity: %d (long-term %d, short-term %d)\n\n",
		report.Capacity.CacheCapacity,
		report.Capacity.MaxLongTermCount,
		report.Capacity.MaxShortTermCount,
	)
	headers := []string{"Frame", "Current", "Reference", "Buffer"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
	rows := make([][]string, 0, len(report.Decisions))
	for _, entry := range report.Decisions {
		frame := strconv.Itoa(entry.FrameCount)
		if entry.Retried {
			frame += "*"
		}
		rows = append(rows, []string{
			frame,
			entry.Current.String(),
			entry.Reference.String(),
			formatFrames(entry.After),
		})
	}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
}

func formatFrames(frames []encrefs.Frame) string {
	if len(frames) == 0 {
		return "-"
	}
	parts := make([]string, len(frames))
	for i, frame := range frames {
		parts[i] = frame.String()
	}
	return strings.Join(parts, " ")
}
