package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSizeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Show the buffer capacity the configuration needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}
			info, err := engine.Capacity()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, info)
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Cache capacity", strconv.Itoa(info.CacheCapacity)},
				{"Long-term frames", strconv.Itoa(info.MaxLongTermCount)},
				{"Short-term frames", strconv.Itoa(info.MaxShortTermCount)},
				{"Long-term indices", strconv.Itoa(info.MaxLongTermIndex)},
				{"Highest temporal layer", strconv.Itoa(info.MaxTemporalID)},
				{"Long-term period", strconv.Itoa(info.LongTermPeriodHint)},
				{"Short-term period", strconv.Itoa(info.ShortTermPeriodHint)},
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Property", "Value"}, rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit capacity as JSON")
	return cmd
}
