package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/djdv/go-encrefs"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in reference presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := encrefs.Presets()
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				row, err := presetRow(name)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Preset", "Short-term", "Long-term", "Capacity"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func presetRow(name string) ([]string, error) {
	refs, err := encrefs.Preset(name)
	if err != nil {
		return nil, err
	}
	engine, err := encrefs.New()
	if err != nil {
		return nil, err
	}
	if err := engine.Configure(refs); err != nil {
		return nil, fmt.Errorf("preset %s: %w", name, err)
	}
	info, err := engine.Capacity()
	if err != nil {
		return nil, err
	}
	return []string{
		name,
		strconv.Itoa(len(refs.ShortTerm)),
		strconv.Itoa(len(refs.LongTerm)),
		strconv.Itoa(info.CacheCapacity),
	}, nil
}
