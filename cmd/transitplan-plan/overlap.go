package main

import (
	"github.com/spf13/cobra"

	"transitplan/internal/core/timerange"
)

type overlapResult struct {
	First    string `json:"first"`
	Second   string `json:"second"`
	Overlaps bool   `json:"overlaps"`
}

func newOverlapCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "overlap START1 END1 START2 END2",
		Short:   "Check whether two HH:MM shift windows overlap",
		Example: "  transitplan-plan overlap 22:00 02:00 00:30 06:00",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := timerange.ParseRange(args[0], args[1])
			if err != nil {
				return err
			}
			b, err := timerange.ParseRange(args[2], args[3])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), overlapResult{
				First:    a.String(),
				Second:   b.String(),
				Overlaps: a.Overlaps(b),
			})
		},
	}
}
