package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"transitplan/internal/core/version"
	"transitplan/internal/services/planning/domain"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "transitplan-plan",
		Short:         "Driver duty planning tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExpandCmd(), newOverlapCmd(), newCommitCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), version.Info())
		},
	}
}

// patternFlags binds the flags shared by expand and commit
func patternFlags(cmd *cobra.Command, in *domain.MonthlyInput) {
	f := cmd.Flags()
	f.IntVar(&in.Month, "month", 0, "month 1..12")
	f.IntVar(&in.Year, "year", 0, "year")
	f.StringVar(&in.LineID, "line", "", "line id")
	f.StringVar(&in.DutyName, "duty", "", "duty name")
	f.IntVar(&in.ShiftNumber, "shift", 1, "shift number 1..3")
	f.Int64Var(&in.DriverID, "driver", 0, "driver id")
	f.IntSliceVar(&in.IncludedWeekdays, "include", []int{1, 2, 3, 4, 5}, "weekday codes to include, 0 is Sunday")
	f.IntSliceVar(&in.ExcludedWeekdays, "exclude", nil, "weekday codes to exclude")
	f.StringVar(&in.SaturdayDutyName, "saturday-duty", "", "duty used on saturdays")
	f.StringVar(&in.SundayDutyName, "sunday-duty", "", "duty used on sundays")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
