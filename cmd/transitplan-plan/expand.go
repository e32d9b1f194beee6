package main

import (
	"github.com/spf13/cobra"

	"transitplan/internal/core/calendar"
	"transitplan/internal/platform/net/http/bind"
	"transitplan/internal/services/planning/domain"
)

func newExpandCmd() *cobra.Command {
	var in domain.MonthlyInput
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "List the days a monthly pattern produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// expand does not touch a driver; any positive id passes validation
			if in.DriverID == 0 {
				in.DriverID = 1
			}
			days, err := expandPattern(in)
			if err != nil {
				return err
			}
			out := make([]domain.ExpandedDay, 0, len(days))
			for _, d := range days {
				out = append(out, domain.ExpandedDay{
					Date:        d.Key(),
					Weekday:     int(d.Weekday()),
					DutyName:    d.Duty,
					ShiftNumber: d.Shift,
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	patternFlags(cmd, &in)
	return cmd
}

func expandPattern(in domain.MonthlyInput) ([]calendar.Day, error) {
	if err := bind.Validate(in); err != nil {
		return nil, err
	}
	inc, err := calendar.NewWeekdaySet(in.IncludedWeekdays...)
	if err != nil {
		return nil, err
	}
	exc, err := calendar.NewWeekdaySet(in.ExcludedWeekdays...)
	if err != nil {
		return nil, err
	}
	return calendar.Expand(calendar.Pattern{
		Month:        in.Month,
		Year:         in.Year,
		LineID:       in.LineID,
		Duty:         in.DutyName,
		Shift:        in.ShiftNumber,
		DriverID:     in.DriverID,
		Included:     inc,
		Excluded:     exc,
		SaturdayDuty: in.SaturdayDutyName,
		SundayDuty:   in.SundayDutyName,
	})
}
