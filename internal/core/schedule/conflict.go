package schedule

import (
	"context"
	"fmt"
	"time"

	"transitplan/internal/core/calendar"
)

// DetectConflicts returns the expanded dates on which the driver already holds an
// assignment of any line or duty
func DetectConflicts(ctx context.Context, cal Calendar, driverID int64, days []calendar.Day) (ConflictSet, error) {
	set := ConflictSet{ConflictDates: []string{}, TotalDays: len(days)}
	if len(days) == 0 {
		return set, nil
	}

	from, to := days[0].Date, days[0].Date
	for _, d := range days[1:] {
		if d.Date.Before(from) {
			from = d.Date
		}
		if d.Date.After(to) {
			to = d.Date
		}
	}

	taken, err := cal.AssignedDates(ctx, driverID, from, to)
	if err != nil {
		return ConflictSet{}, fmt.Errorf("schedule: load assignments for driver %d: %w", driverID, err)
	}
	busy := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		busy[t.In(time.UTC).Format(calendar.DateLayout)] = struct{}{}
	}

	for _, d := range days {
		if _, ok := busy[d.Key()]; ok {
			set.ConflictDates = append(set.ConflictDates, d.Key())
		}
	}
	set.ConflictCount = len(set.ConflictDates)
	return set, nil
}
