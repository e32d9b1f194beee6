package availability

import (
	"transitplan/internal/core/timerange"
)

// Built in filter ids
const (
	FilterTimeOverlap   = "time-overlap"
	FilterOneDutyPerDay = "one-duty-per-day"
)

// TimeOverlap fails a driver whose scheduled shift overlaps the requested window
// the first overlapping shift names the conflict
func TimeOverlap() Filter {
	return Filter{
		ID:          FilterTimeOverlap,
		Name:        "Time overlap",
		Description: "Driver already holds a shift overlapping the requested time window",
		Enabled:     true,
		Check: func(c Candidate, req Request) Outcome {
			for _, s := range c.Scheduled {
				if timerange.Overlaps(req.Window.Start, req.Window.End, s.Window.Start, s.Window.End) {
					return Fail("overlaps line %s, duty %s, shift %d (%s - %s)",
						s.LineID, s.Duty, s.ShiftNumber,
						timerange.Format(s.Window.Start), timerange.Format(s.Window.End))
				}
			}
			return Pass()
		},
	}
}

// OneDutyPerDay fails a driver holding any duty on the target day
func OneDutyPerDay() Filter {
	return Filter{
		ID:          FilterOneDutyPerDay,
		Name:        "One duty per day",
		Description: "Driver already holds a duty on the selected date",
		Enabled:     false,
		Check: func(c Candidate, _ Request) Outcome {
			if len(c.Scheduled) == 0 {
				return Pass()
			}
			s := c.Scheduled[0]
			return Fail("already assigned to line %s, duty %s, shift %d", s.LineID, s.Duty, s.ShiftNumber)
		},
	}
}
