package service

import (
	"context"

	"transitplan/internal/core/calendar"
	"transitplan/internal/services/planning/domain"
)

// MonthlyReport lists every active driver's worked and free days in a month
func (s *Svc) MonthlyReport(ctx context.Context, in domain.ReportQuery) (domain.MonthlyReport, error) {
	from, to := calendar.MonthBounds(in.Month, in.Year)
	drivers, err := s.Repo.Drivers(ctx)
	if err != nil {
		return domain.MonthlyReport{}, err
	}
	rows, err := s.Repo.AssignmentsBetween(ctx, from, to)
	if err != nil {
		return domain.MonthlyReport{}, err
	}

	work := map[int64][]domain.ReportDay{}
	for _, r := range rows {
		work[r.DriverID] = append(work[r.DriverID], domain.ReportDay{
			Date:        r.Date.Format(calendar.DateLayout),
			LineID:      r.LineID,
			DutyName:    r.DutyName,
			ShiftNumber: r.ShiftNumber,
		})
	}

	days := calendar.DaysIn(in.Month, in.Year)
	out := domain.MonthlyReport{Month: in.Month, Year: in.Year, Days: days, Drivers: make([]domain.DriverReport, 0, len(drivers))}
	for _, d := range drivers {
		worked := work[d.ID]
		if worked == nil {
			worked = []domain.ReportDay{}
		}
		busy := make(map[string]bool, len(worked))
		for _, w := range worked {
			busy[w.Date] = true
		}
		free := make([]string, 0, days-len(busy))
		for day := 1; day <= days; day++ {
			key := calendar.Date(in.Year, in.Month, day).Format(calendar.DateLayout)
			if !busy[key] {
				free = append(free, key)
			}
		}
		out.Drivers = append(out.Drivers, domain.DriverReport{
			Driver:       toDriver(d),
			WorkDays:     worked,
			FreeDays:     free,
			WorkDayCount: len(busy),
			FreeDayCount: len(free),
		})
	}
	return out, nil
}
