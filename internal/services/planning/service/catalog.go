package service

import (
	"context"
	"sort"
	"time"

	"transitplan/internal/core/availability"
	"transitplan/internal/core/calendar"
	perr "transitplan/internal/platform/errors"
	pstrings "transitplan/internal/platform/strings"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

// Lines returns active lines in numeric order
func (s *Svc) Lines(ctx context.Context) ([]domain.Line, error) {
	rows, err := s.Repo.Lines(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Line, 0, len(rows))
	for _, r := range rows {
		label := r.ID
		if r.Title != "" {
			label = r.ID + " - " + r.Title
		}
		out = append(out, domain.Line{ID: r.ID, Title: r.Title, Label: label})
	}
	return out, nil
}

// Duties returns the duties of a line running on the date's weekday with their shifts
func (s *Svc) Duties(ctx context.Context, in domain.DutiesQuery) ([]domain.Duty, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.DutiesOn(ctx, in.LineID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}

	var out []domain.Duty
	idx := map[string]int{}
	for _, r := range rows {
		i, ok := idx[r.DutyName]
		if !ok {
			i = len(out)
			idx[r.DutyName] = i
			out = append(out, domain.Duty{ID: r.DutyID, Name: r.DutyName, Shifts: []int{}})
		}
		out[i].Shifts = append(out[i].Shifts, r.ShiftNumber)
	}
	sort.SliceStable(out, func(i, j int) bool { return pstrings.NaturalLess(out[i].Name, out[j].Name) })
	if out == nil {
		out = []domain.Duty{}
	}
	return out, nil
}

// Drivers returns active drivers by last then first name
func (s *Svc) Drivers(ctx context.Context) ([]domain.Driver, error) {
	rows, err := s.Repo.Drivers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Driver, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDriver(r))
	}
	return out, nil
}

func toDriver(r repo.DriverRow) domain.Driver {
	return domain.Driver{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		FullName:  availability.Candidate{FirstName: r.FirstName, LastName: r.LastName}.FullName(),
	}
}

func parseDate(field, s string) (time.Time, error) {
	d, err := calendar.ParseDate(s)
	if err != nil {
		return time.Time{}, perr.WithField(perr.InvalidArgf("%s must be YYYY-MM-DD", field), field)
	}
	return d, nil
}
