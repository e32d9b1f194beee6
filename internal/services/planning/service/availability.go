package service

import (
	"context"
	"fmt"
	"strings"

	"transitplan/internal/core/availability"
	"transitplan/internal/core/calendar"
	"transitplan/internal/core/timerange"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/logger"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

// Availability classifies every active driver for the requested duty shift
func (s *Svc) Availability(ctx context.Context, in domain.AvailabilityQuery) (domain.AvailabilityResult, error) {
	res, err := s.availability(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			outcome = "not_found"
		}
	}
	s.metrics.Availability(outcome)
	return res, err
}

func (s *Svc) availability(ctx context.Context, in domain.AvailabilityQuery) (domain.AvailabilityResult, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	weekday := int(date.Weekday())

	chain := s.chain.Clone()
	for _, id := range in.DisabledFilters {
		id = strings.TrimSpace(id)
		if err := chain.SetEnabled(id, false); err != nil {
			return domain.AvailabilityResult{}, perr.WithField(perr.InvalidArgf("unknown filter %q", id), "disabledFilters")
		}
	}

	shift, err := s.Repo.ShiftByDutyID(ctx, in.DutyID, in.ShiftNumber, weekday)
	if err != nil {
		return domain.AvailabilityResult{}, shiftLookupErr(err, fmt.Sprintf("duty %d", in.DutyID), in.ShiftNumber, date)
	}
	if shift.LineID != in.LineID {
		return domain.AvailabilityResult{}, perr.WithField(perr.InvalidArgf("duty %d does not belong to line %s", in.DutyID, in.LineID), "dutyId")
	}
	window, err := timerange.ParseRange(shift.StartTime, shift.EndTime)
	if err != nil {
		return domain.AvailabilityResult{}, perr.Internalf("duty %s shift %d has a malformed window: %v", shift.DutyName, shift.ShiftNumber, err)
	}

	drivers, err := s.Repo.Drivers(ctx)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	assigned, err := s.Repo.AssignmentsOn(ctx, date)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	defaults, err := s.Repo.Defaults(ctx, shift.DutyName)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	scheduled := scheduledByDriver(ctx, assigned)
	recs := recommendations(defaults, shift.ShiftNumber, weekday)

	pool := make([]availability.Candidate, 0, len(drivers))
	for _, d := range drivers {
		rec, ok := recs[d.ID]
		if !ok {
			rec = availability.NoDefault
		}
		if in.OnlyRecommended && !rec.HasDefault {
			continue
		}
		pool = append(pool, availability.Candidate{
			ID:             d.ID,
			FirstName:      d.FirstName,
			LastName:       d.LastName,
			Scheduled:      scheduled[d.ID],
			Recommendation: &rec,
		})
	}

	req := availability.Request{LineID: shift.LineID, Duty: shift.DutyName, ShiftNumber: shift.ShiftNumber, Window: window}
	result := chain.Classify(pool, req)

	out := domain.AvailabilityResult{
		RequestedShift: domain.RequestedShift{
			LineID:      shift.LineID,
			DutyID:      shift.DutyID,
			DutyName:    shift.DutyName,
			ShiftNumber: shift.ShiftNumber,
			Date:        date.Format(calendar.DateLayout),
			StartTime:   timerange.Format(window.Start),
			EndTime:     timerange.Format(window.End),
			Duration:    timerange.FormatDuration(window.Minutes()),
		},
		Filters:   chain.Filters(),
		Drivers:   make([]domain.DriverAvailability, 0, len(pool)),
		FreeCount: len(result.Free),
		BusyCount: len(result.Busy),
	}
	for _, c := range result.All() {
		out.Drivers = append(out.Drivers, toDriverAvailability(c))
	}
	return out, nil
}

func toDriverAvailability(c availability.Classified) domain.DriverAvailability {
	reasons := c.Reasons()
	if reasons == nil {
		reasons = []string{}
	}
	outcomes := c.Outcomes
	if outcomes == nil {
		outcomes = []availability.FilterOutcome{}
	}
	shifts := make([]domain.ScheduledShift, 0, len(c.Scheduled))
	for _, sh := range c.Scheduled {
		shifts = append(shifts, domain.ScheduledShift{
			LineID:      sh.LineID,
			DutyName:    sh.Duty,
			ShiftNumber: sh.ShiftNumber,
			StartTime:   timerange.Format(sh.Window.Start),
			EndTime:     timerange.Format(sh.Window.End),
			Duration:    timerange.FormatDuration(sh.Window.Minutes()),
		})
	}
	rec := availability.NoDefault
	if c.Recommendation != nil {
		rec = *c.Recommendation
	}
	return domain.DriverAvailability{
		Driver:          toDriver(repo.DriverRow{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}),
		Free:            c.Free,
		Reasons:         reasons,
		Filters:         outcomes,
		ScheduledShifts: shifts,
		Recommendation:  rec,
	}
}

type slotKey struct {
	driver int64
	line   string
	duty   string
	shift  int
}

// scheduledByDriver groups a day's assignments into one shift per (line, duty, shift)
// a slot spanning several rows takes the earliest start and the latest end
func scheduledByDriver(ctx context.Context, rows []repo.AssignmentRow) map[int64][]availability.Shift {
	out := map[int64][]availability.Shift{}
	at := map[slotKey]int{}
	for _, r := range rows {
		rng, err := timerange.ParseRange(r.StartTime, r.EndTime)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Int64("assignment", r.ID).Msg("skipping assignment with malformed window")
			continue
		}
		k := slotKey{r.DriverID, r.LineID, r.DutyName, r.ShiftNumber}
		if i, ok := at[k]; ok {
			cur := &out[r.DriverID][i]
			if rng.Start < cur.Window.Start {
				cur.Window.Start = rng.Start
			}
			if rng.End > cur.Window.End {
				cur.Window.End = rng.End
			}
			continue
		}
		at[k] = len(out[r.DriverID])
		out[r.DriverID] = append(out[r.DriverID], availability.Shift{
			LineID:      r.LineID,
			Duty:        r.DutyName,
			ShiftNumber: r.ShiftNumber,
			Window:      rng,
		})
	}
	return out
}

// match levels, most specific first
const (
	matchShiftWeekday = iota
	matchShift
	matchWeekday
	matchName
	matchNone
)

func matchLevel(d repo.DefaultRow, shift, weekday int) int {
	if d.ShiftNumber != nil && *d.ShiftNumber != shift {
		return matchNone
	}
	if d.Weekday != nil && *d.Weekday != weekday {
		return matchNone
	}
	switch {
	case d.ShiftNumber != nil && d.Weekday != nil:
		return matchShiftWeekday
	case d.ShiftNumber != nil:
		return matchShift
	case d.Weekday != nil:
		return matchWeekday
	}
	return matchName
}

// recommendations picks each driver's most specific default
// rows arrive ordered by priority, confidence and usage so the first row per level wins
func recommendations(rows []repo.DefaultRow, shift, weekday int) map[int64]availability.Recommendation {
	type pick struct {
		level int
		row   repo.DefaultRow
	}
	best := map[int64]pick{}
	for _, d := range rows {
		lvl := matchLevel(d, shift, weekday)
		if lvl == matchNone {
			continue
		}
		if cur, ok := best[d.DriverID]; ok && cur.level <= lvl {
			continue
		}
		best[d.DriverID] = pick{level: lvl, row: d}
	}

	out := make(map[int64]availability.Recommendation, len(best))
	for id, p := range best {
		out[id] = availability.Recommendation{
			HasDefault:      true,
			UsageCount:      p.row.UsageCount,
			UsagePercentage: p.row.UsagePercentage,
			ConfidenceScore: p.row.ConfidenceScore,
			Priority:        p.row.Priority,
			Note:            p.row.Note,
		}
	}
	return out
}
