package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"transitplan/internal/core/calendar"
	"transitplan/internal/core/schedule"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/inflight"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/metrics"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

// Run outcomes recorded when no commit ran
const (
	outcomeConflict = "conflict"
	outcomeEmpty    = "empty"
)

// Expand previews the concrete days of a pattern and the driver's conflicts
func (s *Svc) Expand(ctx context.Context, in domain.MonthlyInput) (domain.ExpandResult, error) {
	plan, err := s.plan(in, 0)
	if err != nil {
		return domain.ExpandResult{}, err
	}
	conflicts, err := schedule.DetectConflicts(ctx, calendarPort{s}, plan.DriverID, plan.Days)
	if err != nil {
		return domain.ExpandResult{}, err
	}
	days := make([]domain.ExpandedDay, 0, len(plan.Days))
	for _, d := range plan.Days {
		days = append(days, domain.ExpandedDay{
			Date:        d.Key(),
			Weekday:     int(d.Weekday()),
			DutyName:    d.Duty,
			ShiftNumber: d.Shift,
		})
	}
	return domain.ExpandResult{Days: days, Conflicts: conflicts}, nil
}

// StartMonthly checks conflicts and starts the commit in the background
// the session lease is released once the stream produced its terminal event
func (s *Svc) StartMonthly(ctx context.Context, in domain.MonthlyInput, createdBy int64) (*schedule.Stream, error) {
	plan, err := s.plan(in, createdBy)
	if err != nil {
		return nil, err
	}
	lease, err := s.acquire(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("run", plan.RunID).Int64("driver", plan.DriverID).Str("line", plan.LineID).
		Int("days", len(plan.Days)).Str("resolution", string(plan.Resolution)).Msg("monthly run starting")

	stream, err := s.committer.Start(ctx, plan)
	if err != nil {
		s.release(lease)
		return nil, err
	}
	if ev, ok := stream.Final(); ok {
		s.recordIdle(ev)
		s.release(lease)
		return stream, nil
	}
	go func() {
		<-stream.Done()
		s.release(lease)
	}()
	return stream, nil
}

// RunMonthly runs the pipeline in the caller's goroutine and returns the terminal frame
// the commit ignores cancellation of ctx once it started
func (s *Svc) RunMonthly(ctx context.Context, in domain.MonthlyInput, createdBy int64) (any, error) {
	plan, err := s.plan(in, createdBy)
	if err != nil {
		return nil, err
	}
	lease, err := s.acquire(ctx, in)
	if err != nil {
		return nil, err
	}
	defer s.release(lease)

	if len(plan.Days) == 0 {
		sum := schedule.Summary{Results: []schedule.DayResult{}}
		ev := schedule.Event{Kind: schedule.EventComplete, RunID: plan.RunID, Status: schedule.RunSuccess, Results: sum.Results, Summary: &sum}
		s.recordIdle(ev)
		_, body := domain.Frame(ev)
		return body, nil
	}

	sum, conflicts, err := s.committer.Commit(context.WithoutCancel(ctx), plan, nil)
	var ev schedule.Event
	switch {
	case errors.Is(err, schedule.ErrNeedsResolution):
		ev = schedule.Event{Kind: schedule.EventConflict, RunID: plan.RunID, Total: len(plan.Days), Conflict: &conflicts}
		s.recordIdle(ev)
	case err != nil:
		return nil, err
	default:
		ev = schedule.Event{Kind: schedule.EventComplete, RunID: plan.RunID, Total: sum.TotalDays, Summary: &sum}
	}
	_, body := domain.Frame(ev)
	return body, nil
}

func (s *Svc) plan(in domain.MonthlyInput, createdBy int64) (schedule.Plan, error) {
	res, err := schedule.ParseResolution(in.ConflictResolution)
	if err != nil {
		return schedule.Plan{}, perr.WithField(perr.InvalidArgf("conflictResolution must be skip or overwrite"), "conflictResolution")
	}
	included, err := calendar.NewWeekdaySet(in.IncludedWeekdays...)
	if err != nil {
		return schedule.Plan{}, perr.WithField(perr.InvalidArgf("%v", err), "includedWeekdays")
	}
	excluded, err := calendar.NewWeekdaySet(in.ExcludedWeekdays...)
	if err != nil {
		return schedule.Plan{}, perr.WithField(perr.InvalidArgf("%v", err), "excludedWeekdays")
	}

	days, err := calendar.Expand(calendar.Pattern{
		Month:        in.Month,
		Year:         in.Year,
		LineID:       in.LineID,
		Duty:         in.DutyName,
		Shift:        in.ShiftNumber,
		DriverID:     in.DriverID,
		Included:     included,
		Excluded:     excluded,
		SaturdayDuty: in.SaturdayDutyName,
		SundayDuty:   in.SundayDutyName,
	})
	switch {
	case errors.Is(err, calendar.ErrNoWeekdays):
		return schedule.Plan{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%v", err), "includedWeekdays")
	case err != nil:
		return schedule.Plan{}, perr.InvalidArgf("%v", err)
	}

	return schedule.Plan{
		RunID:      s.newRunID(),
		LineID:     in.LineID,
		DriverID:   in.DriverID,
		CreatedBy:  createdBy,
		Days:       days,
		Resolution: res,
	}, nil
}

func sessionKey(in domain.MonthlyInput) string {
	if in.SessionID != "" {
		return "session:" + in.SessionID
	}
	return "driver:" + strconv.FormatInt(in.DriverID, 10)
}

func (s *Svc) acquire(ctx context.Context, in domain.MonthlyInput) (inflight.Lease, error) {
	lease, err := s.guard.Acquire(ctx, sessionKey(in))
	switch {
	case errors.Is(err, inflight.ErrHeld):
		return lease, perr.Conflictf("a monthly submission is already in progress for this session")
	case err != nil:
		return lease, perr.Wrap(err, perr.ErrorCodeUnavailable, "submission guard unavailable")
	}
	return lease, nil
}

func (s *Svc) release(l inflight.Lease) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.guard.Release(ctx, l); err != nil {
		s.log.Warn().Err(err).Str("key", l.Key).Msg("releasing submission guard failed")
	}
}

// recordIdle counts runs that ended without committing anything
func (s *Svc) recordIdle(ev schedule.Event) {
	switch {
	case ev.Kind == schedule.EventConflict:
		s.metrics.Run(outcomeConflict, 0)
		s.log.Info().Str("run", ev.RunID).Int("conflicts", ev.Conflict.ConflictCount).Msg("monthly run halted on conflicts")
	case ev.Kind == schedule.EventComplete && ev.Total == 0:
		s.metrics.Run(outcomeEmpty, 0)
		s.log.Info().Str("run", ev.RunID).Msg("monthly run had nothing to do")
	}
}

// runObserver reports committed days and runs
type runObserver struct {
	log          *logger.Logger
	metrics      *metrics.Planning
	audit        *repo.Audit
	auditTimeout time.Duration
}

func (o *runObserver) DayDone(plan schedule.Plan, day calendar.Day, res schedule.DayResult) {
	o.metrics.Day(string(res.Status))
	if res.Status == schedule.StatusError {
		o.log.Warn().Str("run", plan.RunID).Str("date", res.Date).Int64("driver", plan.DriverID).
			Str("duty", day.Duty).Int("shift", day.Shift).Str("error", res.Error).Msg("day commit failed")
	}
}

func (o *runObserver) RunDone(plan schedule.Plan, sum schedule.Summary, elapsed time.Duration) {
	outcome := schedule.RunSuccess
	if sum.ErrorCount > 0 {
		outcome = schedule.RunError
	}
	o.metrics.Run(outcome, elapsed)
	o.log.Info().Str("run", plan.RunID).Int("success", sum.SuccessCount).Int("skipped", sum.SkippedCount).
		Int("errors", sum.ErrorCount).Dur("elapsed", elapsed).Msg("monthly run finished")

	if o.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.auditTimeout)
	defer cancel()
	if err := o.audit.Record(ctx, plan, sum); err != nil {
		o.log.Warn().Err(err).Str("run", plan.RunID).Msg("audit insert failed")
	}
}
