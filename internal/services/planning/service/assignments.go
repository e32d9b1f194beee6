package service

import (
	"context"
	"fmt"
	"time"

	"transitplan/internal/core/calendar"
	"transitplan/internal/core/schedule"
	"transitplan/internal/core/timerange"
	"transitplan/internal/modkit/repokit"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

// ScheduleByDate lists the assignments of one day
func (s *Svc) ScheduleByDate(ctx context.Context, in domain.ScheduleQuery) ([]domain.Assignment, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.AssignmentsOn(ctx, date)
	if err != nil {
		return nil, err
	}
	return toAssignments(rows), nil
}

// ScheduleByMonth lists the assignments of a line in a month ordered by date
func (s *Svc) ScheduleByMonth(ctx context.Context, in domain.MonthlyScheduleQuery) ([]domain.Assignment, error) {
	from, to := calendar.MonthBounds(in.Month, in.Year)
	rows, err := s.Repo.AssignmentsOfLine(ctx, in.LineID, from, to)
	if err != nil {
		return nil, err
	}
	return toAssignments(rows), nil
}

// CreateAssignment assigns a driver to a duty shift on one day
func (s *Svc) CreateAssignment(ctx context.Context, in domain.CreateAssignmentInput, createdBy int64) (domain.Assignment, error) {
	date, err := parseDate("date", in.Date)
	if err != nil {
		return domain.Assignment{}, err
	}

	var row repo.AssignmentRow
	err = repokit.InTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		shift, err := r.ShiftByDutyID(ctx, in.DutyID, in.ShiftNumber, int(date.Weekday()))
		if err != nil {
			return shiftLookupErr(err, fmt.Sprintf("duty %d", in.DutyID), in.ShiftNumber, date)
		}
		if shift.LineID != in.LineID {
			return perr.WithField(perr.InvalidArgf("duty %d does not belong to line %s", in.DutyID, in.LineID), "dutyId")
		}
		row = assignmentFrom(shift, date, in.DriverID, createdBy)
		row.ID, err = r.InsertAssignment(ctx, row)
		return err
	})
	if err != nil {
		return domain.Assignment{}, err
	}
	return toAssignment(row), nil
}

// DeleteAssignment removes the anchor assignment's duty shift slot for its driver on that day
func (s *Svc) DeleteAssignment(ctx context.Context, id int64, date string) (domain.DeleteResult, error) {
	d, err := parseDate("date", date)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	var n int64
	err = repokit.InTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		anchor, err := r.Assignment(ctx, id, d)
		if err != nil {
			return err
		}
		n, err = r.DeleteSlot(ctx, d, anchor.LineID, anchor.DutyName, anchor.ShiftNumber, anchor.DriverID)
		return err
	})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{
		Success:      true,
		Message:      fmt.Sprintf("deleted %d assignment(s)", n),
		DeletedCount: n,
	}, nil
}

// DeleteRecurrence removes the anchor driver's assignments of one duty shift across a month
func (s *Svc) DeleteRecurrence(ctx context.Context, id int64, date string, in domain.DeleteRecurrenceQuery) (domain.DeleteResult, error) {
	d, err := parseDate("date", date)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	from, to := calendar.MonthBounds(in.Month, in.Year)

	var n int64
	err = repokit.InTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		anchor, err := r.Assignment(ctx, id, d)
		if err != nil {
			return err
		}
		n, err = r.DeleteDriverRange(ctx, anchor.DriverID, in.LineID, in.DutyName, in.ShiftNumber, from, to)
		return err
	})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return domain.DeleteResult{
		Success:      true,
		Message:      fmt.Sprintf("deleted %d assignment(s) of %s shift %d in %02d/%d", n, in.DutyName, in.ShiftNumber, in.Month, in.Year),
		DeletedCount: n,
	}, nil
}

// dayWriter writes one committed day; replace and insert share a transaction
type dayWriter struct{ s *Svc }

func (w dayWriter) Create(ctx context.Context, a schedule.Assignment, replace bool) (schedule.Created, error) {
	var out schedule.Created
	err := repokit.InTx(ctx, w.s.db, w.s.binder, func(r repo.Repo) error {
		shift, err := r.ShiftByDutyName(ctx, a.LineID, a.Duty, a.ShiftNumber, int(a.Date.Weekday()))
		if err != nil {
			return shiftLookupErr(err, "duty "+a.Duty, a.ShiftNumber, a.Date)
		}
		if replace {
			if _, err := r.DeleteSlot(ctx, a.Date, a.LineID, a.Duty, a.ShiftNumber, a.DriverID); err != nil {
				return err
			}
		}
		row := assignmentFrom(shift, a.Date, a.DriverID, a.CreatedBy)
		id, err := r.InsertAssignment(ctx, row)
		if err != nil {
			return err
		}
		out = schedule.Created{ID: id, DeparturesCount: shift.DepartureCount}
		return nil
	})
	return out, err
}

func shiftLookupErr(err error, duty string, shift int, date time.Time) error {
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf("%s has no shift %d on %s", duty, shift, date.Weekday())
	}
	return err
}

func assignmentFrom(shift repo.ShiftRow, date time.Time, driverID, createdBy int64) repo.AssignmentRow {
	return repo.AssignmentRow{
		Date:           date,
		LineID:         shift.LineID,
		DutyID:         shift.DutyID,
		DutyName:       shift.DutyName,
		ShiftNumber:    shift.ShiftNumber,
		DriverID:       driverID,
		DepartureCount: shift.DepartureCount,
		StartTime:      shift.StartTime,
		EndTime:        shift.EndTime,
		CreatedBy:      createdBy,
	}
}

func toAssignments(rows []repo.AssignmentRow) []domain.Assignment {
	out := make([]domain.Assignment, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAssignment(r))
	}
	return out
}

func toAssignment(r repo.AssignmentRow) domain.Assignment {
	return domain.Assignment{
		ID:              r.ID,
		Date:            r.Date.Format(calendar.DateLayout),
		LineID:          r.LineID,
		DutyID:          r.DutyID,
		DutyName:        r.DutyName,
		ShiftNumber:     r.ShiftNumber,
		DriverID:        r.DriverID,
		DriverName:      toDriver(repo.DriverRow{FirstName: r.FirstName, LastName: r.LastName}).FullName,
		DeparturesCount: r.DepartureCount,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Duration:        duration(r.StartTime, r.EndTime),
	}
}

// duration formats the shift length; midnight crossing wraps
func duration(start, end string) string {
	rng, err := timerange.ParseRange(start, end)
	if err != nil {
		return ""
	}
	return timerange.FormatDuration(rng.Minutes())
}
