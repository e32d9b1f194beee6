// Package repo provides postgres access for planning
package repo

import (
	"context"
	"time"

	"transitplan/internal/modkit/repokit"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/store"
)

// Repo is the persistence surface for planning
type Repo interface {
	Lines(ctx context.Context) ([]LineRow, error)
	DutiesOn(ctx context.Context, lineID string, weekday int) ([]DutyShiftRow, error)
	Drivers(ctx context.Context) ([]DriverRow, error)

	ShiftByDutyID(ctx context.Context, dutyID int64, shift, weekday int) (ShiftRow, error)
	ShiftByDutyName(ctx context.Context, lineID, dutyName string, shift, weekday int) (ShiftRow, error)
	Defaults(ctx context.Context, dutyName string) ([]DefaultRow, error)

	AssignmentsOn(ctx context.Context, date time.Time) ([]AssignmentRow, error)
	AssignmentsOfLine(ctx context.Context, lineID string, from, to time.Time) ([]AssignmentRow, error)
	AssignmentsBetween(ctx context.Context, from, to time.Time) ([]AssignmentRow, error)
	Assignment(ctx context.Context, id int64, date time.Time) (AssignmentRow, error)
	AssignedDates(ctx context.Context, driverID int64, from, to time.Time) ([]time.Time, error)

	InsertAssignment(ctx context.Context, a AssignmentRow) (int64, error)
	DeleteSlot(ctx context.Context, date time.Time, lineID, dutyName string, shift int, driverID int64) (int64, error)
	DeleteDriverRange(ctx context.Context, driverID int64, lineID, dutyName string, shift int, from, to time.Time) (int64, error)
}

// LineRow is a line
type LineRow struct {
	ID    string
	Title string
}

// DutyShiftRow is one shift of a duty running on a weekday
type DutyShiftRow struct {
	DutyID      int64
	DutyName    string
	ShiftNumber int
}

// DriverRow is a driver
type DriverRow struct {
	ID        int64
	FirstName string
	LastName  string
}

// ShiftRow is a resolved duty shift for a weekday
type ShiftRow struct {
	DutyID         int64
	LineID         string
	DutyName       string
	ShiftNumber    int
	StartTime      string
	EndTime        string
	DepartureCount int
}

// DefaultRow is an externally maintained driver default for a duty
type DefaultRow struct {
	DriverID        int64
	ShiftNumber     *int
	Weekday         *int
	Priority        int
	UsageCount      int
	UsagePercentage float64
	ConfidenceScore float64
	Note            string
}

// AssignmentRow is a stored assignment joined with its driver
type AssignmentRow struct {
	ID             int64
	Date           time.Time
	LineID         string
	DutyID         int64
	DutyName       string
	ShiftNumber    int
	DriverID       int64
	FirstName      string
	LastName       string
	DepartureCount int
	StartTime      string
	EndTime        string
	CreatedBy      int64
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) Lines(ctx context.Context) ([]LineRow, error) {
	// numeric line ids sort numerically, the rest after them by text
	const sql = `
select id, title
from lines
where active
order by (case when id ~ '^[0-9]+$' then lpad(id, 10, '0') else id end) asc
`
	return store.Many(ctx, r.q, func(row store.Row) (LineRow, error) {
		var l LineRow
		err := row.Scan(&l.ID, &l.Title)
		return l, err
	}, sql)
}

func (r *queries) DutiesOn(ctx context.Context, lineID string, weekday int) ([]DutyShiftRow, error) {
	const sql = `
select d.id, d.name, s.shift_number
from duties d
join duty_shifts s on s.duty_id = d.id
where d.line_id = $1 and s.weekday = $2
order by d.name asc, s.shift_number asc
`
	return store.Many(ctx, r.q, func(row store.Row) (DutyShiftRow, error) {
		var d DutyShiftRow
		err := row.Scan(&d.DutyID, &d.DutyName, &d.ShiftNumber)
		return d, err
	}, sql, lineID, weekday)
}

func (r *queries) Drivers(ctx context.Context) ([]DriverRow, error) {
	const sql = `
select id, first_name, last_name
from drivers
where active
order by last_name asc, first_name asc
`
	return store.Many(ctx, r.q, scanDriver, sql)
}

func scanDriver(row store.Row) (DriverRow, error) {
	var d DriverRow
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName)
	return d, err
}

const shiftCols = `d.id, d.line_id, d.name, s.shift_number, s.start_time, s.end_time, s.departure_count`

func scanShift(row store.Row) (ShiftRow, error) {
	var s ShiftRow
	err := row.Scan(&s.DutyID, &s.LineID, &s.DutyName, &s.ShiftNumber, &s.StartTime, &s.EndTime, &s.DepartureCount)
	return s, err
}

func (r *queries) ShiftByDutyID(ctx context.Context, dutyID int64, shift, weekday int) (ShiftRow, error) {
	sql := `
select ` + shiftCols + `
from duties d
join duty_shifts s on s.duty_id = d.id
where d.id = $1 and s.shift_number = $2 and s.weekday = $3
`
	return store.One(ctx, r.q, scanShift, sql, dutyID, shift, weekday)
}

func (r *queries) ShiftByDutyName(ctx context.Context, lineID, dutyName string, shift, weekday int) (ShiftRow, error) {
	sql := `
select ` + shiftCols + `
from duties d
join duty_shifts s on s.duty_id = d.id
where d.line_id = $1 and d.name = $2 and s.shift_number = $3 and s.weekday = $4
`
	return store.One(ctx, r.q, scanShift, sql, lineID, dutyName, shift, weekday)
}

func (r *queries) Defaults(ctx context.Context, dutyName string) ([]DefaultRow, error) {
	const sql = `
select driver_id, shift_number, weekday, priority, usage_count, usage_percentage, confidence_score, note
from duty_defaults
where active and duty_name = $1
order by priority asc, confidence_score desc, usage_count desc
`
	return store.Many(ctx, r.q, func(row store.Row) (DefaultRow, error) {
		var d DefaultRow
		var shift, weekday *int16
		if err := row.Scan(&d.DriverID, &shift, &weekday, &d.Priority, &d.UsageCount, &d.UsagePercentage, &d.ConfidenceScore, &d.Note); err != nil {
			return d, err
		}
		d.ShiftNumber = widen(shift)
		d.Weekday = widen(weekday)
		return d, nil
	}, sql, dutyName)
}

func widen(v *int16) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

const assignmentCols = `a.id, a.service_date, a.line_id, a.duty_id, a.duty_name, a.shift_number, a.driver_id,
coalesce(dr.first_name, ''), coalesce(dr.last_name, ''), a.departure_count, a.start_time, a.end_time, a.created_by`

func scanAssignment(row store.Row) (AssignmentRow, error) {
	var a AssignmentRow
	var shift int16
	err := row.Scan(&a.ID, &a.Date, &a.LineID, &a.DutyID, &a.DutyName, &shift, &a.DriverID,
		&a.FirstName, &a.LastName, &a.DepartureCount, &a.StartTime, &a.EndTime, &a.CreatedBy)
	a.ShiftNumber = int(shift)
	return a, err
}

func (r *queries) AssignmentsOn(ctx context.Context, date time.Time) ([]AssignmentRow, error) {
	sql := `
select ` + assignmentCols + `
from assignments a
left join drivers dr on dr.id = a.driver_id
where a.service_date = $1
order by a.line_id asc, length(a.duty_name) asc, a.duty_name asc, a.shift_number asc
`
	return store.Many(ctx, r.q, scanAssignment, sql, date)
}

func (r *queries) AssignmentsOfLine(ctx context.Context, lineID string, from, to time.Time) ([]AssignmentRow, error) {
	sql := `
select ` + assignmentCols + `
from assignments a
left join drivers dr on dr.id = a.driver_id
where a.line_id = $1 and a.service_date between $2 and $3
order by a.service_date asc, length(a.duty_name) asc, a.duty_name asc, a.shift_number asc
`
	return store.Many(ctx, r.q, scanAssignment, sql, lineID, from, to)
}

func (r *queries) AssignmentsBetween(ctx context.Context, from, to time.Time) ([]AssignmentRow, error) {
	sql := `
select ` + assignmentCols + `
from assignments a
left join drivers dr on dr.id = a.driver_id
where a.service_date between $1 and $2
order by a.driver_id asc, a.service_date asc, a.shift_number asc
`
	return store.Many(ctx, r.q, scanAssignment, sql, from, to)
}

func (r *queries) Assignment(ctx context.Context, id int64, date time.Time) (AssignmentRow, error) {
	sql := `
select ` + assignmentCols + `
from assignments a
left join drivers dr on dr.id = a.driver_id
where a.id = $1 and a.service_date = $2
`
	a, err := store.One(ctx, r.q, scanAssignment, sql, id, date)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return a, perr.NotFoundf("assignment %d on %s not found", id, date.Format("2006-01-02"))
	}
	return a, err
}

func (r *queries) AssignedDates(ctx context.Context, driverID int64, from, to time.Time) ([]time.Time, error) {
	const sql = `
select distinct service_date
from assignments
where driver_id = $1 and service_date between $2 and $3
order by service_date asc
`
	return store.Many(ctx, r.q, func(row store.Row) (time.Time, error) {
		var d time.Time
		err := row.Scan(&d)
		return d, err
	}, sql, driverID, from, to)
}

func (r *queries) InsertAssignment(ctx context.Context, a AssignmentRow) (int64, error) {
	const sql = `
insert into assignments (service_date, line_id, duty_id, duty_name, shift_number, driver_id,
	departure_count, start_time, end_time, created_by)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
returning id
`
	var id int64
	if err := r.q.QueryRow(ctx, sql, a.Date, a.LineID, a.DutyID, a.DutyName, a.ShiftNumber, a.DriverID,
		a.DepartureCount, a.StartTime, a.EndTime, a.CreatedBy).Scan(&id); err != nil {
		return 0, perr.FromPostgresWithField(err, "assignment insert failed")
	}
	return id, nil
}

func (r *queries) DeleteSlot(ctx context.Context, date time.Time, lineID, dutyName string, shift int, driverID int64) (int64, error) {
	const sql = `
delete from assignments
where service_date = $1 and line_id = $2 and duty_name = $3 and shift_number = $4 and driver_id = $5
`
	return store.Affected(ctx, r.q, sql, date, lineID, dutyName, shift, driverID)
}

func (r *queries) DeleteDriverRange(ctx context.Context, driverID int64, lineID, dutyName string, shift int, from, to time.Time) (int64, error) {
	const sql = `
delete from assignments
where driver_id = $1 and line_id = $2 and duty_name = $3 and shift_number = $4
and service_date between $5 and $6
`
	return store.Affected(ctx, r.q, sql, driverID, lineID, dutyName, shift, from, to)
}
