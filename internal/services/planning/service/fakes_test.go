package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"transitplan/internal/core/calendar"
	"transitplan/internal/modkit/repokit"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/store"
	"transitplan/internal/services/planning/repo"
)

// fakeTx runs fn with a nil queryer; the bound memRepo ignores it
type fakeTx struct{ calls int }

func (f *fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	return fn(nil)
}

func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }

type shiftKey struct {
	duty    int64
	shift   int
	weekday int
}

type memRepo struct {
	mu          sync.Mutex
	lines       []repo.LineRow
	drivers     []repo.DriverRow
	duties      map[int64]struct{ line, name string }
	shifts      map[shiftKey]repo.ShiftRow
	defaults    []repo.DefaultRow
	assignments []repo.AssignmentRow
	nextID      int64
	inserts     int
}

func newMemRepo() *memRepo {
	return &memRepo{
		duties: map[int64]struct{ line, name string }{},
		shifts: map[shiftKey]repo.ShiftRow{},
		nextID: 1,
	}
}

func (m *memRepo) binder() repokit.Binder[repo.Repo] {
	return repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return m })
}

// addDuty registers a duty shift running on the given weekdays
func (m *memRepo) addDuty(id int64, line, name string, shift int, start, end string, departures int, weekdays ...int) {
	m.duties[id] = struct{ line, name string }{line, name}
	for _, wd := range weekdays {
		m.shifts[shiftKey{id, shift, wd}] = repo.ShiftRow{
			DutyID: id, LineID: line, DutyName: name, ShiftNumber: shift,
			StartTime: start, EndTime: end, DepartureCount: departures,
		}
	}
}

func (m *memRepo) assign(date string, dutyID int64, shift int, driverID int64) {
	d, _ := calendar.ParseDate(date)
	sh := m.shifts[shiftKey{dutyID, shift, int(d.Weekday())}]
	m.assignments = append(m.assignments, repo.AssignmentRow{
		ID: m.nextID, Date: d, LineID: sh.LineID, DutyID: dutyID, DutyName: sh.DutyName,
		ShiftNumber: shift, DriverID: driverID, DepartureCount: sh.DepartureCount,
		StartTime: sh.StartTime, EndTime: sh.EndTime,
	})
	m.nextID++
}

// joined fills driver names the way the drivers join does
func (m *memRepo) joined(a repo.AssignmentRow) repo.AssignmentRow {
	for _, d := range m.drivers {
		if d.ID == a.DriverID {
			a.FirstName, a.LastName = d.FirstName, d.LastName
			break
		}
	}
	return a
}

func (m *memRepo) on(date time.Time) []repo.AssignmentRow {
	var out []repo.AssignmentRow
	for _, a := range m.assignments {
		if a.Date.Equal(date) {
			out = append(out, m.joined(a))
		}
	}
	return out
}

func (m *memRepo) Lines(context.Context) ([]repo.LineRow, error) { return m.lines, nil }

func (m *memRepo) DutiesOn(_ context.Context, lineID string, weekday int) ([]repo.DutyShiftRow, error) {
	var out []repo.DutyShiftRow
	for k, s := range m.shifts {
		if s.LineID == lineID && k.weekday == weekday {
			out = append(out, repo.DutyShiftRow{DutyID: s.DutyID, DutyName: s.DutyName, ShiftNumber: s.ShiftNumber})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DutyName != out[j].DutyName {
			return out[i].DutyName < out[j].DutyName
		}
		return out[i].ShiftNumber < out[j].ShiftNumber
	})
	return out, nil
}

func (m *memRepo) Drivers(context.Context) ([]repo.DriverRow, error) { return m.drivers, nil }

func (m *memRepo) ShiftByDutyID(_ context.Context, dutyID int64, shift, weekday int) (repo.ShiftRow, error) {
	s, ok := m.shifts[shiftKey{dutyID, shift, weekday}]
	if !ok {
		return s, perr.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) ShiftByDutyName(_ context.Context, lineID, dutyName string, shift, weekday int) (repo.ShiftRow, error) {
	for k, s := range m.shifts {
		if s.LineID == lineID && s.DutyName == dutyName && k.shift == shift && k.weekday == weekday {
			return s, nil
		}
	}
	return repo.ShiftRow{}, perr.ErrNotFound
}

func (m *memRepo) Defaults(_ context.Context, dutyName string) ([]repo.DefaultRow, error) {
	return m.defaults, nil
}

func (m *memRepo) AssignmentsOn(_ context.Context, date time.Time) ([]repo.AssignmentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on(date), nil
}

func (m *memRepo) AssignmentsOfLine(_ context.Context, lineID string, from, to time.Time) ([]repo.AssignmentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repo.AssignmentRow
	for _, a := range m.assignments {
		if a.LineID == lineID && !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, m.joined(a))
		}
	}
	return out, nil
}

func (m *memRepo) AssignmentsBetween(_ context.Context, from, to time.Time) ([]repo.AssignmentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repo.AssignmentRow
	for _, a := range m.assignments {
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, m.joined(a))
		}
	}
	return out, nil
}

func (m *memRepo) Assignment(_ context.Context, id int64, date time.Time) (repo.AssignmentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID == id && a.Date.Equal(date) {
			return m.joined(a), nil
		}
	}
	return repo.AssignmentRow{}, perr.NotFoundf("assignment %d not found", id)
}

func (m *memRepo) AssignedDates(_ context.Context, driverID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, a := range m.assignments {
		if a.DriverID == driverID && !a.Date.Before(from) && !a.Date.After(to) && !seen[a.Date] {
			seen[a.Date] = true
			out = append(out, a.Date)
		}
	}
	return out, nil
}

func (m *memRepo) InsertAssignment(_ context.Context, a repo.AssignmentRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.assignments {
		if cur.Date.Equal(a.Date) && cur.LineID == a.LineID && cur.DutyName == a.DutyName && cur.ShiftNumber == a.ShiftNumber {
			return 0, perr.DuplicateKeyf("slot already assigned")
		}
	}
	a.ID = m.nextID
	m.nextID++
	m.inserts++
	m.assignments = append(m.assignments, a)
	return a.ID, nil
}

func (m *memRepo) deleteWhere(keep func(repo.AssignmentRow) bool) int64 {
	var n int64
	out := m.assignments[:0]
	for _, a := range m.assignments {
		if keep(a) {
			out = append(out, a)
			continue
		}
		n++
	}
	m.assignments = out
	return n
}

func (m *memRepo) DeleteSlot(_ context.Context, date time.Time, lineID, dutyName string, shift int, driverID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteWhere(func(a repo.AssignmentRow) bool {
		return !(a.Date.Equal(date) && a.LineID == lineID && a.DutyName == dutyName && a.ShiftNumber == shift && a.DriverID == driverID)
	}), nil
}

func (m *memRepo) DeleteDriverRange(_ context.Context, driverID int64, lineID, dutyName string, shift int, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteWhere(func(a repo.AssignmentRow) bool {
		in := !a.Date.Before(from) && !a.Date.After(to)
		return !(in && a.DriverID == driverID && a.LineID == lineID && a.DutyName == dutyName && a.ShiftNumber == shift)
	}), nil
}
