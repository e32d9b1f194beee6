package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"transitplan/internal/core/availability"
	"transitplan/internal/core/schedule"
	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/inflight"
	"transitplan/internal/platform/metrics"
	"transitplan/internal/platform/testkit"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

var weekdaysAll = []int{0, 1, 2, 3, 4, 5, 6}

// fixture: line 18 with a day duty and a night duty, three drivers
func fixture() *memRepo {
	m := newMemRepo()
	m.lines = []repo.LineRow{{ID: "18", Title: "Zeleni venac - Banovo brdo"}, {ID: "2", Title: "Vukov spomenik"}}
	m.drivers = []repo.DriverRow{
		{ID: 1, FirstName: "Živko", LastName: "Ilić"},
		{ID: 2, FirstName: "Ana", LastName: "Zorić"},
		{ID: 3, FirstName: "Čedomir", LastName: "Babić"},
	}
	m.addDuty(7, "18", "00018-1", 1, "04:30", "12:10", 12, weekdaysAll...)
	m.addDuty(8, "18", "00018-3", 2, "00:30", "06:00", 4, weekdaysAll...)
	m.addDuty(9, "18", "00018-9", 1, "22:00", "02:00", 6, weekdaysAll...)
	m.addDuty(10, "18", "00018-10", 1, "13:00", "20:00", 9, 1, 2, 3, 4, 5)
	return m
}

func newSvc(t *testing.T, m *memRepo, opt Options) *Svc {
	t.Helper()
	s := New(&fakeTx{}, m.binder(), opt)
	n := 0
	s.newRunID = func() string { n++; return fmt.Sprintf("run-%d", n) }
	return s
}

func TestNew_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()
	testkit.MustPanic(t, func() { New(nil, repo.NewPG(), Options{}) })
	testkit.MustPanic(t, func() { New(&fakeTx{}, nil, Options{}) })
}

func TestLinesAndDuties(t *testing.T) {
	t.Parallel()
	s := newSvc(t, fixture(), Options{})
	ctx := context.Background()

	lines, err := s.Lines(ctx)
	if err != nil || len(lines) != 2 || lines[0].Label != "18 - Zeleni venac - Banovo brdo" {
		t.Fatalf("lines = %+v, %v", lines, err)
	}

	// 2024-03-09 is a Saturday, duty 00018-10 does not run
	duties, err := s.Duties(ctx, domain.DutiesQuery{LineID: "18", Date: "2024-03-09"})
	if err != nil {
		t.Fatalf("duties: %v", err)
	}
	names := make([]string, 0, len(duties))
	for _, d := range duties {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "00018-1,00018-3,00018-9" {
		t.Fatalf("saturday duties = %s", got)
	}

	duties, _ = s.Duties(ctx, domain.DutiesQuery{LineID: "18", Date: "2024-03-04"})
	if duties[len(duties)-1].Name != "00018-10" {
		t.Fatalf("numeric aware order broken: %+v", duties)
	}

	if _, err := s.Duties(ctx, domain.DutiesQuery{LineID: "18", Date: "03/04/2024"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestAvailability_NightShiftOverlap(t *testing.T) {
	t.Parallel()
	m := fixture()
	m.assign("2024-03-04", 8, 2, 1) // 00:30-06:00
	reg := prometheus.NewRegistry()
	pm, err := metrics.NewPlanningWithRegistry(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	s := newSvc(t, m, Options{Metrics: pm})

	res, err := s.Availability(context.Background(), domain.AvailabilityQuery{Date: "2024-03-04", LineID: "18", DutyID: 9, ShiftNumber: 1})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if res.RequestedShift.StartTime != "22:00" || res.RequestedShift.EndTime != "02:00" || res.RequestedShift.Duration != "04:00" {
		t.Fatalf("requested shift = %+v", res.RequestedShift)
	}
	if res.FreeCount != 2 || res.BusyCount != 1 {
		t.Fatalf("free=%d busy=%d", res.FreeCount, res.BusyCount)
	}
	busy := res.Drivers[len(res.Drivers)-1]
	if busy.ID != 1 || busy.Free {
		t.Fatalf("driver 1 should be busy and last: %+v", busy)
	}
	if len(busy.Reasons) != 1 || !strings.Contains(busy.Reasons[0], "00018-3") || !strings.Contains(busy.Reasons[0], "00:30 - 06:00") {
		t.Fatalf("reason = %v", busy.Reasons)
	}
	if len(busy.ScheduledShifts) != 1 || busy.ScheduledShifts[0].Duration != "05:30" {
		t.Fatalf("scheduled = %+v", busy.ScheduledShifts)
	}
	if n, err := testutil.GatherAndCount(reg, "transitplan_availability_requests_total"); err != nil || n != 1 {
		t.Fatalf("availability series = %d, %v", n, err)
	}
}

func TestAvailability_RankingAndRecommendations(t *testing.T) {
	t.Parallel()
	m := fixture()
	two, one := 2, 1
	m.defaults = []repo.DefaultRow{
		// shift 2 does not match the requested shift and is ignored
		{DriverID: 2, ShiftNumber: &two, Priority: 1, ConfidenceScore: 99},
		{DriverID: 2, Priority: 5, ConfidenceScore: 40, UsageCount: 4},
		{DriverID: 3, ShiftNumber: &one, Weekday: &one, Priority: 1, ConfidenceScore: 80, UsageCount: 12},
		{DriverID: 3, Priority: 1, ConfidenceScore: 10},
	}
	s := newSvc(t, m, Options{})

	res, err := s.Availability(context.Background(), domain.AvailabilityQuery{Date: "2024-03-04", LineID: "18", DutyID: 7, ShiftNumber: 1})
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	var order []int64
	for _, d := range res.Drivers {
		order = append(order, d.ID)
	}
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Fatalf("order = %v", order)
	}
	if r := res.Drivers[0].Recommendation; !r.HasDefault || r.ConfidenceScore != 80 || r.UsageCount != 12 {
		t.Fatalf("most specific default not chosen: %+v", r)
	}
	if r := res.Drivers[1].Recommendation; r.ConfidenceScore != 40 {
		t.Fatalf("name level default not chosen: %+v", r)
	}
	if r := res.Drivers[2].Recommendation; r.HasDefault || r.Priority != 999 {
		t.Fatalf("no default should map to priority 999: %+v", r)
	}

	only, err := s.Availability(context.Background(), domain.AvailabilityQuery{Date: "2024-03-04", LineID: "18", DutyID: 7, ShiftNumber: 1, OnlyRecommended: true})
	if err != nil || len(only.Drivers) != 2 {
		t.Fatalf("only recommended = %+v, %v", only.Drivers, err)
	}

	m.defaults = nil
	none, err := s.Availability(context.Background(), domain.AvailabilityQuery{Date: "2024-03-04", LineID: "18", DutyID: 7, ShiftNumber: 1, OnlyRecommended: true})
	if err != nil || len(none.Drivers) != 0 || none.Drivers == nil {
		t.Fatalf("only recommended without defaults = %+v, %v", none.Drivers, err)
	}
}

func TestAvailability_FilterToggles(t *testing.T) {
	t.Parallel()
	m := fixture()
	m.assign("2024-03-04", 8, 2, 1)
	s := newSvc(t, m, Options{})
	ctx := context.Background()
	q := domain.AvailabilityQuery{Date: "2024-03-04", LineID: "18", DutyID: 9, ShiftNumber: 1, DisabledFilters: []string{availability.FilterTimeOverlap}}

	res, err := s.Availability(ctx, q)
	if err != nil || res.BusyCount != 0 {
		t.Fatalf("disabled overlap filter should free everyone: %+v, %v", res, err)
	}
	if s.Filters()[0].Enabled != true {
		t.Fatalf("request toggles must not leak into the shared chain")
	}

	q.DisabledFilters = []string{"nope"}
	if _, err := s.Availability(ctx, q); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown filter: %v", err)
	}

	q.DisabledFilters = nil
	q.DutyID = 10
	q.Date = "2024-03-09"
	if _, err := s.Availability(ctx, q); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("missing weekday shift should be not found: %v", err)
	}
}

func monthlyInput() domain.MonthlyInput {
	return domain.MonthlyInput{
		Month: 3, Year: 2024, LineID: "18", DutyName: "00018-1", ShiftNumber: 1, DriverID: 2,
		IncludedWeekdays: []int{1, 2, 3, 4, 5},
	}
}

func waitFinal(t *testing.T, st *schedule.Stream) schedule.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ev, err := st.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	return ev
}

func TestMonthly_ConflictThenSkip(t *testing.T) {
	t.Parallel()
	m := fixture()
	m.assign("2024-03-06", 8, 2, 2)
	s := newSvc(t, m, Options{})
	ctx := context.Background()

	preview, err := s.Expand(ctx, monthlyInput())
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(preview.Days) != 21 || preview.Conflicts.ConflictCount != 1 || preview.Conflicts.Available() != 20 {
		t.Fatalf("preview = %d days %+v", len(preview.Days), preview.Conflicts)
	}

	st, err := s.StartMonthly(ctx, monthlyInput(), 99)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ev := waitFinal(t, st)
	if ev.Kind != schedule.EventConflict || ev.Conflict.ConflictDates[0] != "2024-03-06" || ev.Conflict.TotalDays != 21 {
		t.Fatalf("want conflict, got %+v", ev)
	}
	if m.inserts != 0 {
		t.Fatalf("conflict must not write, inserts=%d", m.inserts)
	}

	in := monthlyInput()
	in.ConflictResolution = "skip"
	body, err := s.RunMonthly(ctx, in, 99)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	done, ok := body.(domain.Complete)
	if !ok || done.SuccessCount != 20 || done.SkippedCount != 1 || done.ErrorCount != 0 || len(done.Results) != 21 {
		t.Fatalf("complete = %+v", body)
	}
	for _, a := range m.assignments {
		if a.Date.Format("2006-01-02") == "2024-03-06" && a.DutyName == "00018-1" {
			t.Fatalf("skip wrote on a conflict date")
		}
	}
}

func TestMonthly_OverwriteReplacesSlot(t *testing.T) {
	t.Parallel()
	m := fixture()
	m.assign("2024-03-06", 7, 1, 2)
	s := newSvc(t, m, Options{})

	in := monthlyInput()
	in.ConflictResolution = "overwrite"
	body, err := s.RunMonthly(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	done := body.(domain.Complete)
	if done.SuccessCount != 21 || done.ErrorCount != 0 {
		t.Fatalf("complete = %+v", done)
	}
	n := 0
	for _, a := range m.assignments {
		if a.Date.Format("2006-01-02") == "2024-03-06" && a.DutyName == "00018-1" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("overwrite left %d assignments in the slot", n)
	}
}

func TestMonthly_OverwriteKeepsOtherDuties(t *testing.T) {
	t.Parallel()
	m := fixture()
	m.assign("2024-03-06", 8, 2, 2) // night duty 00018-3
	s := newSvc(t, m, Options{})

	in := monthlyInput()
	in.ConflictResolution = "overwrite"
	body, err := s.RunMonthly(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if done := body.(domain.Complete); done.SuccessCount != 21 {
		t.Fatalf("complete = %+v", done)
	}
	duties := map[string]bool{}
	for _, a := range m.assignments {
		if a.Date.Format("2006-01-02") == "2024-03-06" && a.DriverID == 2 {
			duties[a.DutyName] = true
		}
	}
	if len(duties) != 2 || !duties["00018-3"] || !duties["00018-1"] {
		t.Fatalf("2024-03-06 duties = %v, want the old and the new", duties)
	}
}

func TestMonthly_EmptyExpansionCountsAsEmptyOnBothPaths(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	pm, err := metrics.NewPlanningWithRegistry(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	m := fixture()
	s := newSvc(t, m, Options{Metrics: pm})
	ctx := context.Background()

	in := monthlyInput()
	in.IncludedWeekdays = []int{1}
	in.ExcludedWeekdays = []int{1}

	body, err := s.RunMonthly(ctx, in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	done, ok := body.(domain.Complete)
	if !ok || done.TotalDays != 0 || done.ProcessedDays != 0 || done.Results == nil {
		t.Fatalf("complete = %+v", body)
	}
	st, err := s.StartMonthly(ctx, in, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if ev := waitFinal(t, st); ev.Kind != schedule.EventComplete || ev.Total != 0 {
		t.Fatalf("stream final = %+v", ev)
	}

	want := `
# HELP transitplan_planning_runs_total Monthly submissions by terminal outcome
# TYPE transitplan_planning_runs_total counter
transitplan_planning_runs_total{outcome="empty"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "transitplan_planning_runs_total"); err != nil {
		t.Fatalf("runs: %v", err)
	}
	if m.inserts != 0 {
		t.Fatalf("inserts = %d", m.inserts)
	}
}

func TestMonthly_WeekendOverrideWithoutShiftIsDayError(t *testing.T) {
	t.Parallel()
	m := fixture()
	s := newSvc(t, m, Options{})

	in := monthlyInput()
	in.IncludedWeekdays = []int{6}
	in.SaturdayDutyName = "00018-10" // runs only on workdays
	body, err := s.RunMonthly(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	done := body.(domain.Complete)
	if done.TotalDays != 5 || done.ErrorCount != 5 {
		t.Fatalf("complete = %+v", done)
	}
	if !strings.Contains(done.Results[0].Error, "no shift 1") {
		t.Fatalf("error detail = %q", done.Results[0].Error)
	}
}

func TestMonthly_GuardRejectsSecondSubmission(t *testing.T) {
	t.Parallel()
	m := fixture()
	g := inflight.NewMemory(time.Minute)
	s := newSvc(t, m, Options{Guard: g})
	ctx := context.Background()

	held, err := g.Acquire(ctx, "session:abc")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	in := monthlyInput()
	in.SessionID = "abc"
	if _, err := s.StartMonthly(ctx, in, 1); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict code, got %v", err)
	}

	// another session for the same driver is independent
	in.SessionID = "def"
	st, err := s.StartMonthly(ctx, in, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFinal(t, st)

	_ = g.Release(ctx, held)
	deadline := time.Now().Add(2 * time.Second)
	for g.Held("session:def") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if g.Held("session:def") {
		t.Fatalf("lease not released after the run")
	}
}

func TestMonthly_ValidationBeforeStore(t *testing.T) {
	t.Parallel()
	s := newSvc(t, fixture(), Options{})
	ctx := context.Background()

	in := monthlyInput()
	in.IncludedWeekdays = nil
	if _, err := s.StartMonthly(ctx, in, 1); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("empty weekdays: %v", err)
	}
	in = monthlyInput()
	in.ConflictResolution = "merge"
	if _, err := s.StartMonthly(ctx, in, 1); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad resolution: %v", err)
	}
	in = monthlyInput()
	in.ExcludedWeekdays = []int{9}
	if _, err := s.Expand(ctx, in); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad weekday: %v", err)
	}
}

func TestCreateAndDeleteAssignments(t *testing.T) {
	t.Parallel()
	m := fixture()
	s := newSvc(t, m, Options{})
	ctx := context.Background()

	a, err := s.CreateAssignment(ctx, domain.CreateAssignmentInput{Date: "2024-03-04", LineID: "18", DutyID: 9, ShiftNumber: 1, DriverID: 3}, 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.DeparturesCount != 6 || a.Duration != "04:00" || a.DutyName != "00018-9" {
		t.Fatalf("created = %+v", a)
	}
	if _, err := s.CreateAssignment(ctx, domain.CreateAssignmentInput{Date: "2024-03-04", LineID: "18", DutyID: 9, ShiftNumber: 1, DriverID: 1}, 5); !perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		t.Fatalf("second driver in slot: %v", err)
	}
	if _, err := s.CreateAssignment(ctx, domain.CreateAssignmentInput{Date: "2024-03-04", LineID: "2", DutyID: 9, ShiftNumber: 1, DriverID: 1}, 5); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("duty of another line: %v", err)
	}

	day, err := s.ScheduleByDate(ctx, domain.ScheduleQuery{Date: "2024-03-04"})
	if err != nil || len(day) != 1 || day[0].DriverName != "Čedomir Babić" {
		t.Fatalf("schedule = %+v, %v", day, err)
	}

	res, err := s.DeleteAssignment(ctx, a.ID, "2024-03-04")
	if err != nil || !res.Success || res.DeletedCount != 1 {
		t.Fatalf("delete = %+v, %v", res, err)
	}
	if _, err := s.DeleteAssignment(ctx, a.ID, "2024-03-04"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("delete again: %v", err)
	}
}

func TestDeleteRecurrenceAndReport(t *testing.T) {
	t.Parallel()
	m := fixture()
	s := newSvc(t, m, Options{})
	ctx := context.Background()

	body, err := s.RunMonthly(ctx, monthlyInput(), 1)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if body.(domain.Complete).SuccessCount != 21 {
		t.Fatalf("complete = %+v", body)
	}

	rep, err := s.MonthlyReport(ctx, domain.ReportQuery{Month: 3, Year: 2024})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var ana domain.DriverReport
	for _, d := range rep.Drivers {
		if d.ID == 2 {
			ana = d
		}
	}
	if rep.Days != 31 || ana.WorkDayCount != 21 || ana.FreeDayCount != 10 || ana.FreeDays[0] != "2024-03-02" {
		t.Fatalf("report = days %d, %+v", rep.Days, ana)
	}

	month, err := s.ScheduleByMonth(ctx, domain.MonthlyScheduleQuery{Month: 3, Year: 2024, LineID: "18"})
	if err != nil || len(month) != 21 {
		t.Fatalf("monthly schedule = %d, %v", len(month), err)
	}
	anchor := month[0]
	res, err := s.DeleteRecurrence(ctx, anchor.ID, anchor.Date, domain.DeleteRecurrenceQuery{Month: 3, Year: 2024, LineID: "18", DutyName: "00018-1", ShiftNumber: 1})
	if err != nil || res.DeletedCount != 21 {
		t.Fatalf("delete recurrence = %+v, %v", res, err)
	}
}
