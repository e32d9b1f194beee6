package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transitplan/internal/core/calendar"
)

type slot struct {
	date, line, duty string
	shift            int
}

// memStore is an in memory Calendar and Writer
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	byDay   map[string][]memRow
	failOn  map[string]error
	creates []string
}

type memRow struct {
	id     int64
	driver int64
	slot   slot
}

func newMemStore() *memStore {
	return &memStore{byDay: map[string][]memRow{}, failOn: map[string]error{}}
}

func (m *memStore) seed(date string, driver int64, line, duty string, shift int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.byDay[date] = append(m.byDay[date], memRow{id: m.nextID, driver: driver, slot: slot{date, line, duty, shift}})
}

func (m *memStore) AssignedDates(_ context.Context, driverID int64, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for day, rows := range m.byDay {
		d, _ := calendar.ParseDate(day)
		if d.Before(from) || d.After(to) {
			continue
		}
		for _, r := range rows {
			if r.driver == driverID {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, a Assignment, replace bool) (Created, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.Date.Format(calendar.DateLayout)
	if err := m.failOn[key]; err != nil {
		return Created{}, err
	}
	s := slot{key, a.LineID, a.Duty, a.ShiftNumber}
	rows := m.byDay[key]
	if replace {
		kept := rows[:0]
		for _, r := range rows {
			if r.driver == a.DriverID && r.slot == s {
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}
	for _, r := range rows {
		if r.slot == s {
			return Created{}, errors.New("slot already taken")
		}
	}
	m.nextID++
	m.byDay[key] = append(rows, memRow{id: m.nextID, driver: a.DriverID, slot: s})
	m.creates = append(m.creates, key)
	return Created{ID: m.nextID, DeparturesCount: 12}, nil
}

func (m *memStore) count(date string, driver int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.byDay[date] {
		if r.driver == driver {
			n++
		}
	}
	return n
}

func march2024(t *testing.T) []calendar.Day {
	t.Helper()
	days, err := calendar.Expand(calendar.Pattern{
		Month: 3, Year: 2024, LineID: "18", Duty: "00018-1", Shift: 1, Included: calendar.Workdays,
	})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	return days
}

func drain(t *testing.T, s *Stream) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("stream did not finish")
		}
	}
}

func TestDetectConflicts_March2024(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-06", 42, "26", "00026-4", 2)
	st.seed("2024-03-09", 42, "26", "00026-4", 2) // saturday, not expanded
	st.seed("2024-03-07", 99, "18", "00018-1", 1) // another driver

	set, err := DetectConflicts(context.Background(), st, 42, march2024(t))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if set.TotalDays != 21 || set.ConflictCount != 1 || set.Available() != 20 {
		t.Fatalf("set = %+v", set)
	}
	if len(set.ConflictDates) != 1 || set.ConflictDates[0] != "2024-03-06" {
		t.Fatalf("conflict dates = %v", set.ConflictDates)
	}
}

func TestStart_ConflictWithoutResolution(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-06", 42, "26", "00026-4", 2)
	c := NewCommitter(st, st, nil)

	s, err := c.Start(context.Background(), Plan{RunID: "r1", LineID: "18", DriverID: 42, Days: march2024(t)})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, s)
	if len(evs) != 1 || evs[0].Kind != EventConflict {
		t.Fatalf("events = %+v, want one conflict event", evs)
	}
	if evs[0].Conflict.ConflictDates[0] != "2024-03-06" || evs[0].Total != 21 {
		t.Fatalf("conflict = %+v", evs[0].Conflict)
	}
	if len(st.creates) != 0 {
		t.Fatalf("conflict must not write, got %v", st.creates)
	}
}

func TestStart_CommitsConflictFreeDays(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	c := NewCommitter(st, st, nil)
	days := march2024(t)[:20]

	s, err := c.Start(context.Background(), Plan{RunID: "r2", LineID: "18", DriverID: 5, Days: days})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	final, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final.Kind != EventComplete || final.Summary == nil {
		t.Fatalf("final = %+v", final)
	}
	sum := final.Summary
	if sum.SuccessCount != 20 || sum.ErrorCount != 0 || sum.SkippedCount != 0 || len(sum.Results) != 20 {
		t.Fatalf("summary = %+v", sum)
	}
	if final.Status != RunSuccess {
		t.Fatalf("status = %q", final.Status)
	}
}

func TestCommit_EventsAreCumulativeAndOrdered(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	c := NewCommitter(st, st, nil)
	days := march2024(t)

	var evs []Event
	sum, _, err := c.Commit(context.Background(), Plan{LineID: "18", DriverID: 5, Days: days}, func(ev Event) {
		evs = append(evs, ev)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(evs) != len(days) {
		t.Fatalf("events = %d, want %d", len(evs), len(days))
	}
	for i, ev := range evs {
		if ev.Processed != i+1 || len(ev.Results) != i+1 || ev.Total != len(days) {
			t.Fatalf("event %d not cumulative: processed=%d results=%d", i, ev.Processed, len(ev.Results))
		}
		if ev.Results[i].Date != days[i].Key() {
			t.Fatalf("event %d date %s, want %s", i, ev.Results[i].Date, days[i].Key())
		}
	}
	if sum.ProcessedDays != len(days) || len(sum.Results) != len(days) {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestCommit_SkipLeavesConflictDatesAlone(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-06", 42, "26", "00026-4", 2)
	st.seed("2024-03-12", 42, "18", "00018-1", 1)
	c := NewCommitter(st, st, nil)

	sum, set, err := c.Commit(context.Background(), Plan{LineID: "18", DriverID: 42, Days: march2024(t), Resolution: ResolutionSkip}, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if set.ConflictCount != 2 || sum.SkippedCount != 2 || sum.SuccessCount != 19 {
		t.Fatalf("summary = %+v set = %+v", sum, set)
	}
	for _, d := range set.ConflictDates {
		for _, created := range st.creates {
			if created == d {
				t.Fatalf("skip wrote on conflict date %s", d)
			}
		}
		if st.count(d, 42) != 1 {
			t.Fatalf("conflict date %s changed", d)
		}
	}
}

func TestCommit_OverwriteReplacesSameSlot(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-12", 42, "18", "00018-1", 1)
	c := NewCommitter(st, st, nil)

	sum, set, err := c.Commit(context.Background(), Plan{LineID: "18", DriverID: 42, Days: march2024(t), Resolution: ResolutionOverwrite}, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if sum.SuccessCount != 21 || sum.ErrorCount != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	for _, d := range set.ConflictDates {
		if n := st.count(d, 42); n != 1 {
			t.Fatalf("%s holds %d assignments, want 1", d, n)
		}
	}
}

func TestCommit_OverwriteKeepsOtherDuties(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-12", 42, "26", "00026-4", 2)
	c := NewCommitter(st, st, nil)

	sum, set, err := c.Commit(context.Background(), Plan{LineID: "18", DriverID: 42, Days: march2024(t), Resolution: ResolutionOverwrite}, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !set.Has("2024-03-12") || sum.SuccessCount != 21 {
		t.Fatalf("summary = %+v conflicts = %+v", sum, set)
	}
	if n := st.count("2024-03-12", 42); n != 2 {
		t.Fatalf("2024-03-12 holds %d assignments, want the old duty plus the new one", n)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	kept := false
	for _, r := range st.byDay["2024-03-12"] {
		if r.slot == (slot{"2024-03-12", "26", "00026-4", 2}) {
			kept = true
		}
	}
	if !kept {
		t.Fatalf("overwrite removed the assignment on another duty")
	}
}

func TestCommit_PerDayErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.failOn["2024-03-05"] = errors.New("no departures for shift 1")
	c := NewCommitter(st, st, nil)

	sum, _, err := c.Commit(context.Background(), Plan{LineID: "18", DriverID: 1, Days: march2024(t)}, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if sum.ErrorCount != 1 || sum.SuccessCount != 20 || sum.ProcessedDays != 21 {
		t.Fatalf("summary = %+v", sum)
	}
	for _, r := range sum.Results {
		if r.Date == "2024-03-05" && (r.Status != StatusError || r.Error == "") {
			t.Fatalf("failed day result = %+v", r)
		}
	}
}

func TestCommit_NeedsResolution(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.seed("2024-03-06", 42, "26", "00026-4", 2)
	c := NewCommitter(st, st, nil)
	if _, _, err := c.Commit(context.Background(), Plan{DriverID: 42, Days: march2024(t)}, nil); !errors.Is(err, ErrNeedsResolution) {
		t.Fatalf("err = %v, want ErrNeedsResolution", err)
	}
}

func TestStart_EmptyPlanCompletes(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	s, err := NewCommitter(st, st, nil).Start(context.Background(), Plan{DriverID: 1})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := drain(t, s)
	if len(evs) != 1 || evs[0].Kind != EventComplete || evs[0].Summary.TotalDays != 0 {
		t.Fatalf("events = %+v", evs)
	}
}

func TestStart_SurvivesCancelledCaller(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewCommitter(st, st, nil).Start(ctx, Plan{LineID: "18", DriverID: 3, Days: march2024(t)})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// the consumer walks away without reading a single event
	cancel()

	final, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final.Summary.SuccessCount != 21 {
		t.Fatalf("run did not finish: %+v", final.Summary)
	}
	evs := drain(t, s)
	if len(evs) == 0 || !evs[len(evs)-1].Terminal() {
		t.Fatalf("stream should still end with the terminal event")
	}
}

type recorder struct {
	mu   sync.Mutex
	days int
	runs int
}

func (r *recorder) DayDone(Plan, calendar.Day, DayResult) { r.mu.Lock(); r.days++; r.mu.Unlock() }
func (r *recorder) RunDone(Plan, Summary, time.Duration)  { r.mu.Lock(); r.runs++; r.mu.Unlock() }

func TestCommit_NotifiesObserver(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	rec := &recorder{}
	c := NewCommitter(st, st, rec)
	if _, _, err := c.Commit(context.Background(), Plan{DriverID: 1, Days: march2024(t)}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rec.days != 21 || rec.runs != 1 {
		t.Fatalf("observer saw days=%d runs=%d", rec.days, rec.runs)
	}
}

func TestParseResolution(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Resolution{"": ResolutionNone, "skip": ResolutionSkip, " Overwrite ": ResolutionOverwrite} {
		got, err := ParseResolution(in)
		if err != nil || got != want {
			t.Fatalf("ParseResolution(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseResolution("merge"); err == nil {
		t.Fatalf("unknown resolution should fail")
	}
}
