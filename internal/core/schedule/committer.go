package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"transitplan/internal/core/calendar"
)

// Run statuses carried by events
const (
	RunProcessing = "processing"
	RunSuccess    = "success"
	RunError      = "error"
)

// ErrNeedsResolution is returned by Commit when conflicts exist and no resolution was given
var ErrNeedsResolution = errors.New("schedule: conflicts require skip or overwrite")

// Observer hears about days and runs as they finish; calls come from the run goroutine
type Observer interface {
	DayDone(plan Plan, day calendar.Day, res DayResult)
	RunDone(plan Plan, sum Summary, elapsed time.Duration)
}

// Committer runs the detect then commit pipeline
type Committer struct {
	Calendar Calendar
	Writer   Writer
	Observer Observer

	now func() time.Time
}

// NewCommitter wires a committer; observer may be nil
func NewCommitter(cal Calendar, w Writer, obs Observer) *Committer {
	if cal == nil || w == nil {
		panic("schedule.Committer requires a Calendar and a Writer")
	}
	return &Committer{Calendar: cal, Writer: w, Observer: obs, now: time.Now}
}

// Start checks conflicts synchronously, then commits in the background
//
// When conflicts exist and the plan has no resolution the returned stream holds only a
// conflict event and nothing is written. An empty plan completes immediately. Otherwise
// the run continues even if ctx is cancelled after Start returns.
func (c *Committer) Start(ctx context.Context, plan Plan) (*Stream, error) {
	days := sortedDays(plan.Days)
	plan.Days = days

	conflicts, err := DetectConflicts(ctx, c.Calendar, plan.DriverID, days)
	if err != nil {
		return nil, err
	}

	if len(days) == 0 {
		sum := Summary{Results: []DayResult{}}
		return Finished(completeEvent(plan.RunID, sum)), nil
	}

	if conflicts.ConflictCount > 0 && plan.Resolution == ResolutionNone {
		return Finished(Event{
			Kind:     EventConflict,
			RunID:    plan.RunID,
			Total:    len(days),
			Status:   RunProcessing,
			Results:  []DayResult{},
			Conflict: &conflicts,
		}), nil
	}

	s := newStream()
	runCtx := context.WithoutCancel(ctx)
	go func() {
		sum := c.commit(runCtx, plan, conflicts, s.push)
		s.finish(completeEvent(plan.RunID, sum))
	}()
	return s, nil
}

// Commit runs the whole pipeline in the caller's goroutine and returns the summary
func (c *Committer) Commit(ctx context.Context, plan Plan, emit func(Event)) (Summary, ConflictSet, error) {
	plan.Days = sortedDays(plan.Days)
	conflicts, err := DetectConflicts(ctx, c.Calendar, plan.DriverID, plan.Days)
	if err != nil {
		return Summary{}, ConflictSet{}, err
	}
	if conflicts.ConflictCount > 0 && plan.Resolution == ResolutionNone {
		return Summary{}, conflicts, ErrNeedsResolution
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return c.commit(ctx, plan, conflicts, emit), conflicts, nil
}

func (c *Committer) commit(ctx context.Context, plan Plan, conflicts ConflictSet, emit func(Event)) Summary {
	started := c.now()
	total := len(plan.Days)
	results := make([]DayResult, 0, total)
	sum := Summary{TotalDays: total}

	for _, day := range plan.Days {
		res := c.commitDay(ctx, plan, conflicts, day)
		results = append(results, res)

		switch res.Status {
		case StatusSuccess:
			sum.SuccessCount++
		case StatusSkipped:
			sum.SkippedCount++
		case StatusError:
			sum.ErrorCount++
		}
		if c.Observer != nil {
			c.Observer.DayDone(plan, day, res)
		}

		n := len(results)
		emit(Event{
			Kind:      EventProgress,
			RunID:     plan.RunID,
			Processed: n,
			Total:     total,
			Status:    RunProcessing,
			Results:   results[:n:n],
		})
	}

	sum.ProcessedDays = len(results)
	sum.Results = results[:len(results):len(results)]
	if c.Observer != nil {
		c.Observer.RunDone(plan, sum, c.now().Sub(started))
	}
	return sum
}

func (c *Committer) commitDay(ctx context.Context, plan Plan, conflicts ConflictSet, day calendar.Day) (res DayResult) {
	res.Date = day.Key()

	replace := false
	if conflicts.Has(res.Date) {
		if plan.Resolution == ResolutionSkip {
			res.Status = StatusSkipped
			return res
		}
		replace = true
	}

	defer func() {
		if r := recover(); r != nil {
			res = DayResult{Date: day.Key(), Status: StatusError, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	created, err := c.Writer.Create(ctx, Assignment{
		Date:        day.Date,
		LineID:      plan.LineID,
		Duty:        day.Duty,
		ShiftNumber: day.Shift,
		DriverID:    plan.DriverID,
		CreatedBy:   plan.CreatedBy,
	}, replace)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}
	res.Status = StatusSuccess
	res.DeparturesCount = created.DeparturesCount
	return res
}

func completeEvent(runID string, sum Summary) Event {
	status := RunSuccess
	if sum.ErrorCount > 0 {
		status = RunError
	}
	return Event{
		Kind:      EventComplete,
		RunID:     runID,
		Processed: sum.ProcessedDays,
		Total:     sum.TotalDays,
		Status:    status,
		Results:   sum.Results,
		Summary:   &sum,
	}
}

func sortedDays(days []calendar.Day) []calendar.Day {
	out := append([]calendar.Day(nil), days...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
