package domain

import "transitplan/internal/core/schedule"

// Frame names
const (
	FrameProgress = "progress"
	FrameComplete = "complete"
	FrameConflict = "conflict"
)

// Frame maps a stream event to its wire name and payload
func Frame(ev schedule.Event) (string, any) {
	switch ev.Kind {
	case schedule.EventComplete:
		var sum schedule.Summary
		if ev.Summary != nil {
			sum = *ev.Summary
		}
		if sum.Results == nil {
			sum.Results = []schedule.DayResult{}
		}
		return FrameComplete, Complete{Type: FrameComplete, RunID: ev.RunID, Summary: sum}
	case schedule.EventConflict:
		var cs schedule.ConflictSet
		if ev.Conflict != nil {
			cs = *ev.Conflict
		}
		return FrameConflict, Conflict{Type: FrameConflict, RunID: ev.RunID, Conflict: cs, TotalDays: cs.TotalDays}
	}
	results := ev.Results
	if results == nil {
		results = []schedule.DayResult{}
	}
	return FrameProgress, Progress{
		RunID:   ev.RunID,
		Current: ev.Processed,
		Total:   ev.Total,
		Status:  ev.Status,
		Results: results,
	}
}
