// Package schedule detects conflicts for an expanded pattern and commits it day by day
//
// A run is strictly sequential in date order. Each day's write is independent and a failed
// day never aborts the run. Progress is pushed as cumulative events on a Stream that ends
// with exactly one terminal event: complete or conflict.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"transitplan/internal/core/calendar"
)

// Resolution is the operator's answer to a conflict
type Resolution string

// Resolutions
const (
	ResolutionNone      Resolution = ""
	ResolutionSkip      Resolution = "skip"
	ResolutionOverwrite Resolution = "overwrite"
)

// ParseResolution accepts "", "skip" and "overwrite"
func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(strings.ToLower(strings.TrimSpace(s))); r {
	case ResolutionNone, ResolutionSkip, ResolutionOverwrite:
		return r, nil
	}
	return ResolutionNone, fmt.Errorf("schedule: unknown conflict resolution %q", s)
}

// Status is the outcome of one day
type Status string

// Day statuses
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// DayResult is appended once per processed day and never changed afterwards
type DayResult struct {
	Date            string `json:"date"`
	Status          Status `json:"status"`
	DeparturesCount int    `json:"departuresCount,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ConflictSet lists the expanded dates on which the driver already works
type ConflictSet struct {
	ConflictDates []string `json:"conflictDates"`
	TotalDays     int      `json:"totalDays"`
	ConflictCount int      `json:"conflictCount"`
}

// Has reports whether date (YYYY-MM-DD) is a conflict
func (c ConflictSet) Has(date string) bool {
	for _, d := range c.ConflictDates {
		if d == date {
			return true
		}
	}
	return false
}

// Available is the number of expanded days without a conflict
func (c ConflictSet) Available() int { return c.TotalDays - c.ConflictCount }

// Assignment is a new duty assignment for one day
type Assignment struct {
	Date        time.Time
	LineID      string
	Duty        string
	ShiftNumber int
	DriverID    int64
	CreatedBy   int64
}

// Created is what the store reports for a written assignment
type Created struct {
	ID              int64
	DeparturesCount int
}

// Calendar answers which dates a driver already holds any assignment on
type Calendar interface {
	AssignedDates(ctx context.Context, driverID int64, from, to time.Time) ([]time.Time, error)
}

// Writer persists one day
// with replace set it first removes the driver's assignment in the same line, duty and
// shift slot on that date; both steps belong to one write
type Writer interface {
	Create(ctx context.Context, a Assignment, replace bool) (Created, error)
}

// Plan is everything a run needs
type Plan struct {
	RunID      string
	LineID     string
	DriverID   int64
	CreatedBy  int64
	Days       []calendar.Day
	Resolution Resolution
}

// Summary is the terminal tally of a run
type Summary struct {
	ProcessedDays int         `json:"processedDays"`
	TotalDays     int         `json:"totalDays"`
	SuccessCount  int         `json:"successCount"`
	SkippedCount  int         `json:"skippedCount"`
	ErrorCount    int         `json:"errorCount"`
	Results       []DayResult `json:"results"`
}

// EventKind tags stream events
type EventKind string

// Event kinds
const (
	EventProgress EventKind = "progress"
	EventComplete EventKind = "complete"
	EventConflict EventKind = "conflict"
)

// Event is a self contained snapshot of a run
type Event struct {
	Kind      EventKind
	RunID     string
	Processed int
	Total     int
	// Status of the run at this point: processing, success or error
	Status   string
	Results  []DayResult
	Summary  *Summary
	Conflict *ConflictSet
}

// Terminal reports whether no event follows this one
func (e Event) Terminal() bool { return e.Kind == EventComplete || e.Kind == EventConflict }
