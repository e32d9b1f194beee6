// Package domain holds DTOs for planning http and service contracts
package domain

import (
	"transitplan/internal/core/availability"
	"transitplan/internal/core/schedule"
)

// Dates are YYYY-MM-DD, times are HH:MM

// Line is an active line offered for planning
type Line struct {
	ID    string `json:"id" example:"18"`
	Title string `json:"title" example:"Zeleni venac - Banovo brdo"`
	Label string `json:"label" example:"18 - Zeleni venac - Banovo brdo"`
}

// DutiesQuery selects duties of a line running on a date
type DutiesQuery struct {
	LineID string `json:"lineId" validate:"required,max=32" example:"18"`
	Date   string `json:"date" validate:"required,service_date" example:"2024-03-04"`
}

// Duty groups the shifts of one duty name running on the requested weekday
type Duty struct {
	ID     int64  `json:"id" example:"7"`
	Name   string `json:"name" example:"00018-1"`
	Shifts []int  `json:"shifts" example:"1,2"`
}

// Driver is an active driver
type Driver struct {
	ID        int64  `json:"id" example:"15"`
	FirstName string `json:"firstName" example:"Marko"`
	LastName  string `json:"lastName" example:"Petrović"`
	FullName  string `json:"fullName" example:"Marko Petrović"`
}

// ScheduleQuery selects assignments of a day
type ScheduleQuery struct {
	Date string `json:"date" validate:"required,service_date" example:"2024-03-04"`
}

// MonthlyScheduleQuery selects assignments of a line in a month
type MonthlyScheduleQuery struct {
	Month  int    `json:"month" validate:"required,min=1,max=12" example:"3"`
	Year   int    `json:"year" validate:"required,min=2024,max=2030" example:"2024"`
	LineID string `json:"lineId" validate:"required,max=32" example:"18"`
}

// Assignment is a stored duty assignment
type Assignment struct {
	ID              int64  `json:"id" example:"1201"`
	Date            string `json:"date" example:"2024-03-04"`
	LineID          string `json:"lineId" example:"18"`
	DutyID          int64  `json:"dutyId" example:"7"`
	DutyName        string `json:"dutyName" example:"00018-1"`
	ShiftNumber     int    `json:"shiftNumber" example:"1"`
	DriverID        int64  `json:"driverId" example:"15"`
	DriverName      string `json:"driverName" example:"Marko Petrović"`
	DeparturesCount int    `json:"departuresCount" example:"12"`
	StartTime       string `json:"startTime" example:"04:30"`
	EndTime         string `json:"endTime" example:"12:10"`
	Duration        string `json:"duration" example:"07:40"`
}

// CreateAssignmentInput assigns a driver to one duty shift on one day
type CreateAssignmentInput struct {
	Date        string `json:"date" validate:"required,service_date" example:"2024-03-04"`
	LineID      string `json:"lineId" validate:"required,max=32" example:"18"`
	DutyID      int64  `json:"dutyId" validate:"required,min=1" example:"7"`
	ShiftNumber int    `json:"shiftNumber" validate:"required,shift" example:"1"`
	DriverID    int64  `json:"driverId" validate:"required,min=1" example:"15"`
}

// DeleteRecurrenceQuery narrows a monthly delete to one duty shift
type DeleteRecurrenceQuery struct {
	Month       int    `json:"month" validate:"required,min=1,max=12" example:"3"`
	Year        int    `json:"year" validate:"required,min=2024,max=2030" example:"2024"`
	LineID      string `json:"lineId" validate:"required,max=32" example:"18"`
	DutyName    string `json:"dutyName" validate:"required,max=64" example:"00018-1"`
	ShiftNumber int    `json:"shiftNumber" validate:"required,shift" example:"1"`
}

// DeleteResult acknowledges a delete
type DeleteResult struct {
	Success      bool   `json:"success" example:"true"`
	Message      string `json:"message" example:"deleted 1 assignment"`
	DeletedCount int64  `json:"deletedCount" example:"1"`
}

// AvailabilityQuery asks which drivers are free for a duty shift on a date
type AvailabilityQuery struct {
	Date            string   `json:"date" validate:"required,service_date" example:"2024-03-04"`
	LineID          string   `json:"lineId" validate:"required,max=32" example:"18"`
	DutyID          int64    `json:"dutyId" validate:"required,min=1" example:"7"`
	ShiftNumber     int      `json:"shiftNumber" validate:"required,shift" example:"1"`
	OnlyRecommended bool     `json:"onlyRecommended" example:"false"`
	DisabledFilters []string `json:"disabledFilters" example:"time-overlap"`
}

// RequestedShift describes the shift drivers are classified against
type RequestedShift struct {
	LineID      string `json:"lineId" example:"18"`
	DutyID      int64  `json:"dutyId" example:"7"`
	DutyName    string `json:"dutyName" example:"00018-1"`
	ShiftNumber int    `json:"shiftNumber" example:"1"`
	Date        string `json:"date" example:"2024-03-04"`
	StartTime   string `json:"startTime" example:"22:00"`
	EndTime     string `json:"endTime" example:"02:00"`
	Duration    string `json:"duration" example:"04:00"`
}

// ScheduledShift is a shift a driver already holds on the requested date
type ScheduledShift struct {
	LineID      string `json:"lineId" example:"18"`
	DutyName    string `json:"dutyName" example:"00018-3"`
	ShiftNumber int    `json:"shiftNumber" example:"2"`
	StartTime   string `json:"startTime" example:"00:30"`
	EndTime     string `json:"endTime" example:"06:00"`
	Duration    string `json:"duration" example:"05:30"`
}

// DriverAvailability is one classified driver
type DriverAvailability struct {
	Driver
	Free            bool                         `json:"free" example:"true"`
	Reasons         []string                     `json:"reasons"`
	Filters         []availability.FilterOutcome `json:"filters"`
	ScheduledShifts []ScheduledShift             `json:"scheduledShifts"`
	Recommendation  availability.Recommendation  `json:"recommendation"`
}

// AvailabilityResult lists free drivers first, ranked, then busy ones
type AvailabilityResult struct {
	RequestedShift RequestedShift       `json:"requestedShift"`
	Filters        []availability.Info  `json:"filters"`
	Drivers        []DriverAvailability `json:"drivers"`
	FreeCount      int                  `json:"freeCount" example:"12"`
	BusyCount      int                  `json:"busyCount" example:"3"`
}

// MonthlyInput is a recurrence pattern plus the conflict resolution
// weekday codes are 0 Sunday through 6 Saturday
type MonthlyInput struct {
	Month              int    `json:"month" validate:"required,min=1,max=12" example:"3"`
	Year               int    `json:"year" validate:"required,min=2024,max=2030" example:"2024"`
	LineID             string `json:"lineId" validate:"required,max=32" example:"18"`
	DutyName           string `json:"dutyName" validate:"required,max=64" example:"00018-1"`
	ShiftNumber        int    `json:"shiftNumber" validate:"required,shift" example:"1"`
	DriverID           int64  `json:"driverId" validate:"required,min=1" example:"15"`
	IncludedWeekdays   []int  `json:"includedWeekdays" validate:"required,min=1,max=7,dive,weekday" example:"1,2,3,4,5"`
	ExcludedWeekdays   []int  `json:"excludedWeekdays" validate:"omitempty,max=7,dive,weekday" example:"2"`
	ConflictResolution string `json:"conflictResolution" validate:"omitempty,resolution" example:"skip"`
	SaturdayDutyName   string `json:"saturdayDutyName" validate:"omitempty,max=64" example:"00018-8"`
	SundayDutyName     string `json:"sundayDutyName" validate:"omitempty,max=64" example:"00018-12"`
	SessionID          string `json:"sessionId" validate:"omitempty,max=128" example:"7c1d9a40"`
}

// ExpandResult previews an expansion without writing
type ExpandResult struct {
	Days      []ExpandedDay        `json:"days"`
	Conflicts schedule.ConflictSet `json:"conflicts"`
}

// ExpandedDay is one concrete day of a pattern
type ExpandedDay struct {
	Date        string `json:"date" example:"2024-03-04"`
	Weekday     int    `json:"weekday" example:"1"`
	DutyName    string `json:"dutyName" example:"00018-1"`
	ShiftNumber int    `json:"shiftNumber" example:"1"`
}

// Progress is a non terminal stream frame
type Progress struct {
	RunID   string               `json:"runId" example:"5f0e0a52-8d36-4f6c-9a8e-0c4f3d2b1a10"`
	Current int                  `json:"current" example:"4"`
	Total   int                  `json:"total" example:"21"`
	Status  string               `json:"status" example:"processing"`
	Results []schedule.DayResult `json:"results"`
}

// Complete is the terminal frame of a finished run
type Complete struct {
	Type  string `json:"type" example:"complete"`
	RunID string `json:"runId" example:"5f0e0a52-8d36-4f6c-9a8e-0c4f3d2b1a10"`
	schedule.Summary
}

// Conflict is the terminal frame of a run halted for resolution
type Conflict struct {
	Type      string               `json:"type" example:"conflict"`
	RunID     string               `json:"runId" example:"5f0e0a52-8d36-4f6c-9a8e-0c4f3d2b1a10"`
	Conflict  schedule.ConflictSet `json:"conflict"`
	TotalDays int                  `json:"totalDays" example:"21"`
}

// ReportQuery selects the month of a driver report
type ReportQuery struct {
	Month int `json:"month" validate:"required,min=1,max=12" example:"3"`
	Year  int `json:"year" validate:"required,min=2024,max=2030" example:"2024"`
}

// ReportDay is a worked day of a driver
type ReportDay struct {
	Date        string `json:"date" example:"2024-03-04"`
	LineID      string `json:"lineId" example:"18"`
	DutyName    string `json:"dutyName" example:"00018-1"`
	ShiftNumber int    `json:"shiftNumber" example:"1"`
}

// DriverReport is a driver's month
type DriverReport struct {
	Driver
	WorkDays     []ReportDay `json:"workDays"`
	FreeDays     []string    `json:"freeDays"`
	WorkDayCount int         `json:"workDayCount" example:"21"`
	FreeDayCount int         `json:"freeDayCount" example:"10"`
}

// MonthlyReport covers every active driver
type MonthlyReport struct {
	Month   int            `json:"month" example:"3"`
	Year    int            `json:"year" example:"2024"`
	Days    int            `json:"days" example:"31"`
	Drivers []DriverReport `json:"drivers"`
}
