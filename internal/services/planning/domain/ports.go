package domain

import (
	"context"

	"transitplan/internal/core/availability"
	"transitplan/internal/core/schedule"
)

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Lines(ctx context.Context) ([]Line, error)
	Duties(ctx context.Context, in DutiesQuery) ([]Duty, error)
	Drivers(ctx context.Context) ([]Driver, error)

	ScheduleByDate(ctx context.Context, in ScheduleQuery) ([]Assignment, error)
	ScheduleByMonth(ctx context.Context, in MonthlyScheduleQuery) ([]Assignment, error)
	CreateAssignment(ctx context.Context, in CreateAssignmentInput, createdBy int64) (Assignment, error)
	DeleteAssignment(ctx context.Context, id int64, date string) (DeleteResult, error)
	DeleteRecurrence(ctx context.Context, id int64, date string, in DeleteRecurrenceQuery) (DeleteResult, error)

	Availability(ctx context.Context, in AvailabilityQuery) (AvailabilityResult, error)
	Filters() []availability.Info

	Expand(ctx context.Context, in MonthlyInput) (ExpandResult, error)
	StartMonthly(ctx context.Context, in MonthlyInput, createdBy int64) (*schedule.Stream, error)
	RunMonthly(ctx context.Context, in MonthlyInput, createdBy int64) (any, error)
	MonthlyReport(ctx context.Context, in ReportQuery) (MonthlyReport, error)
}
