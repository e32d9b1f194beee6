// Package http provides http transport for planning
package http

import (
	stdhttp "net/http"
	"time"

	"transitplan/internal/modkit/httpkit"
	"transitplan/internal/platform/net/middleware"
	"transitplan/internal/services/planning/domain"
	svc "transitplan/internal/services/planning/service"
)

// Options tune the transport
type Options struct {
	// Heartbeat is the progress stream keepalive interval, 0 disables it
	Heartbeat time.Duration
	// Timeout bounds every route except the progress stream, 0 disables it
	Timeout time.Duration
}

// Register mounts planning endpoints on the given router
func Register(r httpkit.Router, s svc.Service, o Options) {
	h := &handlers{svc: s}

	r.Group(func(g httpkit.Router) {
		if o.Timeout > 0 {
			g.Use(middleware.Timeout(o.Timeout))
		}

		// catalog
		httpkit.Get(g, "/lines", h.lines)
		httpkit.GetQuery[domain.DutiesQuery](g, "/duties", h.duties)
		httpkit.Get(g, "/drivers", h.drivers)
		httpkit.Get(g, "/filters", h.filters)

		// single day and monthly listings
		httpkit.GetQuery[domain.ScheduleQuery](g, "/schedule", h.scheduleByDate)
		httpkit.GetQuery[domain.MonthlyScheduleQuery](g, "/schedule/monthly", h.scheduleByMonth)
		httpkit.PostJSON[domain.CreateAssignmentInput](g, "/schedule", h.createAssignment)
		httpkit.Delete(g, "/schedule/{id}/{date}", h.deleteAssignment)
		httpkit.DeleteQuery[domain.DeleteRecurrenceQuery](g, "/schedule/monthly/{id}/{date}", h.deleteRecurrence)

		// driver selection
		httpkit.GetQuery[domain.AvailabilityQuery](g, "/drivers-availability", h.availability)

		// monthly pipeline
		httpkit.PostJSON[domain.MonthlyInput](g, "/expand", h.expand)
		httpkit.PostJSON[domain.MonthlyInput](g, "/monthly-schedule", h.runMonthly)

		httpkit.GetQuery[domain.ReportQuery](g, "/monthly-driver-report", h.report)
	})

	r.Get("/monthly-schedule-stream", (&streamer{svc: s, heartbeat: o.Heartbeat}).ServeHTTP)
}

type handlers struct{ svc svc.Service }

// swagger:route GET /planning/lines Planning planningLines
// @Summary Active lines
// @Tags Planning
// @Produce json
// @Success 200 {array} domain.Line "ok"
// @Router /planning/lines [get]
func (h *handlers) lines(r *stdhttp.Request) (any, error) {
	return h.svc.Lines(r.Context())
}

// @Summary Duties of a line running on a date
// @Tags Planning
// @Produce json
// @Param lineId query string true "Line"
// @Param date query string true "Date"
// @Success 200 {array} domain.Duty "ok"
// @Router /planning/duties [get]
func (h *handlers) duties(r *stdhttp.Request, in domain.DutiesQuery) (any, error) {
	return h.svc.Duties(r.Context(), in)
}

// @Summary Active drivers
// @Tags Planning
// @Produce json
// @Success 200 {array} domain.Driver "ok"
// @Router /planning/drivers [get]
func (h *handlers) drivers(r *stdhttp.Request) (any, error) {
	return h.svc.Drivers(r.Context())
}

// @Summary Registered availability filters
// @Tags Planning
// @Produce json
// @Router /planning/filters [get]
func (h *handlers) filters(_ *stdhttp.Request) (any, error) {
	return h.svc.Filters(), nil
}

// @Summary Assignments on a date
// @Tags Planning
// @Produce json
// @Param date query string true "Date"
// @Success 200 {array} domain.Assignment "ok"
// @Router /planning/schedule [get]
func (h *handlers) scheduleByDate(r *stdhttp.Request, in domain.ScheduleQuery) (any, error) {
	return h.svc.ScheduleByDate(r.Context(), in)
}

// @Summary Assignments of a line in a month
// @Tags Planning
// @Produce json
// @Param month query int true "Month"
// @Param year query int true "Year"
// @Param lineId query string true "Line"
// @Success 200 {array} domain.Assignment "ok"
// @Router /planning/schedule/monthly [get]
func (h *handlers) scheduleByMonth(r *stdhttp.Request, in domain.MonthlyScheduleQuery) (any, error) {
	return h.svc.ScheduleByMonth(r.Context(), in)
}

// @Summary Assign a driver to a duty shift on one day
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body domain.CreateAssignmentInput true "Assignment"
// @Success 201 {object} domain.Assignment "created"
// @Router /planning/schedule [post]
func (h *handlers) createAssignment(r *stdhttp.Request, in domain.CreateAssignmentInput) (any, error) {
	out, err := h.svc.CreateAssignment(r.Context(), in, httpkit.Actor(r))
	if err != nil {
		return nil, err
	}
	return httpkit.Created(out), nil
}

// @Summary Delete an assignment's duty shift for its driver on that day
// @Tags Planning
// @Produce json
// @Param id path int true "Assignment id"
// @Param date path string true "Date"
// @Success 200 {object} domain.DeleteResult "ok"
// @Router /planning/schedule/{id}/{date} [delete]
func (h *handlers) deleteAssignment(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.DeleteAssignment(r.Context(), id, httpkit.Param(r, "date"))
}

// @Summary Delete a driver's duty shift across a month
// @Tags Planning
// @Produce json
// @Param id path int true "Anchor assignment id"
// @Param date path string true "Anchor date"
// @Success 200 {object} domain.DeleteResult "ok"
// @Router /planning/schedule/monthly/{id}/{date} [delete]
func (h *handlers) deleteRecurrence(r *stdhttp.Request, in domain.DeleteRecurrenceQuery) (any, error) {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.DeleteRecurrence(r.Context(), id, httpkit.Param(r, "date"), in)
}

// @Summary Classify drivers for a duty shift
// @Tags Planning
// @Produce json
// @Param date query string true "Date"
// @Param lineId query string true "Line"
// @Param dutyId query int true "Duty"
// @Param shiftNumber query int true "Shift"
// @Param onlyRecommended query bool false "Only drivers with a default"
// @Param disabledFilters query string false "Comma separated filter ids"
// @Success 200 {object} domain.AvailabilityResult "ok"
// @Router /planning/drivers-availability [get]
func (h *handlers) availability(r *stdhttp.Request, in domain.AvailabilityQuery) (any, error) {
	return h.svc.Availability(r.Context(), in)
}

// @Summary Preview a monthly pattern and its conflicts
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body domain.MonthlyInput true "Pattern"
// @Success 200 {object} domain.ExpandResult "ok"
// @Router /planning/expand [post]
func (h *handlers) expand(r *stdhttp.Request, in domain.MonthlyInput) (any, error) {
	return h.svc.Expand(r.Context(), in)
}

// @Summary Expand and commit a monthly pattern, blocking until done
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body domain.MonthlyInput true "Pattern"
// @Success 200 {object} domain.Complete "complete or conflict"
// @Failure 409 {object} httpkit.Envelope "submission in progress"
// @Router /planning/monthly-schedule [post]
func (h *handlers) runMonthly(r *stdhttp.Request, in domain.MonthlyInput) (any, error) {
	return h.svc.RunMonthly(r.Context(), in, httpkit.Actor(r))
}

// @Summary Worked and free days of every driver in a month
// @Tags Planning
// @Produce json
// @Param month query int true "Month"
// @Param year query int true "Year"
// @Success 200 {object} domain.MonthlyReport "ok"
// @Router /planning/monthly-driver-report [get]
func (h *handlers) report(r *stdhttp.Request, in domain.ReportQuery) (any, error) {
	return h.svc.MonthlyReport(r.Context(), in)
}
