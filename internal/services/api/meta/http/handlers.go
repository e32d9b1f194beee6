// Package http serves liveness, readiness and build info for the planning API
package http

import (
	"context"
	"net/http"
	"time"

	"transitplan/internal/core/version"
	"transitplan/internal/modkit/httpkit"
)

// Pinger is a backend that can answer a readiness probe
type Pinger interface {
	Ping(context.Context) error
}

// PingFunc adapts a func to Pinger
type PingFunc func(context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps are what the meta routes report on
// backends are any so a nil one reads as skipped and a non Pinger as unknown
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	RDS         any
	Planning    PlanningInfo
}

// PlanningInfo is how the scheduling engine was configured at startup
type PlanningInfo struct {
	Guard           string   `json:"guard"`
	Audit           bool     `json:"audit"`
	DisabledFilters []string `json:"disabled_filters"`
}

// HealthResponse is the /health body
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one backend probe: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok, degraded when an optional backend is down, or fail when postgres is
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse is the /service body; uptime is in seconds
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// PlanningResponse is the /planning body
type PlanningResponse struct {
	Planning PlanningInfo      `json:"planning"`
	Build    version.BuildInfo `json:"build"`
}

const readyTimeout = 2 * time.Second

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts GET /health, /ready, /version, /service and /planning
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d, now: time.Now}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/planning", h.planning)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.deps.ServiceName, Started: stamp(h.deps.StartedAt), Now: stamp(h.now())}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	backends := []struct {
		name     string
		b        any
		required bool
	}{
		{"pg", h.deps.PG, true},
		{"ch", h.deps.CH, false},
		{"redis", h.deps.RDS, false},
	}

	out := ReadyResponse{Status: "ok", Now: stamp(h.now())}
	for _, be := range backends {
		c := probe(ctx, be.name, be.b)
		out.Checks = append(out.Checks, c)
		switch {
		case be.required && c.Status == "fail":
			out.Status = "fail"
		case out.Status == "fail":
		case c.Status == "fail" || c.Status == "unknown" || (be.required && c.Status == "skipped"):
			out.Status = "degraded"
		}
	}
	return out, nil
}

func probe(ctx context.Context, name string, b any) ReadyCheck {
	if b == nil {
		return ReadyCheck{Name: name, Status: "skipped"}
	}
	p, ok := b.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: "unknown"}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: "ok"}
}

func (h *handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: stamp(h.deps.StartedAt),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) planning(*http.Request) (any, error) {
	info := h.deps.Planning
	if info.DisabledFilters == nil {
		info.DisabledFilters = []string{}
	}
	return PlanningResponse{Planning: info, Build: version.Info()}, nil
}
