// Package module wires planning into the API using modkit
package module

import (
	"context"
	"net/http"

	"transitplan/internal/core/availability"
	modkit "transitplan/internal/modkit"
	"transitplan/internal/modkit/httpkit"
	"transitplan/internal/modkit/swaggerkit"
	"transitplan/internal/platform/inflight"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/metrics"
	str "transitplan/internal/platform/strings"
	planhttp "transitplan/internal/services/planning/http"
	planrepo "transitplan/internal/services/planning/repo"
	plansvc "transitplan/internal/services/planning/service"
)

// Module implements the planning module
type Module struct {
	deps   modkit.Deps
	opts   Options
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	swaggerOn bool

	svc   plansvc.Service
	audit *planrepo.Audit
}

// New constructs the planning module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions constructs the planning module from explicit options
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("planning"), modkit.WithPrefix("/planning")}, opts...)...)
	log := logger.Named("planning")

	chain := availability.Default()
	for _, id := range o.DisabledFilters {
		if err := chain.SetEnabled(id, false); err != nil {
			log.Warn().Err(err).Str("filter", id).Msg("ignoring unknown disabled filter")
		}
	}

	var guard inflight.Guard
	if deps.RDS != nil {
		guard = inflight.NewRedis(deps.RDS, o.GuardTTL)
	} else {
		guard = inflight.NewMemory(o.GuardTTL)
	}

	var pm *metrics.Planning
	if o.Metrics {
		var err error
		if pm, err = metrics.NewPlanningWithRegistry(deps.Reg); err != nil {
			log.Warn().Err(err).Msg("planning metrics disabled")
			pm = nil
		}
	}

	var audit *planrepo.Audit
	if o.Audit {
		audit = planrepo.NewAudit(deps.CH)
	}

	svc := plansvc.New(deps.PG, planrepo.NewPG(), plansvc.Options{
		Chain:        chain,
		Guard:        guard,
		Metrics:      pm,
		Audit:        audit,
		AuditTimeout: o.AuditTimeout,
	})

	m := &Module{
		deps:      deps,
		opts:      o,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		svc:       svc,
		audit:     audit,
	}
	m.ports = Ports{Planner: svc}
	if b.SwaggerOn {
		swaggerkit.Register(docPaths(b.Prefix))
	}
	return m
}

// Migrate creates the planning tables; withPG false leaves postgres alone
func (m *Module) Migrate(ctx context.Context, withPG bool) error {
	if withPG {
		if err := planrepo.Migrate(ctx, m.deps.PG); err != nil {
			return err
		}
	}
	return m.audit.Migrate(ctx)
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		planhttp.Register(rr, m.svc, planhttp.Options{Heartbeat: m.opts.Heartbeat, Timeout: m.opts.Timeout})
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
