// Package api provides the HTTP API for the application
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"transitplan/internal/platform/config"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/metrics"
	phttp "transitplan/internal/platform/net/http"
	"transitplan/internal/platform/net/middleware"
	"transitplan/internal/platform/store"

	"transitplan/internal/modkit"
	"transitplan/internal/modkit/httpkit"
	"transitplan/internal/modkit/module"
	"transitplan/internal/modkit/swaggerkit"

	metahttp "transitplan/internal/services/api/meta/http"
	metamod "transitplan/internal/services/api/meta/module"
	planmod "transitplan/internal/services/planning/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// Registry collects module metrics; nil uses the prometheus defaults
	Registry *prometheus.Registry

	// MigratePG applies the postgres schema before routes are mounted
	MigratePG bool
}

// Mount migrates the planning store and mounts the API onto the given router
func Mount(ctx context.Context, r phttp.Router, opt Options) error {
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gather prometheus.Gatherer = prometheus.DefaultGatherer
	if opt.Registry != nil {
		reg, gather = opt.Registry, opt.Registry
	}

	deps := modkit.Deps{
		Cfg: opt.Config,
		Reg: reg,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
		deps.RDS = opt.Store.RDS
	}
	if deps.PG == nil {
		return errors.New("api: planning requires postgres")
	}

	planOpts := planmod.FromConfig(deps.Cfg)
	planning := planmod.NewWithOptions(deps, planOpts, modkit.WithSwagger(opt.EnableSwagger))
	if err := planning.Migrate(ctx, opt.MigratePG); err != nil {
		return err
	}

	info := metahttp.PlanningInfo{
		Guard:           "memory",
		Audit:           planOpts.Audit && deps.CH != nil,
		DisabledFilters: planOpts.DisabledFilters,
	}
	if deps.RDS != nil {
		info.Guard = "redis"
	}

	mods := []module.Module{
		metamod.New(deps, info, modkit.WithMiddlewares(timeout(planOpts)), modkit.WithSwagger(opt.EnableSwagger)),
		planning,
	}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	if opt.EnableMetrics {
		r.Handle("/metrics", metrics.Handler(gather))
	}

	// the planning progress stream outlives the usual request timeout so the versioned
	// stack carries none; modules bound their own routes
	httpkit.MountAPIV1(r, httpkit.StreamingStack(), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
	return nil
}

func timeout(o planmod.Options) func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(o.Timeout)
}
