// Package module mounts the meta endpoints
package module

import (
	"context"
	"net/http"
	"strings"
	"time"

	modkit "transitplan/internal/modkit"
	"transitplan/internal/modkit/httpkit"
	"transitplan/internal/modkit/swaggerkit"
	str "transitplan/internal/platform/strings"

	metahttp "transitplan/internal/services/api/meta/http"
)

// Module serves health, readiness and build info
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	deps   metahttp.Deps
}

// New builds the meta module; info is reported as is by /meta/planning
func New(deps modkit.Deps, info metahttp.PlanningInfo, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	d := metahttp.Deps{
		ServiceName: "transitplan-api",
		StartedAt:   time.Now(),
		Planning:    info,
	}
	// typed nils must stay untyped so /ready reports them as skipped
	if deps.PG != nil {
		d.PG = deps.PG
	}
	if deps.CH != nil {
		d.CH = deps.CH
	}
	if rds := deps.RDS; rds != nil {
		d.RDS = metahttp.PingFunc(func(ctx context.Context) error { return rds.Ping(ctx).Err() })
	}

	if b.SwaggerOn {
		swaggerkit.Register(docPaths(b.Prefix))
	}
	return &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, deps: d}
}

func docPaths(prefix string) swaggerkit.SpecMutator {
	summaries := map[string]string{
		"/health":   "Liveness",
		"/ready":    "Readiness with a check per backend",
		"/version":  "Build info",
		"/service":  "Service name and uptime",
		"/planning": "Guard backend, audit and disabled availability filters",
	}
	return func(spec map[string]any) {
		paths := spec["paths"].(map[string]any)
		for p, summary := range summaries {
			paths[strings.TrimSuffix(prefix, "/")+p] = map[string]any{
				"get": map[string]any{
					"tags":      []any{"Meta"},
					"summary":   summary,
					"responses": map[string]any{"200": map[string]any{"description": "OK"}},
				},
			}
		}
	}
}

// MountRoutes mounts the meta routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		if len(m.mws) > 0 {
			rr.Use(m.mws...)
		}
		metahttp.Register(rr, m.deps)
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "meta") }

// Prefix returns the mount path
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports is nil; meta exports nothing
func (m *Module) Ports() any { return nil }
