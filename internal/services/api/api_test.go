package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"transitplan/internal/modkit/module"
	"transitplan/internal/platform/config"
	phttp "transitplan/internal/platform/net/http"
	"transitplan/internal/platform/store"
	planmod "transitplan/internal/services/planning/module"
)

type fakePG struct{ execs int }

func (f *fakePG) Tx(_ context.Context, fn func(q store.RowQuerier) error) error { return fn(f) }
func (f *fakePG) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	f.execs++
	return nil, nil
}
func (f *fakePG) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakePG) QueryRow(context.Context, string, ...any) store.Row        { return nil }

func TestMount_RequiresPostgres(t *testing.T) {
	err := Mount(context.Background(), phttp.AdaptChi(chi.NewRouter()), Options{Config: config.New()})
	if err == nil {
		t.Fatalf("expected an error without postgres")
	}
}

func TestMount_Routes(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)
	pg := &fakePG{}
	mux := chi.NewRouter()
	err := Mount(context.Background(), phttp.AdaptChi(mux), Options{
		Config:        config.New(),
		Store:         &store.Store{PG: pg},
		EnableMetrics: true,
		EnableSwagger: true,
		Registry:      prometheus.NewRegistry(),
		MigratePG:     true,
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	if pg.execs == 0 {
		t.Fatalf("schema was not applied")
	}

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/api/v1/meta/health"); rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	if rec := get("/api/v1/planning/filters"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "time-overlap") {
		t.Fatalf("filters = %d %s", rec.Code, rec.Body.String())
	}
	if rec := get("/api/v1/meta/planning"); !strings.Contains(rec.Body.String(), `"guard":"memory"`) {
		t.Fatalf("planning info = %s", rec.Body.String())
	}
	if rec := get("/api/docs/doc.json"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/planning/drivers-availability") || !strings.Contains(rec.Body.String(), "/meta/ready") {
		t.Fatalf("doc = %d %s", rec.Code, rec.Body.String())
	}

	if names := module.Names(); len(names) != 2 {
		t.Fatalf("registered modules = %v", names)
	}
	if p, ok := module.PortsAs[planmod.Ports]("planning"); !ok || p.Planner == nil {
		t.Fatalf("planning ports not registered")
	}

	rec := get("/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "transitplan_") {
		t.Fatalf("metrics = %d %s", rec.Code, rec.Body.String())
	}
}
