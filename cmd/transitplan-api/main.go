// Command transitplan-api serves the planning HTTP API
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"transitplan/internal/core/version"
	"transitplan/internal/platform/config"
	"transitplan/internal/platform/logger"
	phttp "transitplan/internal/platform/net/http"
	"transitplan/internal/platform/net/middleware"
	"transitplan/internal/platform/store"

	"transitplan/internal/services/api"
)

func main() {
	version.SetService("transitplan-api")

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, "transitplan-api", "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// reads CORE_API_PORT; /healthz answers before routing for the load balancer
	srv := phttp.NewServer(apiCfg, phttp.WithRootMiddleware(middleware.Heartbeat("/healthz")))

	if err := api.Mount(ctx, srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
		Registry:       reg,
		MigratePG:      root.Prefix("SERVICE_PGSQL_").MayBool("MIGRATE", false),
	}); err != nil {
		l.Panic().Err(err).Msg("api.Mount failed")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}
