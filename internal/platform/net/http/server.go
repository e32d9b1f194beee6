package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"transitplan/internal/platform/config"
	"transitplan/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi mux and the listening http.Server
// WriteTimeout stays zero so progress streams are not cut off
type Server struct {
	mux *chi.Mux
	srv *stdhttp.Server
}

// NewServer reads PORT, READ_HEADER_TIMEOUT and IDLE_TIMEOUT from cfg
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		mux: m,
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("PORT", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: cfg.MayDuration("READ_HEADER_TIMEOUT", 10*time.Second),
			IdleTimeout:       cfg.MayDuration("IDLE_TIMEOUT", 2*time.Minute),
		},
	}
}

// WithRootMiddleware installs mw on the mux before any route, e.g. a load balancer heartbeat
func WithRootMiddleware(mw ...func(stdhttp.Handler) stdhttp.Handler) func(*chi.Mux) {
	return func(m *chi.Mux) { m.Use(mw...) }
}

// Router returns the platform facade over the mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listening address
func (s *Server) Addr() string { return s.srv.Addr }

// Run listens until Shutdown; a clean shutdown returns nil
func (s *Server) Run(context.Context) error {
	logger.Named("http").Info().Str("addr", s.srv.Addr).Msg("http listening")
	if err := s.srv.ListenAndServe(); !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections until ctx ends
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
