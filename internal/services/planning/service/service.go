// Package service contains planning workflows
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"transitplan/internal/core/availability"
	"transitplan/internal/core/schedule"
	"transitplan/internal/modkit/repokit"
	"transitplan/internal/platform/inflight"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/metrics"
	"transitplan/internal/services/planning/domain"
	"transitplan/internal/services/planning/repo"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Options control service behavior; every field is optional
type Options struct {
	// Chain is cloned per availability request; defaults to availability.Default
	Chain *availability.Chain

	// Guard serializes monthly submissions per session; defaults to an in process guard
	Guard inflight.Guard

	Metrics *metrics.Planning
	Audit   *repo.Audit

	// AuditTimeout bounds the audit insert after a run
	AuditTimeout time.Duration
}

// Svc implements the service port
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	chain     *availability.Chain
	guard     inflight.Guard
	metrics   *metrics.Planning
	committer *schedule.Committer
	log       *logger.Logger

	newRunID func() string
}

var _ Service = (*Svc)(nil)

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Svc {
	if db == nil {
		panic("planning.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("planning.Service requires a non nil Repo binder")
	}
	if opt.Chain == nil {
		opt.Chain = availability.Default()
	}
	if opt.Guard == nil {
		opt.Guard = inflight.NewMemory(10 * time.Minute)
	}
	if opt.AuditTimeout <= 0 {
		opt.AuditTimeout = 10 * time.Second
	}

	s := &Svc{
		Repo:     binder.Bind(db),
		binder:   binder,
		db:       db,
		chain:    opt.Chain,
		guard:    opt.Guard,
		metrics:  opt.Metrics,
		log:      logger.Named("planning"),
		newRunID: uuid.NewString,
	}
	obs := &runObserver{log: s.log, metrics: opt.Metrics, audit: opt.Audit, auditTimeout: opt.AuditTimeout}
	s.committer = schedule.NewCommitter(calendarPort{s}, dayWriter{s}, obs)
	return s
}

// Filters lists the registered availability filters with their default state
func (s *Svc) Filters() []availability.Info { return s.chain.Filters() }

// calendarPort answers conflict lookups from the bound repo
type calendarPort struct{ s *Svc }

func (c calendarPort) AssignedDates(ctx context.Context, driverID int64, from, to time.Time) ([]time.Time, error) {
	return c.s.Repo.AssignedDates(ctx, driverID, from, to)
}
