package modkit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"transitplan/internal/modkit/repokit"
	"transitplan/internal/platform/config"
	"transitplan/internal/platform/logger"
	"transitplan/internal/platform/store"
)

// Deps is what a module constructor receives
// only PG is required by planning; the rest may be zero
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner

	// CH receives the planning audit trail
	CH store.Clickhouse

	// RDS backs the cross replica submission guard
	RDS *redis.Client

	// Reg receives module metrics; nil means the default registerer
	Reg prometheus.Registerer
}
