package module

import (
	"time"

	"transitplan/internal/platform/config"
)

// Options for the planning module
type Options struct {
	GuardTTL        time.Duration
	Heartbeat       time.Duration
	Timeout         time.Duration
	Audit           bool
	AuditTimeout    time.Duration
	Metrics         bool
	DisabledFilters []string
}

// FromConfig fills options from environment
// PLANNING_GUARD_TTL (default 10m) bounds how long one monthly submission holds its session
// PLANNING_HEARTBEAT (default 15s) is the progress stream keepalive interval, 0 disables it
// PLANNING_TIMEOUT (default 30s) bounds every route except the progress stream
// PLANNING_AUDIT (default true) records finished runs in clickhouse when it is configured
// PLANNING_AUDIT_TIMEOUT (default 10s) bounds the audit insert
// PLANNING_METRICS (default true) registers planning metrics
// PLANNING_DISABLED_FILTERS (default none) lists availability filters switched off by default
func FromConfig(cfg config.Conf) Options {
	p := cfg.Prefix("PLANNING_")
	return Options{
		GuardTTL:        p.MayDuration("GUARD_TTL", 10*time.Minute),
		Heartbeat:       p.MayDuration("HEARTBEAT", 15*time.Second),
		Timeout:         p.MayDuration("TIMEOUT", 30*time.Second),
		Audit:           p.MayBool("AUDIT", true),
		AuditTimeout:    p.MayDuration("AUDIT_TIMEOUT", 10*time.Second),
		Metrics:         p.MayBool("METRICS", true),
		DisabledFilters: p.MayCSV("DISABLED_FILTERS", nil),
	}
}
