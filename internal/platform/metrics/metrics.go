// Package metrics registers prometheus collectors for planning runs
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transitplan"

// Planning records commit and availability outcomes
type Planning struct {
	days         *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runSeconds   prometheus.Histogram
	availability *prometheus.CounterVec
}

// NewPlanning registers on the default registerer
func NewPlanning() (*Planning, error) {
	return NewPlanningWithRegistry(prometheus.DefaultRegisterer)
}

// NewPlanningWithRegistry registers on reg; nil means the default registerer
// registering twice reuses the existing collectors
func NewPlanningWithRegistry(reg prometheus.Registerer) (*Planning, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	days := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planning",
		Name:      "days_total",
		Help:      "Days processed by monthly commit runs, by outcome",
	}, []string{"status"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planning",
		Name:      "runs_total",
		Help:      "Monthly submissions by terminal outcome",
	}, []string{"outcome"})
	runSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "planning",
		Name:      "run_seconds",
		Help:      "Wall time of a monthly commit run",
		Buckets:   prometheus.DefBuckets,
	})
	availability := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "availability",
		Name:      "requests_total",
		Help:      "Driver availability lookups by outcome",
	}, []string{"outcome"})

	var err error
	if days, err = register(reg, days); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if runSeconds, err = register(reg, runSeconds); err != nil {
		return nil, err
	}
	if availability, err = register(reg, availability); err != nil {
		return nil, err
	}
	return &Planning{days: days, runs: runs, runSeconds: runSeconds, availability: availability}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Day counts one processed day
func (p *Planning) Day(status string) {
	if p == nil {
		return
	}
	p.days.WithLabelValues(status).Inc()
}

// Run counts a finished submission; elapsed is skipped when zero
func (p *Planning) Run(outcome string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		p.runSeconds.Observe(elapsed.Seconds())
	}
}

// Availability counts one availability lookup
func (p *Planning) Availability(outcome string) {
	if p == nil {
		return
	}
	p.availability.WithLabelValues(outcome).Inc()
}

// Handler exposes gatherer in the prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
