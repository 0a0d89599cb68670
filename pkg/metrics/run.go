// Package metrics records per-run posting metrics and exports them as a
// Prometheus textfile.
//
// The poster is a one-shot process started by cron, so nothing is scraped
// directly. Every metric lives on a private registry and is written to a
// textfile that node_exporter's textfile collector picks up.
package metrics

import (
	"bytes"
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"poster/pkg/persistence"
	"poster/pkg/utils"
)

// RunMetrics holds the metrics for a single engine invocation.
type RunMetrics struct {
	registry  *prometheus.Registry
	runs      *prometheus.CounterVec
	attempts  prometheus.Histogram
	fallbacks prometheus.Counter
	energy    prometheus.Gauge
	lastRun   prometheus.Gauge
}

// NewRunMetrics creates the run metrics on a fresh private registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &RunMetrics{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poster_runs_total",
				Help: "Engine runs by outcome and slot",
			},
			[]string{"outcome", "slot"},
		),
		attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poster_generation_attempts",
			Help:    "Generation attempts made per run",
			Buckets: []float64{0, 1, 2, 3, 5},
		}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "poster_fallback_used_total",
			Help: "Runs that published text from the fallback pool",
		}),
		energy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "poster_energy",
			Help: "Persona energy after the run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "poster_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry returns the registry so other collectors (LLM metrics) can share it.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRun observes a finished run.
func (m *RunMetrics) RecordRun(_ context.Context, run *persistence.Run) error {
	m.runs.WithLabelValues(run.Outcome, run.Slot).Inc()
	m.attempts.Observe(float64(run.Attempts))
	if run.Source == "fallback" {
		m.fallbacks.Inc()
	}
	m.energy.Set(float64(run.Energy))
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
	return nil
}

// WriteTextfile gathers every registered metric and atomically writes the
// text exposition format to path.
func (m *RunMetrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
