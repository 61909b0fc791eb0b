// Package telemetry exposes the engine's Prometheus instrumentation.
// Grounded on the broad use of github.com/prometheus/client_golang across
// the pack's adaptive-monitoring services; wired here since no teacher
// file offers its own metrics layer to adapt, per SPEC_FULL.md's domain
// stack.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's counters and gauges. Handlers increment
// these directly; the registry returned by New serves them at /metrics.
type Metrics struct {
	SamplesIngested  *prometheus.CounterVec
	SamplesRejected  *prometheus.CounterVec
	AlertsFired      *prometheus.CounterVec
	PushesSuppressed *prometheus.CounterVec
	ActiveDetectors  prometheus.Gauge
	SampleLatency    prometheus.Histogram
}

// New registers the engine's metric collectors on a fresh registry and
// returns the bundle plus the registry to serve at /metrics.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		SamplesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spc_samples_ingested_total",
			Help: "Samples successfully processed by the detection engine.",
		}, []string{"item"}),
		SamplesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spc_samples_rejected_total",
			Help: "Samples rejected at the ingest boundary (bad sample).",
		}, []string{"reason"}),
		AlertsFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spc_alerts_fired_total",
			Help: "CUSUM alerts fired, labeled by alert side.",
		}, []string{"side"}),
		PushesSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spc_pushes_suppressed_total",
			Help: "Alerts suppressed by the cooldown policy.",
		}, []string{"item"}),
		ActiveDetectors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spc_active_detectors",
			Help: "Number of live detector keys in the manager's table.",
		}),
		SampleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "spc_ingest_duration_seconds",
			Help:    "Wall-clock time spent processing one ingested sample.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return m, reg
}
