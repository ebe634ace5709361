// Package metrics exposes Prometheus instrumentation for pipeline runs and
// risk decisions.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantgate/sharpeguard/internal/risk"
)

// Registry holds all sharpeguard metrics.
type Registry struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	WindowsProcessed prometheus.Counter
	RowsDropped      prometheus.Counter
	RiskMode         prometheus.Gauge
	Multiplier       prometheus.Gauge
}

var (
	defaultRegistry *Registry
	registerOnce    sync.Once
)

// NewRegistry creates the metric set and registers it with the given
// registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sharpeguard_runs_total",
				Help: "Total pipeline runs by result",
			},
			[]string{"result"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sharpeguard_run_duration_seconds",
				Help:    "Wall time of a full pipeline run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		WindowsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sharpeguard_windows_processed_total",
				Help: "Signal windows processed across all runs",
			},
		),
		RowsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sharpeguard_price_rows_dropped_total",
				Help: "Malformed or duplicate price rows dropped by the loader",
			},
		),
		RiskMode: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sharpeguard_risk_mode",
				Help: "Current risk mode (0=NORMAL, 1=REDUCE, 2=STOP)",
			},
		),
		Multiplier: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sharpeguard_position_multiplier",
				Help: "Current position multiplier",
			},
		),
	}

	reg.MustRegister(r.RunsTotal, r.RunDuration, r.WindowsProcessed,
		r.RowsDropped, r.RiskMode, r.Multiplier)
	return r
}

// Default returns the process-wide registry backed by the default Prometheus
// registerer.
func Default() *Registry {
	registerOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// ObserveRun records one pipeline run.
func (r *Registry) ObserveRun(duration time.Duration, windows int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.RunsTotal.WithLabelValues(result).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.WindowsProcessed.Add(float64(windows))
}

// ObserveDecision records the outcome of a decision evaluation.
func (r *Registry) ObserveDecision(d risk.Decision) {
	r.RiskMode.Set(float64(d.Mode))
	r.Multiplier.Set(d.Multiplier)
}
