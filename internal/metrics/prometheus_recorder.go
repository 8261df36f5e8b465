package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stepDuration   *prom.HistogramVec
	buildDuration  *prom.HistogramVec
	builds         *prom.CounterVec
	changes        *prom.CounterVec
	readRetries    prom.Counter
	activeSessions prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "docwatch",
		Name:      "step_duration_seconds",
		Help:      "Duration of individual build steps",
		Buckets:   prom.DefBuckets,
	}, []string{"toolchain", "step"})
	pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "docwatch",
		Name:      "build_duration_seconds",
		Help:      "Duration of a full pipeline run",
		Buckets:   prom.DefBuckets,
	}, []string{"toolchain"})
	pr.builds = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docwatch",
		Name:      "builds_total",
		Help:      "Pipeline runs by toolchain and trigger",
	}, []string{"toolchain", "trigger"})
	pr.changes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docwatch",
		Name:      "changes_detected_total",
		Help:      "Content changes detected in watched files",
	}, []string{"toolchain"})
	pr.readRetries = prom.NewCounter(prom.CounterOpts{
		Namespace: "docwatch",
		Name:      "read_retries_total",
		Help:      "Reads of watched files retried because the file was absent",
	})
	pr.activeSessions = prom.NewGauge(prom.GaugeOpts{
		Namespace: "docwatch",
		Name:      "active_sessions",
		Help:      "Watch sessions currently running",
	})
	reg.MustRegister(pr.stepDuration, pr.buildDuration, pr.builds, pr.changes, pr.readRetries, pr.activeSessions)
	return pr
}

// Registry exposes the underlying registry (for tests and custom exporters).
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStepDuration(toolchain, step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(toolchain, step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(toolchain string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(toolchain).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuild(toolchain string, trigger Trigger) {
	if p == nil {
		return
	}
	p.builds.WithLabelValues(toolchain, string(trigger)).Inc()
}

func (p *PrometheusRecorder) IncChangeDetected(toolchain string) {
	if p == nil {
		return
	}
	p.changes.WithLabelValues(toolchain).Inc()
}

func (p *PrometheusRecorder) IncReadRetry() {
	if p == nil {
		return
	}
	p.readRetries.Inc()
}

func (p *PrometheusRecorder) AddActiveSessions(delta int) {
	if p == nil {
		return
	}
	p.activeSessions.Add(float64(delta))
}

// WriteTextfile writes the current metric values to path in the text
// exposition format. The write is atomic (temp file + rename).
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
