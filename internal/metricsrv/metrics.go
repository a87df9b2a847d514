// Package metricsrv defines and registers the Prometheus metrics emitted
// by the server: session counts, group/reconstruction throughput, and
// error totals, as one struct, MustRegister'd once, nil-receiver-safe.
package metricsrv

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks server-side Prometheus counters and gauges. All methods
// are safe to call on a nil *Metrics (a no-op), so callers that construct
// the server without metrics enabled never need a nil check at the call
// site.
type Metrics struct {
	SessionsTotal   *prometheus.CounterVec // labels: result=[completed, failed]
	SessionsActive  prometheus.Gauge
	GroupsProcessed *prometheus.CounterVec // labels: pipeline
	KernelInvokes   *prometheus.CounterVec // labels: kernel
	PipelineErrors  *prometheus.CounterVec // labels: pipeline
	CaptureErrors   prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// NewMetrics creates and registers the server's Prometheus metrics. If
// registerer is nil, prometheus.DefaultRegisterer is used. Idempotent:
// repeated calls return the metrics registered by the first call.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	once.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			SessionsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mrdstream_sessions_total",
					Help: "Total MRD server sessions by result",
				},
				[]string{"result"},
			),
			SessionsActive: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "mrdstream_sessions_active",
					Help: "Current number of active MRD server sessions",
				},
			),
			GroupsProcessed: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mrdstream_groups_processed_total",
					Help: "Total acquisition/image groups processed by pipeline",
				},
				[]string{"pipeline"},
			),
			KernelInvokes: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mrdstream_kernel_invocations_total",
					Help: "Total reconstruction kernel invocations",
				},
				[]string{"kernel"},
			),
			PipelineErrors: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mrdstream_pipeline_errors_total",
					Help: "Total pipeline errors by pipeline",
				},
				[]string{"pipeline"},
			),
			CaptureErrors: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "mrdstream_capture_errors_total",
					Help: "Total capture sink errors",
				},
			),
		}

		registerer.MustRegister(
			m.SessionsTotal,
			m.SessionsActive,
			m.GroupsProcessed,
			m.KernelInvokes,
			m.PipelineErrors,
			m.CaptureErrors,
		)

		instance = m
	})
	return instance
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) sessionEnded(result string) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(result).Inc()
}

// SessionStarted records the start of a new server session.
func (m *Metrics) SessionStarted() { m.sessionStarted() }

// SessionCompleted records a session that finished without error.
func (m *Metrics) SessionCompleted() { m.sessionEnded("completed") }

// SessionFailed records a session that ended in error.
func (m *Metrics) SessionFailed() { m.sessionEnded("failed") }

// GroupProcessed records one group handed to pipeline.
func (m *Metrics) GroupProcessed(pipeline string) {
	if m == nil {
		return
	}
	m.GroupsProcessed.WithLabelValues(pipeline).Inc()
}

// KernelInvoked records one reconstruction kernel invocation.
func (m *Metrics) KernelInvoked(kernel string) {
	if m == nil {
		return
	}
	m.KernelInvokes.WithLabelValues(kernel).Inc()
}

// PipelineError records one pipeline error.
func (m *Metrics) PipelineError(pipeline string) {
	if m == nil {
		return
	}
	m.PipelineErrors.WithLabelValues(pipeline).Inc()
}

// CaptureError records one capture sink error.
func (m *Metrics) CaptureError() {
	if m == nil {
		return
	}
	m.CaptureErrors.Inc()
}
