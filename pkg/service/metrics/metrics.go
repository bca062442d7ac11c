package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	Transitions      *prometheus.CounterVec
	EvidenceAttached *prometheus.CounterVec
	DatastoreReady   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiontracker_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actiontracker_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiontracker_status_transitions_total",
			Help: "Applied status transitions by source and target status",
		}, []string{"from", "to"}),
		EvidenceAttached: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "actiontracker_evidence_attached_total",
			Help: "Evidence records attached by upload protocol",
		}, []string{"protocol"}),
		DatastoreReady: factory.NewGauge(prometheus.GaugeOpts{
			Name: "actiontracker_datastore_ready",
			Help: "1 once datastore initialization has succeeded",
		}),
	}
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request. Call with time.Now() taken at the start.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// IncrementTransition records an applied status change
func (m *Metrics) IncrementTransition(from, to types.ActionStatus) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// IncrementEvidence records an attached evidence row; protocol is "inline" or "presign"
func (m *Metrics) IncrementEvidence(protocol string) {
	if m == nil {
		return
	}
	m.EvidenceAttached.WithLabelValues(protocol).Inc()
}

// SetDatastoreReady flips the readiness gauge
func (m *Metrics) SetDatastoreReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.DatastoreReady.Set(1)
	} else {
		m.DatastoreReady.Set(0)
	}
}
