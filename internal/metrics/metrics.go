// Package metrics provides Prometheus metrics for the meeting server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Summary outcomes
const (
	OutcomeSaved   = "saved"
	OutcomeUnsaved = "unsaved"
	OutcomeFailed  = "failed"
)

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// requestsTotal labels: method, route, status
	requestsTotal *prometheus.CounterVec
	// requestDuration labels: method, route
	requestDuration *prometheus.HistogramVec
	// summariesTotal labels: outcome (saved, unsaved, failed)
	summariesTotal *prometheus.CounterVec
	// summarizeDuration covers title generation plus summarization
	summarizeDuration prometheus.Histogram
	// meetingOpsTotal labels: op (create, update, delete)
	meetingOpsTotal *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "meeting_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		summariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_summaries_total",
				Help: "Total number of summarize requests by outcome",
			},
			[]string{"outcome"},
		),
		summarizeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meeting_summarize_duration_seconds",
				Help:    "Time spent waiting on the language model",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		meetingOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meeting_store_operations_total",
				Help: "Total number of meeting mutations",
			},
			[]string{"op"},
		),
	}
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordSummary records a summarize outcome and its model latency
func (m *Metrics) RecordSummary(outcome string, d time.Duration) {
	m.summariesTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.summarizeDuration.Observe(d.Seconds())
	}
}

// RecordMeetingOp counts a meeting create, update or delete
func (m *Metrics) RecordMeetingOp(op string) {
	m.meetingOpsTotal.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
