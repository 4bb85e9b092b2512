// Package metrics exposes Prometheus instrumentation for refresh cycles and
// feed serving.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle result label values.
const (
	ResultSuccess    = "success"
	ResultUnchanged  = "unchanged"
	ResultFetchError = "fetch_error"
	ResultParseError = "parse_error"
	ResultSkipped    = "skipped"
)

// Metrics holds all collectors on a private registry, so multiple instances
// (tests, mainly) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Summary
	eventsPublished prometheus.Gauge
	recordsDropped  prometheus.Gauge
	lastSuccessTS   prometheus.Gauge
	feedRequests    *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.cyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ianua",
		Name:      "refresh_cycles_total",
		Help:      "Refresh cycles by outcome",
	}, []string{"result"})
	m.cycleDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "ianua",
		Name:      "refresh_duration_seconds",
		Help:      "Time spent on a full refresh cycle",
	})
	m.eventsPublished = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ianua",
		Name:      "events_published",
		Help:      "Number of events in the currently published snapshot",
	})
	m.recordsDropped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ianua",
		Name:      "records_dropped",
		Help:      "Raw records dropped in the last cycle (malformed or duplicate)",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ianua",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful refresh cycle",
	})
	m.feedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ianua",
		Name:      "feed_requests_total",
		Help:      "Feed endpoint requests by HTTP status",
	}, []string{"status"})

	m.registry.MustRegister(
		m.cyclesTotal, m.cycleDuration, m.eventsPublished,
		m.recordsDropped, m.lastSuccessTS, m.feedRequests,
	)
	return m
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records the outcome and duration of one refresh cycle.
func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	m.cyclesTotal.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// ObservePublish records a successful publish of n events.
func (m *Metrics) ObservePublish(n int, at time.Time) {
	m.eventsPublished.Set(float64(n))
	m.lastSuccessTS.Set(float64(at.Unix()))
}

// ObserveDropped records how many raw records did not survive normalization
// in the last cycle.
func (m *Metrics) ObserveDropped(n int) {
	m.recordsDropped.Set(float64(n))
}

// ObserveFeedRequest counts one feed response by status code.
func (m *Metrics) ObserveFeedRequest(status int) {
	m.feedRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}
