package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	changeEventsTotal      *prometheus.CounterVec
	changeSubscribersGauge prometheus.Gauge
	summaryCacheTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lms_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		changeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_change_events_total",
			Help: "Change events delivered to local subscribers, by table and origin.",
		}, []string{"table", "origin"})

		changeSubscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lms_change_subscribers_active",
			Help: "Open change feed websocket connections on this node.",
		})

		summaryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lms_grade_summary_cache_total",
			Help: "Grade summary cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, changeEventsTotal, changeSubscribersGauge, summaryCacheTotal)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the request latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ChangeEvents exposes the change feed delivery counter.
func ChangeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return changeEventsTotal
}

// ChangeSubscribers exposes the gauge of open change feed connections.
func ChangeSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return changeSubscribersGauge
}

// SummaryCache exposes the grade summary cache hit/miss counter.
func SummaryCache() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheTotal
}
