// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Execution outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeForbidden = "forbidden"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SavedSearchExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saved_search_executions_total",
			Help: "Saved search executions by outcome.",
		},
		[]string{"outcome"},
	)

	SavedSearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saved_search_results",
			Help:    "Total matching listings per successful execution.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, SavedSearchExecutions, SavedSearchResults)
}

// ObserveRequest records one finished HTTP request. route is the matched pattern, not the raw path.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveExecution records an execute call. total is only observed on success.
func ObserveExecution(outcome string, total int64) {
	SavedSearchExecutions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		SavedSearchResults.Observe(float64(total))
	}
}
