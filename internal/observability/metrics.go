// README: Prometheus collectors for searches, sanitization, suggestions and the HTTP adapter.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zekken"

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "searches_total", Help: "Search submissions by outcome"},
		[]string{"outcome"},
	)
	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_latency_seconds",
		Help:      "Fare provider round-trip latency",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32},
	})
	CabRecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cab_records_dropped_total",
		Help:      "Provider cab records rejected by the sanitizer",
	})
	SuggestionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "suggestion_requests_total", Help: "Suggestion provider calls by outcome"},
		[]string{"outcome"},
	)
	StoreFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "store_failures_total", Help: "Persistence failures by operation"},
		[]string{"op"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Search outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeEmpty      = "empty"
	OutcomeFailure    = "failure"
	OutcomeInvalid    = "invalid"
	OutcomeSuperseded = "superseded"
)
