// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Total number of upstream requests by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Duration of upstream requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	StaleOptionResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_stale_option_responses_total",
			Help: "Option responses discarded because a newer request was issued",
		},
	)

	ProductCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_product_cache_lookups_total",
			Help: "Product cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of storefront HTTP requests",
		},
		[]string{"route", "status"},
	)
)

// Outcome labels for BackendRequests.
const (
	OutcomeSuccess   = "success"
	OutcomeNetwork   = "network_error"
	OutcomeStatus    = "http_error"
	OutcomeMalformed = "malformed"
	OutcomeEmpty     = "empty"
)
