// Package metrics provides Prometheus metrics collection for the API.
// HTTP traffic is tracked by the Metrics middleware:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// The classifier proxy and the scheduled jobs report through the ai_* and
// demandes_* series.
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in the current window)",
		},
	)

	// AIPredictionsTotal counts classifier calls by outcome:
	// ok, cached, upstream_error, unavailable.
	AIPredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_predictions_total",
			Help: "Classifier prediction calls by outcome",
		},
		[]string{"outcome"},
	)

	AIPredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_prediction_duration_seconds",
			Help:    "Classifier round trip latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	AIServiceUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_service_up",
			Help: "1 when the last classifier probe succeeded",
		},
	)

	DemandesStalePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "demandes_stale_pending",
			Help: "Demandes pending for more than seven days at the last report",
		},
	)

	RefreshTokensPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_purged_total",
			Help: "Expired or revoked refresh tokens removed by the purge job",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(AIPredictionsTotal)
	prometheus.MustRegister(AIPredictionDuration)
	prometheus.MustRegister(AIServiceUp)
	prometheus.MustRegister(DemandesStalePending)
	prometheus.MustRegister(RefreshTokensPurgedTotal)
}
