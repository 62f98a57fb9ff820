// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method, route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropspot",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed by the API.",
	}, []string{"method", "route", "status"})

	// RecommendationDuration tracks end-to-end recommendation latency,
	// including rationale generation.
	RecommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dropspot",
		Name:      "recommendation_duration_seconds",
		Help:      "Time to produce a winning-product recommendation.",
		Buckets:   prometheus.DefBuckets,
	})

	// RationaleFallbacks counts rationale calls that degraded to the
	// deterministic fallback text.
	RationaleFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropspot",
		Name:      "rationale_fallbacks_total",
		Help:      "Rationale generations that fell back after an LLM failure.",
	})

	// ProductsScored counts products evaluated by the scoring engine.
	ProductsScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dropspot",
		Name:      "products_scored_total",
		Help:      "Products evaluated by the scoring engine.",
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
