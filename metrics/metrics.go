package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"status", "route"})
	HttpRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	HttpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of HTTP handler errors",
	}, []string{"route"})

	// RelayResultsTotal counts relay and probe outcomes by result:
	// ok, disabled, invalid, upstream_error, timeout, empty_reply.
	RelayResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_results_total",
		Help: "Total number of relay outcomes by endpoint and result",
	}, []string{"endpoint", "result"})
	UpstreamDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_upstream_duration_seconds",
		Help:    "Duration of upstream completion calls in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
	}, []string{"endpoint"})
	LlmTokens = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_tokens",
		Help:    "Number of LLM tokens per completion",
		Buckets: prometheus.LinearBuckets(0, 50, 20),
	}, []string{"endpoint", "kind"})
)
