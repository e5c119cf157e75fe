package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodscan_http_requests_total",
		Help: "HTTP requests processed, by method, path and status code.",
	}, []string{"method", "path", "status"})

	extractionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prodscan_extractions_total",
		Help: "Completed extraction pipeline runs.",
	})

	extractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodscan_extraction_failures_total",
		Help: "Failed extraction pipeline runs, by failing stage.",
	}, []string{"stage"})

	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prodscan_extraction_duration_seconds",
		Help:    "End-to-end extraction pipeline duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	summaryFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prodscan_summary_fallbacks_total",
		Help: "Summary requests served by the deterministic local fallback.",
	})
)
