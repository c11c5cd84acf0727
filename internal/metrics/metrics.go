// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

// Package metrics exposes Prometheus instrumentation for the suggestion
// flows, the store and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Suggestion flow metrics.

	FlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suggest_flow_duration_seconds",
			Help:    "Duration of suggestion engine flows in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"}, // "initialize", "preferences", "rating", "serve"
	)

	FlowErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggest_flow_errors_total",
			Help: "Total number of suggestion flow failures",
		},
		[]string{"flow", "reason"},
	)

	PropagationFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suggest_propagation_fanout",
			Help:    "Related records touched per rating propagation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	TopKRecycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_topk_recycles_total",
			Help: "Times an exhausted suggestion pool was reset",
		},
	)

	// Database metrics.

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB operation errors",
		},
		[]string{"operation"},
	)

	// API metrics.

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordFlow records a flow execution with its outcome.
func RecordFlow(flow string, duration time.Duration, err error) {
	FlowDuration.WithLabelValues(flow).Observe(duration.Seconds())
	if err != nil {
		FlowErrors.WithLabelValues(flow, "error").Inc()
	}
}

// RecordDBQuery records a store operation duration and outcome.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
