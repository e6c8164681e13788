// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
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
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Chart Orchestration Metrics
	ChartRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_requests_total",
			Help: "Total number of chart orchestrations",
		},
		[]string{"chart_type", "result"}, // result: "success", "error", "fail_closed"
	)

	ChartQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chart_query_duration_seconds",
			Help:    "Duration of the chart fetch phase in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chart_type"},
	)

	// FailClosedTotal counts requests whose scope resolved to an empty
	// practice set. A sustained nonzero rate is a misconfiguration signal.
	FailClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_fail_closed_total",
			Help: "Total number of queries forced to the sentinel practice filter",
		},
		[]string{"data_source"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "chart", "reportcard", "authz"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Batch Run Metrics (sizing, trend, generation)
	BatchRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batch_run_duration_seconds",
			Help:    "Duration of batch analytics runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"run_type"}, // "sizing", "trend", "generation", "backfill"
	)

	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total number of batch analytics runs",
		},
		[]string{"run_type", "result"}, // result: "success", "error", "lease_held"
	)

	ReportCardsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cards_generated_total",
			Help: "Total number of practice report cards generated",
		},
		[]string{"result"}, // "success", "failed"
	)

	PracticesSized = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "practices_sized",
			Help: "Number of practices assigned a size bucket by the latest run",
		},
	)

	SizeBucketCounts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "size_bucket_practices",
			Help: "Practices per size bucket after the latest sizing run",
		},
		[]string{"bucket"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordChartRequest records one chart orchestration and its fetch time.
func RecordChartRequest(chartType string, failClosed bool, duration time.Duration, err error) {
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case failClosed:
		result = "fail_closed"
	}
	ChartRequestsTotal.WithLabelValues(chartType, result).Inc()
	if err == nil {
		ChartQueryDuration.WithLabelValues(chartType).Observe(duration.Seconds())
	}
}

// RecordFailClosed records a query forced onto the sentinel filter.
func RecordFailClosed(dataSourceID int) {
	FailClosedTotal.WithLabelValues(strconv.Itoa(dataSourceID)).Inc()
}

// RecordBatchRun records a batch analytics run.
func RecordBatchRun(runType string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	BatchRunsTotal.WithLabelValues(runType, result).Inc()
	if err == nil {
		BatchRunDuration.WithLabelValues(runType).Observe(duration.Seconds())
	}
}

// RecordSizingResult publishes the bucket distribution of a sizing run.
func RecordSizingResult(total int, bucketCounts map[string]int) {
	PracticesSized.Set(float64(total))
	for bucket, count := range bucketCounts {
		SizeBucketCounts.WithLabelValues(bucket).Set(float64(count))
	}
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
