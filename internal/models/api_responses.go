// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. Status is "success" or "error"; Error is populated only on
// failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response observability fields. QueryTimeMS is 0 for
// cache hits.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a stable machine-readable code plus a human message.
// Messages never disclose schema details or cross-tenant identifiers.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Stable API error codes (see the error taxonomy in the package docs).
const (
	CodeReportCardNotFound     = "REPORT_CARD_NOT_FOUND"
	CodeMeasureNotFound        = "MEASURE_NOT_FOUND"
	CodeMeasureDuplicate       = "MEASURE_DUPLICATE"
	CodeInsufficientData       = "INSUFFICIENT_DATA"
	CodeStatisticsFailed       = "STATISTICS_COLLECTION_FAILED"
	CodeTrendAnalysisFailed    = "TREND_ANALYSIS_FAILED"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeChartDefNotFound       = "CHART_DEFINITION_NOT_FOUND"
	CodeDataSourceNotFound     = "DATA_SOURCE_NOT_FOUND"
)

// HealthStatus is the health check response.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}
