// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import (
	"time"
)

// ChartKind identifies a chart rendering family. Handlers may claim several
// kinds (the bar handler serves bar, stacked-bar, and horizontal-bar).
type ChartKind string

const (
	ChartLine          ChartKind = "line"
	ChartArea          ChartKind = "area"
	ChartBar           ChartKind = "bar"
	ChartStackedBar    ChartKind = "stacked-bar"
	ChartHorizontalBar ChartKind = "horizontal-bar"
	ChartPie           ChartKind = "pie"
	ChartDoughnut      ChartKind = "doughnut"
	ChartDualAxis      ChartKind = "dual-axis"
	ChartMetric        ChartKind = "metric"
	ChartProgressBar   ChartKind = "progress-bar"
	ChartTable         ChartKind = "table"
)

// AggregationKind is the aggregation applied by the metric and progress-bar
// handlers.
type AggregationKind string

const (
	AggregationSum   AggregationKind = "sum"
	AggregationAvg   AggregationKind = "avg"
	AggregationCount AggregationKind = "count"
	AggregationMin   AggregationKind = "min"
	AggregationMax   AggregationKind = "max"
)

// StackingMode controls stacked-bar rendering.
type StackingMode string

const (
	StackingNormal     StackingMode = "normal"
	StackingPercentage StackingMode = "percentage"
)

// SeriesConfig describes one series of a multi-series chart.
type SeriesConfig struct {
	MeasureName string `json:"measure_name"`
	Label       string `json:"label,omitempty"`
	Color       string `json:"color,omitempty"`
}

// PeriodComparisonConfig requests a current-vs-comparison period overlay.
type PeriodComparisonConfig struct {
	Enabled bool `json:"enabled"`

	// OffsetMonths is how far back the comparison window sits (default 12).
	OffsetMonths int `json:"offset_months,omitempty"`
}

// DualAxisSeries is one side of a dual-axis chart.
type DualAxisSeries struct {
	MeasureName string    `json:"measure_name"`
	ChartKind   ChartKind `json:"chart_kind"`
	Axis        string    `json:"axis"`
	Label       string    `json:"label,omitempty"`
	Color       string    `json:"color,omitempty"`
}

// DualAxisConfig pairs a primary bar series (left axis) with a secondary
// line or bar series (right axis).
type DualAxisConfig struct {
	Primary   DualAxisSeries `json:"primary"`
	Secondary DualAxisSeries `json:"secondary"`
}

// ChartConfig is a chart request: either the persisted configuration of a
// chart definition or an inline ad-hoc config, after runtime filters are
// merged over it.
//
// PracticeIDs distinguishes "absent" (nil: scope decides) from "present but
// empty" ([]: fail-closed, the sentinel filter is substituted and audited).
type ChartConfig struct {
	ChartType    ChartKind `json:"chart_type"`
	DataSourceID int       `json:"data_source_id"`

	MeasureName     string `json:"measure_name,omitempty"`
	Frequency       string `json:"frequency,omitempty"`
	DateRangePreset string `json:"date_range_preset,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	PracticeIDs []int    `json:"practice_ids,omitempty"`
	ProviderIDs []string `json:"provider_ids,omitempty"`

	GroupBy          string                  `json:"group_by,omitempty"`
	Aggregation      AggregationKind         `json:"aggregation,omitempty"`
	StackingMode     StackingMode            `json:"stacking_mode,omitempty"`
	MultipleSeries   []SeriesConfig          `json:"multiple_series,omitempty"`
	PeriodComparison *PeriodComparisonConfig `json:"period_comparison,omitempty"`
	DualAxis         *DualAxisConfig         `json:"dual_axis,omitempty"`

	// AdvancedFilters are extra field=value equality filters applied on
	// filterable catalog columns.
	AdvancedFilters map[string]string `json:"advanced_filters,omitempty"`
}

// ChartDefinition is a persisted, shareable chart configuration.
type ChartDefinition struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	ChartType    ChartKind   `json:"chart_type"`
	DataSourceID int         `json:"data_source_id"`
	Config       ChartConfig `json:"config"`
	IsActive     bool        `json:"is_active"`
}

// RuntimeFilters are per-request overrides merged over the resolved config;
// runtime values win.
type RuntimeFilters struct {
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	DateRangePreset string     `json:"date_range_preset,omitempty"`
	PracticeIDs     []int      `json:"practice_ids,omitempty"`
	ProviderIDs     []string   `json:"provider_ids,omitempty"`
	MeasureName     string     `json:"measure_name,omitempty"`
	Frequency       string     `json:"frequency,omitempty"`
}

// Series identifiers tagged onto raw rows by the period-comparison and
// dual-axis fetch paths.
const (
	SeriesCurrent    = "current"
	SeriesComparison = "comparison"
	SeriesPrimary    = "primary"
	SeriesSecondary  = "secondary"
)

// AnalyticsRow is one typed row returned by the analytics query builder.
type AnalyticsRow struct {
	PracticeID   int       `json:"practice_id"`
	ProviderID   string    `json:"provider_id,omitempty"`
	Date         time.Time `json:"date"`
	PeriodLabel  string    `json:"period_label,omitempty"`
	GroupValue   string    `json:"group_value,omitempty"`
	MeasureValue float64   `json:"measure_value"`

	// SeriesID tags rows for period-comparison (current/comparison) and
	// dual-axis (primary/secondary) assembly.
	SeriesID string `json:"series_id,omitempty"`

	// SeriesColor carries per-provider colors for grouped bar charts.
	SeriesColor string `json:"series_color,omitempty"`
}

// ChartDataset is one renderable series of a chart payload.
type ChartDataset struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	SeriesID    string    `json:"series_id,omitempty"`
	Color       string    `json:"color,omitempty"`
	Fill        bool      `json:"fill,omitempty"`
	Kind        ChartKind `json:"kind,omitempty"`
	YAxisID     string    `json:"y_axis_id,omitempty"`
	Stack       string    `json:"stack,omitempty"`
	Percentages []float64 `json:"percentages,omitempty"`

	// Target is the dynamic target for progress-bar datasets.
	Target float64 `json:"target,omitempty"`
}

// ChartData is the canonical chart payload.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`

	// Value carries the single aggregated number for metric charts.
	Value *float64 `json:"value,omitempty"`
}

// FormattedCell is one server-side formatted table cell.
type FormattedCell struct {
	Formatted string      `json:"formatted"`
	Raw       interface{} `json:"raw"`
	Icon      string      `json:"icon,omitempty"`
}

// OrchestrationMetadata describes how an orchestration result was produced.
// QueryTimeMS covers only the fetch phase.
type OrchestrationMetadata struct {
	ChartType    ChartKind `json:"chart_type"`
	DataSourceID int       `json:"data_source_id"`
	QueryTimeMS  int64     `json:"query_time_ms"`
	CacheHit     bool      `json:"cache_hit"`
	RecordCount  int       `json:"record_count"`

	// FailClosed reports that the caller's scope resolved to an empty
	// practice set and the sentinel filter was substituted.
	FailClosed bool `json:"fail_closed,omitempty"`
}

// OrchestrationResult is the orchestrator's return value. Chart-style
// handlers populate ChartData; the table handler populates Columns and
// FormattedRows instead of mutating config side-channels.
type OrchestrationResult struct {
	ChartData     *ChartData                 `json:"chart_data"`
	RawRows       []AnalyticsRow             `json:"raw_rows"`
	Columns       []ColumnDefinition         `json:"columns,omitempty"`
	FormattedRows [][]FormattedCell          `json:"formatted_rows,omitempty"`
	Metadata      OrchestrationMetadata      `json:"metadata"`
}

// ValidationResult aggregates handler validation errors.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}
