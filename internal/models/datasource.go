// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

// DataSource describes one queryable warehouse table: its physical location
// and a catalog of columns with role flags used by the column resolver.
type DataSource struct {
	ID         int                `json:"id"`
	Name       string             `json:"name"`
	SchemaName string             `json:"schema_name"`
	TableName  string             `json:"table_name"`
	Columns    []ColumnDefinition `json:"columns"`
	IsActive   bool               `json:"is_active"`
}

// ColumnDefinition is one entry of a data source's column catalog.
// A column may carry multiple role flags; the date role is resolved
// disjunctively (date AND NOT time-period) because a single column can be
// flagged both as a date and as a time-period bucket.
type ColumnDefinition struct {
	ColumnName    string `json:"column_name"`
	DisplayName   string `json:"display_name,omitempty"`
	DataType      string `json:"data_type,omitempty"`
	FormatKind    string `json:"format_kind,omitempty"`
	IconName      string `json:"icon_name,omitempty"`
	IsMeasure     bool   `json:"is_measure"`
	IsDate        bool   `json:"is_date"`
	IsTimePeriod  bool   `json:"is_time_period"`
	IsPractice    bool   `json:"is_practice"`
	IsProvider    bool   `json:"is_provider"`
	IsFilterable  bool   `json:"is_filterable"`
	DisplayOrder  int    `json:"display_order"`
	IsDisplayable bool   `json:"is_displayable"`
}

// Default physical column names used when a data-source descriptor is
// missing or carries no role flags.
const (
	DefaultMeasureColumn    = "measure_value"
	DefaultDateColumn       = "date_index"
	DefaultTimePeriodColumn = "time_period"
	DefaultPracticeColumn   = "practice_uid"
	DefaultProviderColumn   = "provider_uid"
)

// ResolvedColumns maps the five logical column roles onto physical column
// names for one data source.
type ResolvedColumns struct {
	Measure    string `json:"measure"`
	Date       string `json:"date"`
	TimePeriod string `json:"time_period"`
	Practice   string `json:"practice"`
	Provider   string `json:"provider"`
}

// DefaultResolvedColumns returns the fallback mapping used when no
// descriptor is available.
func DefaultResolvedColumns() ResolvedColumns {
	return ResolvedColumns{
		Measure:    DefaultMeasureColumn,
		Date:       DefaultDateColumn,
		TimePeriod: DefaultTimePeriodColumn,
		Practice:   DefaultPracticeColumn,
		Provider:   DefaultProviderColumn,
	}
}
