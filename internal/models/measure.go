// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

// FormatKind controls server-side value formatting for a measure or table
// column.
type FormatKind string

const (
	FormatNumber     FormatKind = "number"
	FormatCurrency   FormatKind = "currency"
	FormatPercentage FormatKind = "percentage"
)

// Measure weight bounds. Weights skew the overall report-card score toward
// the measures a deployment cares about most.
const (
	MeasureWeightMin     = 1
	MeasureWeightMax     = 10
	MeasureWeightDefault = 5
)

// MeasureConfig describes one scored measure: where its values live in the
// warehouse, how to format them, and how to orient comparisons.
type MeasureConfig struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`

	// Weight in [1, 10]; defaults to MeasureWeightDefault when unset.
	Weight int `json:"weight"`

	// HigherIsBetter inverts percentile comparisons for measures where a
	// lower value is the good outcome (e.g. cancellation rate).
	HigherIsBetter bool `json:"higher_is_better"`

	FormatKind   FormatKind `json:"format_kind"`
	DataSourceID int        `json:"data_source_id"`
	ValueColumn  string     `json:"value_column,omitempty"`

	// FilterCriteria narrows the statistics rows belonging to this measure
	// (field name to required value). Stored as JSON in the warehouse.
	FilterCriteria map[string]string `json:"filter_criteria,omitempty"`

	IsActive bool `json:"is_active"`
}

// EffectiveWeight returns the configured weight clamped to the valid range,
// or the default when unset.
func (m *MeasureConfig) EffectiveWeight() int {
	if m.Weight == 0 {
		return MeasureWeightDefault
	}
	if m.Weight < MeasureWeightMin {
		return MeasureWeightMin
	}
	if m.Weight > MeasureWeightMax {
		return MeasureWeightMax
	}
	return m.Weight
}

// Label returns the display name, falling back to the measure name.
func (m *MeasureConfig) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}
