// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import (
	"time"

	"github.com/google/uuid"
)

// TrendPeriod identifies the comparison window of a trend row.
type TrendPeriod string

const (
	TrendPeriod3Month       TrendPeriod = "3_month"
	TrendPeriod6Month       TrendPeriod = "6_month"
	TrendPeriodYearOverYear TrendPeriod = "year_over_year"
)

// TrendPeriods lists all computed comparison windows.
var TrendPeriods = []TrendPeriod{
	TrendPeriod3Month,
	TrendPeriod6Month,
	TrendPeriodYearOverYear,
}

// TrendDirection is the interpreted movement of a measure, oriented by the
// measure's higher-is-better flag.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendPercentageCap bounds stored percentage changes. A zero prior average
// would mathematically imply infinity; such rows collapse to stable/0 before
// ever reaching this cap.
const TrendPercentageCap = 99999.99

// TrendRow is a persisted trend computation for one (practice, measure,
// period). Unique on that triple.
type TrendRow struct {
	PracticeID       int            `json:"practice_id"`
	OrganizationID   *uuid.UUID     `json:"organization_id,omitempty"`
	MeasureName      string         `json:"measure_name"`
	Period           TrendPeriod    `json:"period"`
	Direction        TrendDirection `json:"direction"`
	PercentageChange float64        `json:"percentage_change"`
	CalculatedAt     time.Time      `json:"calculated_at"`
}

// TrendPoint is one (date, value) observation inside a preloaded trend
// window.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
