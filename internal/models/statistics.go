// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import (
	"time"

	"github.com/google/uuid"
)

// StatisticsRow is one raw warehouse observation: a measure value for one
// practice in one period. Rows are produced by the external ingestion
// pipeline and are read-only inputs here.
type StatisticsRow struct {
	PracticeID     int        `json:"practice_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	MeasureName    string     `json:"measure_name"`

	// PeriodDate is always the first day of a calendar month, UTC.
	PeriodDate time.Time `json:"period_date"`

	Value float64 `json:"value"`
}

// FirstOfMonth truncates t to the first day of its calendar month in UTC.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CurrentReportCardMonth returns the report-card month for "now": the first
// day of the previous calendar month. A report card always summarizes the
// last complete month.
func CurrentReportCardMonth(now time.Time) time.Time {
	return FirstOfMonth(now).AddDate(0, -1, 0)
}
