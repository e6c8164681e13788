// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import "time"

// MonthlyScore is one month's overall score inside an annual review.
type MonthlyScore struct {
	Month      time.Time `json:"month"`
	MonthLabel string    `json:"month_label"`
	Score      float64   `json:"score"`
	Grade      string    `json:"grade"`
}

// YearComparison compares this calendar year's average overall score with
// the prior year's. Each side requires at least one month of data.
type YearComparison struct {
	CurrentYear       int     `json:"current_year"`
	CurrentYearAvg    float64 `json:"current_year_avg"`
	CurrentYearGrade  string  `json:"current_year_grade"`
	CurrentYearMonths int     `json:"current_year_months"`
	PriorYear         int     `json:"prior_year"`
	PriorYearAvg      float64 `json:"prior_year_avg"`
	PriorYearGrade    string  `json:"prior_year_grade"`
	PriorYearMonths   int     `json:"prior_year_months"`
	Change            float64 `json:"change"`
}

// MeasureYearOverYear compares one measure's average raw value across this
// year's months against last year's. Improved respects the measure's
// higher-is-better orientation.
type MeasureYearOverYear struct {
	MeasureName    string  `json:"measure_name"`
	DisplayName    string  `json:"display_name"`
	CurrentYearAvg float64 `json:"current_year_avg"`
	PriorYearAvg   float64 `json:"prior_year_avg"`
	Change         float64 `json:"change"`
	ChangePercent  float64 `json:"change_percent"`
	Improved       bool    `json:"improved"`
}

// ScoreSummary aggregates the loaded score sequence. Trend splits the
// sequence at its midpoint and compares half means; it requires at least
// three months.
type ScoreSummary struct {
	Average float64        `json:"average"`
	Min     float64        `json:"min"`
	Max     float64        `json:"max"`
	Count   int            `json:"count"`
	Trend   TrendDirection `json:"trend"`
}

// ForecastConfidence labels forecast reliability by sample size.
type ForecastConfidence string

const (
	ForecastConfidenceHigh   ForecastConfidence = "high"
	ForecastConfidenceMedium ForecastConfidence = "medium"
	ForecastConfidenceLow    ForecastConfidence = "low"
)

// ForecastPoint is one projected month of overall score.
type ForecastPoint struct {
	Month          time.Time `json:"month"`
	MonthLabel     string    `json:"month_label"`
	ProjectedScore float64   `json:"projected_score"`
	Grade          string    `json:"grade"`
}

// ScoreForecast projects overall scores through year-end from a simple
// linear slope over the most recent months.
type ScoreForecast struct {
	Projections []ForecastPoint    `json:"projections"`
	Slope       float64            `json:"slope"`
	Confidence  ForecastConfidence `json:"confidence"`
	Note        string             `json:"note"`
}

// AnnualReview is the tenant-facing year-in-review payload.
type AnnualReview struct {
	MonthlyScores  []MonthlyScore        `json:"monthly_scores"`
	YearComparison *YearComparison       `json:"year_comparison,omitempty"`
	MeasureYoY     []MeasureYearOverYear `json:"measure_yoy"`
	Summary        *ScoreSummary         `json:"summary,omitempty"`
	Forecast       *ScoreForecast        `json:"forecast,omitempty"`
}

// PeerMeasureStats summarizes one measure's distribution inside a size
// bucket: one latest value per practice, then mean and quartiles.
type PeerMeasureStats struct {
	MeasureName   string  `json:"measure_name"`
	DisplayName   string  `json:"display_name"`
	Average       float64 `json:"average"`
	Percentile25  float64 `json:"percentile_25"`
	Percentile50  float64 `json:"percentile_50"`
	Percentile75  float64 `json:"percentile_75"`
	PracticeCount int     `json:"practice_count"`
}

// PeerComparison is the bucket-level peer comparison payload.
type PeerComparison struct {
	Bucket   SizeBucket         `json:"bucket"`
	Measures []PeerMeasureStats `json:"measures"`
}
