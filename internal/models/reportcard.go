// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import (
	"time"

	"github.com/google/uuid"
)

// MeasureScore is the scored outcome for one measure inside a report card.
type MeasureScore struct {
	// Score is the normalized grade-friendly score in [floor, floor+range],
	// rounded to one decimal.
	Score float64 `json:"score"`

	// Value is the raw measure value for the report-card month.
	Value float64 `json:"value"`

	Trend           TrendDirection `json:"trend"`
	TrendPercentage float64        `json:"trend_percentage"`

	// Percentile is nil when fewer than 2 peers exist after self-exclusion;
	// scoring then falls back to a neutral 50th-percentile baseline.
	Percentile *float64 `json:"percentile"`

	PeerAverage float64 `json:"peer_average"`
	PeerCount   int     `json:"peer_count"`
}

// ReportCardResult is one generated monthly report card. Unique on
// (PracticeID, ReportCardMonth).
type ReportCardResult struct {
	ResultID       int64      `json:"result_id"`
	PracticeID     int        `json:"practice_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`

	// ReportCardMonth is strictly the first day of a calendar month, UTC.
	ReportCardMonth time.Time `json:"report_card_month"`

	GeneratedAt time.Time `json:"generated_at"`

	// OverallScore is the measure-weighted mean of normalized scores.
	OverallScore float64 `json:"overall_score"`

	SizeBucket     SizeBucket              `json:"size_bucket"`
	PercentileRank float64                 `json:"percentile_rank"`
	Insights       []string                `json:"insights"`
	MeasureScores  map[string]MeasureScore `json:"measure_scores"`
}

// Grade returns the letter grade for the overall score.
func (r *ReportCardResult) Grade() string {
	return LetterGrade(r.OverallScore)
}

// LetterGrade maps a score to the three-letter ladder. Scores below the
// normalization floor cannot occur in generated cards, so there is no D/F.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	default:
		return "C"
	}
}

// gradeRank orders grades for improvement comparisons (higher is better).
func gradeRank(grade string) int {
	switch grade {
	case "A":
		return 3
	case "B":
		return 2
	default:
		return 1
	}
}

// GradeImproved reports whether current is a strictly better grade than
// previous on the A/B/C ladder.
func GradeImproved(previous, current string) bool {
	return gradeRank(current) > gradeRank(previous)
}

// GradeHistoryEntry is one month of grade history with deltas computed
// against the chronologically prior entry.
type GradeHistoryEntry struct {
	Month        time.Time `json:"month"`
	MonthLabel   string    `json:"month_label"`
	Score        float64   `json:"score"`
	Grade        string    `json:"grade"`
	ScoreChange  *float64  `json:"score_change,omitempty"`
	GradeChanged bool      `json:"grade_changed"`
}

// PreviousMonthSummary compares the report card before a given month.
type PreviousMonthSummary struct {
	Month         time.Time `json:"month"`
	MonthLabel    string    `json:"month_label"`
	Score         float64   `json:"score"`
	Grade         string    `json:"grade"`
	ScoreChange   float64   `json:"score_change"`
	GradeImproved bool      `json:"grade_improved"`
}
