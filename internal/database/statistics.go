// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/insano70/bcos-sub005/internal/models"
)

// MonthStatistics is the bulk preload for one report-card month:
// measure name -> practice id -> value. One warehouse round trip feeds
// scoring for every practice in the run.
type MonthStatistics map[string]map[int]float64

// GetMonthStatistics loads every measure value for one calendar month.
func (db *DB) GetMonthStatistics(ctx context.Context, month time.Time) (MonthStatistics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT measure_name, practice_id, value
		FROM practice_statistics
		WHERE period_date = ?`, models.FirstOfMonth(month))
	if err != nil {
		return nil, fmt.Errorf("query month statistics: %w", err)
	}
	defer rows.Close()

	stats := make(MonthStatistics)
	for rows.Next() {
		var measure string
		var practiceID int
		var value float64
		if err := rows.Scan(&measure, &practiceID, &value); err != nil {
			return nil, fmt.Errorf("scan month statistics: %w", err)
		}
		byPractice := stats[measure]
		if byPractice == nil {
			byPractice = make(map[int]float64)
			stats[measure] = byPractice
		}
		byPractice[practiceID] = value
	}
	return stats, rows.Err()
}

// TrendWindow is the bulk preload for trend analysis: practice id ->
// measure name -> chronologically ascending observations.
type TrendWindow map[int]map[string][]models.TrendPoint

// GetTrendWindow loads all observations in [startMonth, endMonth] for every
// practice and measure. The analyzer needs thirteen months to cover the
// year-over-year comparison plus the current month.
func (db *DB) GetTrendWindow(ctx context.Context, startMonth, endMonth time.Time) (TrendWindow, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT practice_id, measure_name, period_date, value
		FROM practice_statistics
		WHERE period_date >= ? AND period_date <= ?
		ORDER BY practice_id, measure_name, period_date`,
		models.FirstOfMonth(startMonth), models.FirstOfMonth(endMonth))
	if err != nil {
		return nil, fmt.Errorf("query trend window: %w", err)
	}
	defer rows.Close()

	window := make(TrendWindow)
	for rows.Next() {
		var practiceID int
		var measure string
		var point models.TrendPoint
		if err := rows.Scan(&practiceID, &measure, &point.Date, &point.Value); err != nil {
			return nil, fmt.Errorf("scan trend window: %w", err)
		}
		byMeasure := window[practiceID]
		if byMeasure == nil {
			byMeasure = make(map[string][]models.TrendPoint)
			window[practiceID] = byMeasure
		}
		byMeasure[measure] = append(byMeasure[measure], point)
	}
	return window, rows.Err()
}

// PracticeCharges is one practice's average monthly charges over the sizing
// window, input to cohort assignment.
type PracticeCharges struct {
	PracticeID        int
	OrganizationID    sql.NullString
	MonthlyChargesAvg float64
}

// GetPracticeChargeAverages computes each practice's average monthly value
// of the charges measure over the trailing window, excluding practices whose
// annualized charges fall below minimumCharges. Rows come back ordered by
// average ascending, which is the order the adaptive-threshold computation
// wants.
func (db *DB) GetPracticeChargeAverages(ctx context.Context, chargesMeasure string, windowMonths int, minimumCharges float64, asOf time.Time) ([]PracticeCharges, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	windowStart := models.FirstOfMonth(asOf).AddDate(0, -windowMonths, 0)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT practice_id, ANY_VALUE(organization_id), AVG(value) AS monthly_avg
		FROM practice_statistics
		WHERE measure_name = ? AND period_date >= ? AND period_date < ?
		GROUP BY practice_id
		HAVING AVG(value) * 12 >= ?
		ORDER BY monthly_avg ASC, practice_id ASC`,
		chargesMeasure, windowStart, models.FirstOfMonth(asOf), minimumCharges)
	if err != nil {
		return nil, fmt.Errorf("query practice charge averages: %w", err)
	}
	defer rows.Close()

	var result []PracticeCharges
	for rows.Next() {
		var pc PracticeCharges
		if err := rows.Scan(&pc.PracticeID, &pc.OrganizationID, &pc.MonthlyChargesAvg); err != nil {
			return nil, fmt.Errorf("scan practice charge average: %w", err)
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}

// LatestStatisticsMonth returns the most recent period with any data, or a
// zero time when the warehouse is empty.
func (db *DB) LatestStatisticsMonth(ctx context.Context) (time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var month sql.NullTime
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(period_date) FROM practice_statistics`).Scan(&month); err != nil {
		return time.Time{}, fmt.Errorf("query latest statistics month: %w", err)
	}
	if !month.Valid {
		return time.Time{}, nil
	}
	return models.FirstOfMonth(month.Time), nil
}

// GetLatestBucketValues returns, for every practice in the bucket, its most
// recent observation per measure: measure name -> practice id -> value.
// Peer comparison works on exactly one row per (practice, measure) even
// when the raw table holds many periods.
func (db *DB) GetLatestBucketValues(ctx context.Context, bucket models.SizeBucket) (MonthStatistics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT measure_name, practice_id, value FROM (
			SELECT s.measure_name, s.practice_id, s.value,
				ROW_NUMBER() OVER (
					PARTITION BY s.practice_id, s.measure_name
					ORDER BY s.period_date DESC
				) AS rn
			FROM practice_statistics s
			JOIN practice_size_buckets b ON b.practice_id = s.practice_id
			WHERE b.bucket = ?
		) WHERE rn = 1`, string(bucket))
	if err != nil {
		return nil, fmt.Errorf("query latest bucket values: %w", err)
	}
	defer rows.Close()

	stats := make(MonthStatistics)
	for rows.Next() {
		var measure string
		var practiceID int
		var value float64
		if err := rows.Scan(&measure, &practiceID, &value); err != nil {
			return nil, fmt.Errorf("scan latest bucket value: %w", err)
		}
		byPractice := stats[measure]
		if byPractice == nil {
			byPractice = make(map[int]float64)
			stats[measure] = byPractice
		}
		byPractice[practiceID] = value
	}
	return stats, rows.Err()
}

// InsertStatistics bulk-inserts raw observations. Production data arrives
// via the ingestion pipeline; this path serves seeding and tests.
func (db *DB) InsertStatistics(ctx context.Context, stats []models.StatisticsRow) error {
	if len(stats) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin statistics insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO practice_statistics (practice_id, organization_id, measure_name, period_date, value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statistics insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range stats {
		var orgID interface{}
		if row.OrganizationID != nil {
			orgID = row.OrganizationID.String()
		}
		if _, err := stmt.ExecContext(ctx,
			row.PracticeID, orgID, row.MeasureName,
			models.FirstOfMonth(row.PeriodDate), row.Value); err != nil {
			return fmt.Errorf("insert statistics row: %w", err)
		}
	}
	return tx.Commit()
}
