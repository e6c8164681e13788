// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/insano70/bcos-sub005/internal/models"
)

// TrendPair identifies one (practice, measure) combination the analyzer
// visited during a run.
type TrendPair struct {
	PracticeID  int
	MeasureName string
}

// UpsertTrends replaces trend rows in one transaction. The analyzer emits
// the full set for each run; pairs it visited but suppressed (zero or
// missing comparator) must also disappear from storage, so every processed
// pair is cleared before insert, including pairs that produced no rows this
// run.
func (db *DB) UpsertTrends(ctx context.Context, processed []TrendPair, trends []models.TrendRow) error {
	if len(processed) == 0 && len(trends) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trend upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	del, err := tx.PrepareContext(ctx,
		`DELETE FROM practice_trends WHERE practice_id = ? AND measure_name = ?`)
	if err != nil {
		return fmt.Errorf("prepare trend delete: %w", err)
	}
	defer del.Close()

	cleared := make(map[TrendPair]bool, len(processed))
	clear := func(pair TrendPair) error {
		if cleared[pair] {
			return nil
		}
		if _, err := del.ExecContext(ctx, pair.PracticeID, pair.MeasureName); err != nil {
			return fmt.Errorf("clear trends for practice %d measure %s: %w",
				pair.PracticeID, pair.MeasureName, err)
		}
		cleared[pair] = true
		return nil
	}
	for _, pair := range processed {
		if err := clear(pair); err != nil {
			return err
		}
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO practice_trends
			(practice_id, organization_id, measure_name, period, direction, percentage_change, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trend insert: %w", err)
	}
	defer ins.Close()

	for _, t := range trends {
		if err := clear(TrendPair{t.PracticeID, t.MeasureName}); err != nil {
			return err
		}

		var orgID interface{}
		if t.OrganizationID != nil {
			orgID = t.OrganizationID.String()
		}
		if _, err := ins.ExecContext(ctx,
			t.PracticeID, orgID, t.MeasureName, string(t.Period),
			string(t.Direction), t.PercentageChange, t.CalculatedAt); err != nil {
			return fmt.Errorf("insert trend for practice %d measure %s: %w",
				t.PracticeID, t.MeasureName, err)
		}
	}
	return tx.Commit()
}

// TrendKey identifies one stored trend row.
type TrendKey struct {
	PracticeID  int
	MeasureName string
	Period      models.TrendPeriod
}

// GetTrendsByPractices bulk-loads trend rows for the given practices, keyed
// for O(1) lookup during report-card scoring. An empty practice list loads
// nothing.
func (db *DB) GetTrendsByPractices(ctx context.Context, practiceIDs []int) (map[TrendKey]models.TrendRow, error) {
	if len(practiceIDs) == 0 {
		return map[TrendKey]models.TrendRow{}, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := buildInClauseInts(practiceIDs)
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT practice_id, organization_id, measure_name, period, direction, percentage_change, calculated_at
		FROM practice_trends WHERE practice_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	trends := make(map[TrendKey]models.TrendRow)
	for rows.Next() {
		t, err := scanTrendRow(rows)
		if err != nil {
			return nil, err
		}
		trends[TrendKey{t.PracticeID, t.MeasureName, t.Period}] = *t
	}
	return trends, rows.Err()
}

func scanTrendRow(row rowScanner) (*models.TrendRow, error) {
	var t models.TrendRow
	var orgStr sql.NullString
	var period, direction string
	if err := row.Scan(&t.PracticeID, &orgStr, &t.MeasureName, &period,
		&direction, &t.PercentageChange, &t.CalculatedAt); err != nil {
		return nil, fmt.Errorf("scan trend row: %w", err)
	}
	t.Period = models.TrendPeriod(period)
	t.Direction = models.TrendDirection(direction)
	if orgStr.Valid && orgStr.String != "" {
		id, err := parseUUID(orgStr.String)
		if err != nil {
			return nil, fmt.Errorf("trend organization id %q: %w", orgStr.String, err)
		}
		t.OrganizationID = &id
	}
	return &t, nil
}
