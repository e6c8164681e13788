// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/insano70/bcos-sub005/internal/models"
)

const reportCardSelectColumns = `result_id, practice_id, organization_id,
	report_card_month, generated_at, overall_score, size_bucket,
	percentile_rank, insights, measure_scores`

// UpsertReportCards stores a generation run's results in one transaction.
// (practice, month) is unique, so regenerating a month replaces the prior
// card rather than duplicating it.
func (db *DB) UpsertReportCards(ctx context.Context, cards []models.ReportCardResult) error {
	if len(cards) == 0 {
		return nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report card upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	del, err := tx.PrepareContext(ctx,
		`DELETE FROM report_card_results WHERE practice_id = ? AND report_card_month = ?`)
	if err != nil {
		return fmt.Errorf("prepare report card delete: %w", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO report_card_results
			(practice_id, organization_id, report_card_month, generated_at,
			 overall_score, size_bucket, percentile_rank, insights, measure_scores)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare report card insert: %w", err)
	}
	defer ins.Close()

	for _, card := range cards {
		month := models.FirstOfMonth(card.ReportCardMonth)

		insights, err := json.Marshal(card.Insights)
		if err != nil {
			return fmt.Errorf("encode insights for practice %d: %w", card.PracticeID, err)
		}
		scores, err := json.Marshal(card.MeasureScores)
		if err != nil {
			return fmt.Errorf("encode measure scores for practice %d: %w", card.PracticeID, err)
		}

		var orgID interface{}
		if card.OrganizationID != nil {
			orgID = card.OrganizationID.String()
		}

		if _, err := del.ExecContext(ctx, card.PracticeID, month); err != nil {
			return fmt.Errorf("clear report card for practice %d: %w", card.PracticeID, err)
		}
		if _, err := ins.ExecContext(ctx,
			card.PracticeID, orgID, month, card.GeneratedAt,
			card.OverallScore, string(card.SizeBucket), card.PercentileRank,
			string(insights), string(scores)); err != nil {
			return fmt.Errorf("insert report card for practice %d: %w", card.PracticeID, err)
		}
	}
	return tx.Commit()
}

func scanReportCard(row rowScanner) (*models.ReportCardResult, error) {
	var card models.ReportCardResult
	var orgStr sql.NullString
	var bucket, insightsJSON, scoresJSON string

	if err := row.Scan(&card.ResultID, &card.PracticeID, &orgStr,
		&card.ReportCardMonth, &card.GeneratedAt, &card.OverallScore,
		&bucket, &card.PercentileRank, &insightsJSON, &scoresJSON); err != nil {
		return nil, fmt.Errorf("scan report card: %w", err)
	}

	card.SizeBucket = models.SizeBucket(bucket)
	if orgStr.Valid && orgStr.String != "" {
		id, err := parseUUID(orgStr.String)
		if err != nil {
			return nil, fmt.Errorf("report card organization id %q: %w", orgStr.String, err)
		}
		card.OrganizationID = &id
	}
	if err := json.Unmarshal([]byte(insightsJSON), &card.Insights); err != nil {
		return nil, fmt.Errorf("decode insights for practice %d: %w", card.PracticeID, err)
	}
	if err := json.Unmarshal([]byte(scoresJSON), &card.MeasureScores); err != nil {
		return nil, fmt.Errorf("decode measure scores for practice %d: %w", card.PracticeID, err)
	}
	return &card, nil
}

func (db *DB) queryReportCards(ctx context.Context, query string, args ...interface{}) ([]models.ReportCardResult, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query report cards: %w", err)
	}
	defer rows.Close()

	var cards []models.ReportCardResult
	for rows.Next() {
		card, err := scanReportCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// GetLatestByOrganization returns the cards for the organization's most
// recent report-card month, one per practice. ErrReportCardNotFound when the
// organization has no cards at all.
func (db *DB) GetLatestByOrganization(ctx context.Context, orgID string) ([]models.ReportCardResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var latest sql.NullTime
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(report_card_month) FROM report_card_results WHERE organization_id = ?`, orgID,
	).Scan(&latest); err != nil {
		return nil, fmt.Errorf("query latest report card month: %w", err)
	}
	if !latest.Valid {
		return nil, ErrReportCardNotFound
	}
	return db.GetByOrganizationAndMonth(ctx, orgID, latest.Time)
}

// GetByOrganizationAndMonth returns all the organization's cards for one
// month. ErrReportCardNotFound when the month has none.
func (db *DB) GetByOrganizationAndMonth(ctx context.Context, orgID string, month time.Time) ([]models.ReportCardResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	cards, err := db.queryReportCards(ctx, `
		SELECT `+reportCardSelectColumns+`
		FROM report_card_results
		WHERE organization_id = ? AND report_card_month = ?
		ORDER BY practice_id`, orgID, models.FirstOfMonth(month))
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrReportCardNotFound
	}
	return cards, nil
}

// GetByPracticeAndMonth loads one practice's card for one month.
func (db *DB) GetByPracticeAndMonth(ctx context.Context, practiceID int, month time.Time) (*models.ReportCardResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	card, err := scanReportCard(db.conn.QueryRowContext(ctx, `
		SELECT `+reportCardSelectColumns+`
		FROM report_card_results
		WHERE practice_id = ? AND report_card_month = ?`,
		practiceID, models.FirstOfMonth(month)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// GetByOrganizationRange loads all the organization's cards in
// [startMonth, endMonth], ascending by month then practice. The annual
// review aggregates these per month.
func (db *DB) GetByOrganizationRange(ctx context.Context, orgID string, startMonth, endMonth time.Time) ([]models.ReportCardResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.queryReportCards(ctx, `
		SELECT `+reportCardSelectColumns+`
		FROM report_card_results
		WHERE organization_id = ? AND report_card_month >= ? AND report_card_month <= ?
		ORDER BY report_card_month ASC, practice_id ASC`,
		orgID, models.FirstOfMonth(startMonth), models.FirstOfMonth(endMonth))
}

// AvailableMonths lists the distinct report-card months present for the
// given practices, newest first.
func (db *DB) AvailableMonths(ctx context.Context, practiceIDs []int) ([]time.Time, error) {
	if len(practiceIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := buildInClauseInts(practiceIDs)
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT report_card_month FROM report_card_results
		WHERE practice_id IN (%s)
		ORDER BY report_card_month DESC`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query available months: %w", err)
	}
	defer rows.Close()

	var months []time.Time
	for rows.Next() {
		var m time.Time
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan available month: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}
