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

	"github.com/goccy/go-json"

	"github.com/insano70/bcos-sub005/internal/models"
)

const measureSelectColumns = `id, name, COALESCE(display_name, ''), weight,
	higher_is_better, format_kind, data_source_id,
	COALESCE(value_column, ''), COALESCE(filter_criteria, ''), is_active`

func scanMeasure(row rowScanner) (*models.MeasureConfig, error) {
	var m models.MeasureConfig
	var formatKind, filterJSON string
	if err := row.Scan(
		&m.ID, &m.Name, &m.DisplayName, &m.Weight,
		&m.HigherIsBetter, &formatKind, &m.DataSourceID,
		&m.ValueColumn, &filterJSON, &m.IsActive,
	); err != nil {
		return nil, err
	}
	m.FormatKind = models.FormatKind(formatKind)
	if filterJSON != "" {
		if err := json.Unmarshal([]byte(filterJSON), &m.FilterCriteria); err != nil {
			return nil, fmt.Errorf("decode filter criteria for measure %s: %w", m.Name, err)
		}
	}
	return &m, nil
}

// ListActiveMeasures returns all active measures ordered by name. The
// generator treats this list as the scoring universe for a run.
func (db *DB) ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+measureSelectColumns+` FROM measures WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query measures: %w", err)
	}
	defer rows.Close()

	var measures []models.MeasureConfig
	for rows.Next() {
		m, err := scanMeasure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measure: %w", err)
		}
		measures = append(measures, *m)
	}
	return measures, rows.Err()
}

// GetMeasureByName loads one measure, active or not.
func (db *DB) GetMeasureByName(ctx context.Context, name string) (*models.MeasureConfig, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	m, err := scanMeasure(db.conn.QueryRowContext(ctx,
		`SELECT `+measureSelectColumns+` FROM measures WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMeasureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query measure %s: %w", name, err)
	}
	return m, nil
}

// CreateMeasure persists a new measure. Names are unique; a clash returns
// ErrMeasureDuplicate so the API layer can answer with a stable error code
// instead of a raw constraint failure.
func (db *DB) CreateMeasure(ctx context.Context, m *models.MeasureConfig) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var exists int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM measures WHERE name = ?`, m.Name).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check measure name %s: %w", m.Name, err)
	}
	if exists > 0 {
		return 0, ErrMeasureDuplicate
	}

	filterJSON := ""
	if len(m.FilterCriteria) > 0 {
		raw, err := json.Marshal(m.FilterCriteria)
		if err != nil {
			return 0, fmt.Errorf("encode filter criteria: %w", err)
		}
		filterJSON = string(raw)
	}

	var id int
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO measures (name, display_name, weight, higher_is_better,
			format_kind, data_source_id, value_column, filter_criteria, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		m.Name, m.DisplayName, m.EffectiveWeight(), m.HigherIsBetter,
		string(m.FormatKind), m.DataSourceID, m.ValueColumn, filterJSON, m.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert measure %s: %w", m.Name, err)
	}
	return id, nil
}

// UpdateMeasureWeight changes a measure's scoring weight.
func (db *DB) UpdateMeasureWeight(ctx context.Context, name string, weight int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE measures SET weight = ? WHERE name = ?`, weight, name)
	if err != nil {
		return fmt.Errorf("update measure weight %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMeasureNotFound
	}
	return nil
}

// DeactivateMeasure removes a measure from the scoring universe without
// deleting its history.
func (db *DB) DeactivateMeasure(ctx context.Context, name string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE measures SET is_active = false WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deactivate measure %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMeasureNotFound
	}
	return nil
}
