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

// GetDataSource loads a data-source descriptor with its column catalog.
func (db *DB) GetDataSource(ctx context.Context, id int) (*models.DataSource, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var ds models.DataSource
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, schema_name, table_name, is_active FROM data_sources WHERE id = ?`, id,
	).Scan(&ds.ID, &ds.Name, &ds.SchemaName, &ds.TableName, &ds.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDataSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query data source %d: %w", id, err)
	}

	columns, err := db.getDataSourceColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	ds.Columns = columns
	return &ds, nil
}

// getDataSourceColumns loads the catalog in display order.
func (db *DB) getDataSourceColumns(ctx context.Context, dataSourceID int) ([]models.ColumnDefinition, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT column_name, COALESCE(display_name, ''), COALESCE(data_type, ''),
			COALESCE(format_kind, ''), COALESCE(icon_name, ''),
			is_measure, is_date, is_time_period, is_practice, is_provider,
			is_filterable, is_displayable, display_order
		FROM data_source_columns
		WHERE data_source_id = ?
		ORDER BY display_order, column_name`, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("query data source columns: %w", err)
	}
	defer rows.Close()

	var columns []models.ColumnDefinition
	for rows.Next() {
		var c models.ColumnDefinition
		if err := rows.Scan(
			&c.ColumnName, &c.DisplayName, &c.DataType,
			&c.FormatKind, &c.IconName,
			&c.IsMeasure, &c.IsDate, &c.IsTimePeriod, &c.IsPractice, &c.IsProvider,
			&c.IsFilterable, &c.IsDisplayable, &c.DisplayOrder,
		); err != nil {
			return nil, fmt.Errorf("scan data source column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// ListActiveDataSources returns all active descriptors without catalogs.
func (db *DB) ListActiveDataSources(ctx context.Context) ([]models.DataSource, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, schema_name, table_name, is_active FROM data_sources WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query data sources: %w", err)
	}
	defer rows.Close()

	var sources []models.DataSource
	for rows.Next() {
		var ds models.DataSource
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.SchemaName, &ds.TableName, &ds.IsActive); err != nil {
			return nil, fmt.Errorf("scan data source: %w", err)
		}
		sources = append(sources, ds)
	}
	return sources, rows.Err()
}

// SetDataSourceActive flips a data source's active flag.
func (db *DB) SetDataSourceActive(ctx context.Context, id int, active bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE data_sources SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update data source %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update data source %d: %w", id, err)
	}
	if affected == 0 {
		return ErrDataSourceNotFound
	}
	return nil
}

// GetChartDefinition loads a persisted chart definition.
func (db *DB) GetChartDefinition(ctx context.Context, id int) (*models.ChartDefinition, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var def models.ChartDefinition
	var chartType, configJSON string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, chart_type, data_source_id, config, is_active FROM chart_definitions WHERE id = ?`, id,
	).Scan(&def.ID, &def.Name, &chartType, &def.DataSourceID, &configJSON, &def.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChartDefinitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query chart definition %d: %w", id, err)
	}

	def.ChartType = models.ChartKind(chartType)
	if err := json.Unmarshal([]byte(configJSON), &def.Config); err != nil {
		return nil, fmt.Errorf("decode chart definition %d config: %w", id, err)
	}
	// The persisted config is authoritative for type and source even when
	// the serialized blob predates those fields.
	if def.Config.ChartType == "" {
		def.Config.ChartType = def.ChartType
	}
	if def.Config.DataSourceID == 0 {
		def.Config.DataSourceID = def.DataSourceID
	}
	return &def, nil
}

// CreateChartDefinition persists a new definition and returns its id.
func (db *DB) CreateChartDefinition(ctx context.Context, def *models.ChartDefinition) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	configJSON, err := json.Marshal(def.Config)
	if err != nil {
		return 0, fmt.Errorf("encode chart config: %w", err)
	}

	var id int
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO chart_definitions (name, chart_type, data_source_id, config, is_active)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		def.Name, string(def.ChartType), def.DataSourceID, string(configJSON), def.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert chart definition: %w", err)
	}
	return id, nil
}

// GetOrganization loads one organization.
func (db *DB) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	org, err := db.scanOrganization(db.conn.QueryRowContext(ctx,
		`SELECT id, name, parent_id, practice_ids, is_active FROM organizations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	return org, err
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanOrganization(row rowScanner) (*models.Organization, error) {
	var org models.Organization
	var idStr, practiceJSON string
	var parentStr sql.NullString

	if err := row.Scan(&idStr, &org.Name, &parentStr, &practiceJSON, &org.IsActive); err != nil {
		return nil, err
	}

	id, err := parseUUID(idStr)
	if err != nil {
		return nil, fmt.Errorf("organization id %q: %w", idStr, err)
	}
	org.ID = id

	if parentStr.Valid && parentStr.String != "" {
		parent, err := parseUUID(parentStr.String)
		if err != nil {
			return nil, fmt.Errorf("organization parent id %q: %w", parentStr.String, err)
		}
		org.ParentID = &parent
	}

	if err := json.Unmarshal([]byte(practiceJSON), &org.PracticeIDs); err != nil {
		return nil, fmt.Errorf("decode practice ids for organization %s: %w", idStr, err)
	}
	return &org, nil
}

// GetOrganizationsByIDs loads the named organizations; unknown ids are
// silently skipped.
func (db *DB) GetOrganizationsByIDs(ctx context.Context, ids []string) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := buildInClauseStrings(ids)
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, name, parent_id, practice_ids, is_active FROM organizations WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		org, err := db.scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

// GetDescendantOrganizationIDs walks the organization hierarchy breadth
// first and returns all descendants of the given roots (roots excluded).
func (db *DB) GetDescendantOrganizationIDs(ctx context.Context, rootIDs []string) ([]string, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	seen := make(map[string]bool, len(rootIDs))
	frontier := append([]string(nil), rootIDs...)
	var descendants []string

	for len(frontier) > 0 {
		placeholders, args := buildInClauseStrings(frontier)
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
			`SELECT id FROM organizations WHERE parent_id IN (%s) AND is_active`, placeholders), args...)
		if err != nil {
			return nil, fmt.Errorf("query descendant organizations: %w", err)
		}

		var next []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan descendant organization: %w", err)
			}
			if !seen[id] {
				seen[id] = true
				next = append(next, id)
				descendants = append(descendants, id)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		frontier = next
	}
	return descendants, nil
}

// GetPracticeOrganizationMap returns practice -> organization-id for every
// practice claimed by an active organization. Used by the generator's bulk
// preload.
func (db *DB) GetPracticeOrganizationMap(ctx context.Context) (map[int]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, practice_ids FROM organizations WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("query organization practice map: %w", err)
	}
	defer rows.Close()

	result := make(map[int]string)
	for rows.Next() {
		var orgID, practiceJSON string
		if err := rows.Scan(&orgID, &practiceJSON); err != nil {
			return nil, fmt.Errorf("scan organization practice map: %w", err)
		}
		var practiceIDs []int
		if err := json.Unmarshal([]byte(practiceJSON), &practiceIDs); err != nil {
			return nil, fmt.Errorf("decode practice ids for organization %s: %w", orgID, err)
		}
		for _, pid := range practiceIDs {
			result[pid] = orgID
		}
	}
	return result, rows.Err()
}

// GetProviderColors bulk-fetches rendering colors for the given providers.
// Providers without a stored color are absent from the result; the bar
// handler assigns palette fallbacks.
func (db *DB) GetProviderColors(ctx context.Context, providerIDs []string) (map[string]string, error) {
	if len(providerIDs) == 0 {
		return map[string]string{}, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := buildInClauseStrings(providerIDs)
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT provider_id, color FROM providers WHERE provider_id IN (%s) AND color IS NOT NULL`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query provider colors: %w", err)
	}
	defer rows.Close()

	colors := make(map[string]string)
	for rows.Next() {
		var id, color string
		if err := rows.Scan(&id, &color); err != nil {
			return nil, fmt.Errorf("scan provider color: %w", err)
		}
		colors[id] = color
	}
	return colors, rows.Err()
}
