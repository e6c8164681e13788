// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/insano70/bcos-sub005/internal/models"
)

// ResolveColumns maps the five logical column roles onto physical column
// names from a data-source descriptor's column catalog.
//
// The date role is resolved disjunctively: the chosen column must be
// flagged as a date AND NOT as a time-period. One column can legally carry
// both flags, and treating it as the date column would silently substitute
// period names for dates in every time-series query.
//
// Roles with no flagged column fall back to the defaults.
func ResolveColumns(ds *models.DataSource) models.ResolvedColumns {
	resolved := models.DefaultResolvedColumns()
	if ds == nil {
		return resolved
	}

	for _, col := range ds.Columns {
		switch {
		case col.IsMeasure && resolved.Measure == models.DefaultMeasureColumn:
			resolved.Measure = col.ColumnName
		case col.IsDate && !col.IsTimePeriod && resolved.Date == models.DefaultDateColumn:
			resolved.Date = col.ColumnName
		case col.IsTimePeriod && resolved.TimePeriod == models.DefaultTimePeriodColumn:
			resolved.TimePeriod = col.ColumnName
		case col.IsPractice && resolved.Practice == models.DefaultPracticeColumn:
			resolved.Practice = col.ColumnName
		case col.IsProvider && resolved.Provider == models.DefaultProviderColumn:
			resolved.Provider = col.ColumnName
		}
	}
	return resolved
}

// ResolveColumnsForDataSource loads the descriptor and resolves its roles.
// A missing descriptor resolves to the defaults rather than failing: chart
// requests against legacy sources still work.
func (db *DB) ResolveColumnsForDataSource(ctx context.Context, dataSourceID int) (models.ResolvedColumns, error) {
	ds, err := db.GetDataSource(ctx, dataSourceID)
	if err != nil {
		if errors.Is(err, ErrDataSourceNotFound) {
			return models.DefaultResolvedColumns(), nil
		}
		return models.ResolvedColumns{}, fmt.Errorf("resolve columns for data source %d: %w", dataSourceID, err)
	}
	return ResolveColumns(ds), nil
}
