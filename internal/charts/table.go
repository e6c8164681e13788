// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/insano70/bcos-sub005/internal/models"
)

// TableHandler renders tabular views in two steps: column metadata from the
// data-source catalog, then the raw rows formatted server-side into
// {formatted, raw, icon} cells. It attaches both through the enrichment
// hook rather than the chart payload.
type TableHandler struct {
	baseHandler
}

// NewTableHandler creates the table handler.
func NewTableHandler(fetcher Fetcher) *TableHandler {
	return &TableHandler{baseHandler{fetcher: fetcher}}
}

func (h *TableHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartTable}
}

func (h *TableHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartTable
}

func (h *TableHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required")
	}
	if cfg.Aggregation != "" {
		errs = append(errs, "aggregation is not supported for table charts")
	}
	if len(cfg.MultipleSeries) > 0 {
		errs = append(errs, "multiple_series is not supported for table charts")
	}
	if cfg.PeriodComparison != nil && cfg.PeriodComparison.Enabled {
		errs = append(errs, "period_comparison is not supported for table charts")
	}
	if cfg.GroupBy != "" {
		errs = append(errs, "group_by is not supported for table charts")
	}
	return validationResult(errs)
}

func (h *TableHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	return h.fetchStandard(ctx, cfg, scope, rc)
}

// Transform is a no-op for tables; the payload lives in the enrichment.
func (h *TableHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	return &models.ChartData{}, nil
}

// Enrich attaches the displayable column catalog and the formatted rows to
// the result.
func (h *TableHandler) Enrich(ctx context.Context, cfg *models.ChartConfig, rows []models.AnalyticsRow, result *models.OrchestrationResult) error {
	ds, err := h.fetcher.GetDataSource(ctx, cfg.DataSourceID)
	if err != nil {
		return fmt.Errorf("load table columns: %w", err)
	}

	columns := displayableColumns(ds)
	result.Columns = columns

	formatted := make([][]models.FormattedCell, len(rows))
	for i, row := range rows {
		cells := make([]models.FormattedCell, len(columns))
		for j, col := range columns {
			cells[j] = formatCell(&row, &col)
		}
		formatted[i] = cells
	}
	result.FormattedRows = formatted
	return nil
}

// displayableColumns returns the catalog columns to render, preserving
// catalog order. An empty catalog degrades to the typed row shape.
func displayableColumns(ds *models.DataSource) []models.ColumnDefinition {
	var columns []models.ColumnDefinition
	for _, col := range ds.Columns {
		if col.IsDisplayable {
			columns = append(columns, col)
		}
	}
	if len(columns) > 0 {
		return columns
	}
	return []models.ColumnDefinition{
		{ColumnName: models.DefaultPracticeColumn, DisplayName: "Practice", IsPractice: true},
		{ColumnName: models.DefaultProviderColumn, DisplayName: "Provider", IsProvider: true},
		{ColumnName: models.DefaultDateColumn, DisplayName: "Period", IsDate: true},
		{ColumnName: models.DefaultMeasureColumn, DisplayName: "Value", IsMeasure: true, FormatKind: "number"},
	}
}

// formatCell maps one typed row field onto a catalog column and formats it
// per the column's format kind.
func formatCell(row *models.AnalyticsRow, col *models.ColumnDefinition) models.FormattedCell {
	switch {
	case col.IsPractice:
		return models.FormattedCell{Formatted: strconv.Itoa(row.PracticeID), Raw: row.PracticeID, Icon: col.IconName}
	case col.IsProvider:
		return models.FormattedCell{Formatted: row.ProviderID, Raw: row.ProviderID, Icon: col.IconName}
	case col.IsDate || col.IsTimePeriod:
		label := row.PeriodLabel
		if label == "" {
			label = row.Date.Format("Jan 2006")
		}
		return models.FormattedCell{Formatted: label, Raw: row.Date.Format("2006-01-02"), Icon: col.IconName}
	case col.IsMeasure:
		return models.FormattedCell{
			Formatted: formatValue(row.MeasureValue, col.FormatKind),
			Raw:       row.MeasureValue,
			Icon:      col.IconName,
		}
	default:
		return models.FormattedCell{Formatted: row.GroupValue, Raw: row.GroupValue, Icon: col.IconName}
	}
}

// formatValue renders a measure value per format kind.
func formatValue(v float64, kind string) string {
	switch kind {
	case "currency":
		return "$" + groupThousands(fmt.Sprintf("%.2f", v))
	case "percentage":
		return fmt.Sprintf("%.1f%%", v)
	case "integer":
		return groupThousands(fmt.Sprintf("%.0f", v))
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// groupThousands inserts comma separators into the integer part of a
// non-negative decimal string. Negative values keep the sign out front.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	n := len(intPart)
	for i, r := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + fracPart
	}
	return out
}
