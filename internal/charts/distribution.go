// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"

	"github.com/insano70/bcos-sub005/internal/models"
)

// DistributionHandler renders pie and doughnut charts: one slice per group
// value, sized by the group's total.
type DistributionHandler struct {
	baseHandler
}

// NewDistributionHandler creates the distribution handler.
func NewDistributionHandler(fetcher Fetcher) *DistributionHandler {
	return &DistributionHandler{baseHandler{fetcher: fetcher}}
}

func (h *DistributionHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartPie, models.ChartDoughnut}
}

func (h *DistributionHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartPie || cfg.ChartType == models.ChartDoughnut
}

func (h *DistributionHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required")
	}
	if cfg.GroupBy == "" {
		errs = append(errs, "group_by is required for distribution charts")
	}
	if len(cfg.MultipleSeries) > 0 {
		errs = append(errs, "multiple_series is not supported for distribution charts")
	}
	if cfg.PeriodComparison != nil && cfg.PeriodComparison.Enabled {
		errs = append(errs, "period_comparison is not supported for distribution charts")
	}
	return validationResult(errs)
}

func (h *DistributionHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	return h.fetchStandard(ctx, cfg, scope, rc)
}

func (h *DistributionHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	groups, totals := groupTotals(rows)

	data := &models.ChartData{
		Labels: make([]string, len(groups)),
	}
	values := make([]float64, len(groups))
	for i, g := range groups {
		data.Labels[i] = g
		values[i] = totals[g]
	}

	label := cfg.MeasureName
	if label == "" {
		label = "Value"
	}
	data.Datasets = []models.ChartDataset{{
		Label: label,
		Data:  values,
		Kind:  cfg.ChartType,
	}}
	return data, nil
}
