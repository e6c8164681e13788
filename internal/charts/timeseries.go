// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"

	"github.com/insano70/bcos-sub005/internal/models"
)

// TimeSeriesHandler renders line and area charts. Area is a line with the
// fill flag set on every dataset.
type TimeSeriesHandler struct {
	baseHandler
}

// NewTimeSeriesHandler creates the time series handler.
func NewTimeSeriesHandler(fetcher Fetcher) *TimeSeriesHandler {
	return &TimeSeriesHandler{baseHandler{fetcher: fetcher}}
}

func (h *TimeSeriesHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartLine, models.ChartArea}
}

func (h *TimeSeriesHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartLine || cfg.ChartType == models.ChartArea
}

func (h *TimeSeriesHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if len(cfg.MultipleSeries) == 0 && cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required without multiple_series")
	}
	if len(cfg.MultipleSeries) > 0 && cfg.PeriodComparison != nil && cfg.PeriodComparison.Enabled {
		errs = append(errs, "multiple_series and period_comparison cannot be combined")
	}
	for _, series := range cfg.MultipleSeries {
		if series.MeasureName == "" {
			errs = append(errs, "multiple_series entries require measure_name")
			break
		}
	}
	return validationResult(errs)
}

func (h *TimeSeriesHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	return h.fetchStandard(ctx, cfg, scope, rc)
}

func (h *TimeSeriesHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	fill := cfg.ChartType == models.ChartArea
	return dispatchTimeSeriesTransform(rows, cfg, models.ChartLine, fill), nil
}
