// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"

	"github.com/insano70/bcos-sub005/internal/models"
)

// MetricHandler renders single-value metric cards by aggregating every
// fetched row into one number. Empty input yields 0, not an error.
type MetricHandler struct {
	baseHandler
}

// NewMetricHandler creates the metric handler.
func NewMetricHandler(fetcher Fetcher) *MetricHandler {
	return &MetricHandler{baseHandler{fetcher: fetcher}}
}

func (h *MetricHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartMetric}
}

func (h *MetricHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartMetric
}

func (h *MetricHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required")
	}
	switch cfg.Aggregation {
	case "", models.AggregationSum, models.AggregationAvg, models.AggregationCount,
		models.AggregationMin, models.AggregationMax:
	default:
		errs = append(errs, "aggregation must be one of sum, avg, count, min, max")
	}
	if cfg.GroupBy != "" {
		errs = append(errs, "group_by is not supported for metric charts")
	}
	if len(cfg.MultipleSeries) > 0 {
		errs = append(errs, "multiple_series is not supported for metric charts")
	}
	return validationResult(errs)
}

func (h *MetricHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	return h.fetchStandard(ctx, cfg, scope, rc)
}

func (h *MetricHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	value := Aggregate(rows, cfg.Aggregation)
	return &models.ChartData{Value: &value}, nil
}

// Aggregate reduces rows to one number. Empty input is 0 for every
// aggregation kind.
func Aggregate(rows []models.AnalyticsRow, kind models.AggregationKind) float64 {
	if len(rows) == 0 {
		return 0
	}
	switch kind {
	case models.AggregationCount:
		return float64(len(rows))
	case models.AggregationAvg:
		var sum float64
		for _, r := range rows {
			sum += r.MeasureValue
		}
		return sum / float64(len(rows))
	case models.AggregationMin:
		min := rows[0].MeasureValue
		for _, r := range rows[1:] {
			if r.MeasureValue < min {
				min = r.MeasureValue
			}
		}
		return min
	case models.AggregationMax:
		max := rows[0].MeasureValue
		for _, r := range rows[1:] {
			if r.MeasureValue > max {
				max = r.MeasureValue
			}
		}
		return max
	default: // sum
		var sum float64
		for _, r := range rows {
			sum += r.MeasureValue
		}
		return sum
	}
}
