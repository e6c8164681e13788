// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"sort"

	"github.com/insano70/bcos-sub005/internal/models"
)

// ProgressBarHandler renders progress-bar charts: one bar per group, the
// dynamic target being the sum of all group totals, each bar labeled with
// its share of that target. Without a grouping field every row lands in a
// single "Total" bucket.
type ProgressBarHandler struct {
	baseHandler
}

// NewProgressBarHandler creates the progress-bar handler.
func NewProgressBarHandler(fetcher Fetcher) *ProgressBarHandler {
	return &ProgressBarHandler{baseHandler{fetcher: fetcher}}
}

func (h *ProgressBarHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartProgressBar}
}

func (h *ProgressBarHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartProgressBar
}

func (h *ProgressBarHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required")
	}
	return validationResult(errs)
}

func (h *ProgressBarHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	return h.fetchStandard(ctx, cfg, scope, rc)
}

func (h *ProgressBarHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	groups, totals := groupTotals(rows)

	// Largest groups first.
	sort.SliceStable(groups, func(i, j int) bool { return totals[groups[i]] > totals[groups[j]] })

	var target float64
	for _, g := range groups {
		target += totals[g]
	}

	data := &models.ChartData{Labels: make([]string, len(groups))}
	values := make([]float64, len(groups))
	percentages := make([]float64, len(groups))
	for i, g := range groups {
		data.Labels[i] = g
		values[i] = totals[g]
		if target != 0 {
			percentages[i] = totals[g] / target * 100
		}
	}

	label := cfg.MeasureName
	if label == "" {
		label = "Value"
	}
	data.Datasets = []models.ChartDataset{{
		Label:       label,
		Data:        values,
		Percentages: percentages,
		Target:      target,
		Kind:        models.ChartProgressBar,
	}}
	return data, nil
}
