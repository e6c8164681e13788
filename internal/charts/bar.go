// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"sort"

	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// BarHandler renders bar, stacked-bar, and horizontal-bar charts. When the
// rows carry provider ids it fetches per-provider display colors in one
// bulk lookup and stamps each row's series color before transformation.
type BarHandler struct {
	baseHandler
}

// NewBarHandler creates the bar family handler.
func NewBarHandler(fetcher Fetcher) *BarHandler {
	return &BarHandler{baseHandler{fetcher: fetcher}}
}

func (h *BarHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartBar, models.ChartStackedBar, models.ChartHorizontalBar}
}

func (h *BarHandler) CanHandle(cfg *models.ChartConfig) bool {
	switch cfg.ChartType {
	case models.ChartBar, models.ChartStackedBar, models.ChartHorizontalBar:
		return true
	}
	return false
}

func (h *BarHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if len(cfg.MultipleSeries) == 0 && cfg.MeasureName == "" {
		errs = append(errs, "measure_name is required without multiple_series")
	}
	if cfg.StackingMode != "" {
		if cfg.ChartType != models.ChartStackedBar {
			errs = append(errs, "stacking_mode is only valid for stacked-bar charts")
		} else if cfg.StackingMode != models.StackingNormal && cfg.StackingMode != models.StackingPercentage {
			errs = append(errs, "stacking_mode must be normal or percentage")
		}
	}
	return validationResult(errs)
}

func (h *BarHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	outcome, err := h.fetchStandard(ctx, cfg, scope, rc)
	if err != nil {
		return nil, err
	}
	h.applyProviderColors(ctx, outcome.Rows)
	return outcome, nil
}

// applyProviderColors stamps SeriesColor on rows grouped by provider. The
// lookup is bulk and best effort: a color failure degrades to the palette.
func (h *BarHandler) applyProviderColors(ctx context.Context, rows []models.AnalyticsRow) {
	providerSet := make(map[string]bool)
	for _, r := range rows {
		if r.ProviderID != "" {
			providerSet[r.ProviderID] = true
		}
	}
	if len(providerSet) == 0 {
		return
	}

	providerIDs := make([]string, 0, len(providerSet))
	for id := range providerSet {
		providerIDs = append(providerIDs, id)
	}
	sort.Strings(providerIDs)

	colors, err := h.fetcher.GetProviderColors(ctx, providerIDs)
	if err != nil {
		logging.Warn().Err(err).Msg("Provider color lookup failed, using default palette")
		return
	}
	for i := range rows {
		if color, ok := colors[rows[i].ProviderID]; ok && color != "" {
			rows[i].SeriesColor = color
		}
	}
}

func (h *BarHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	if cfg.ChartType == models.ChartStackedBar && cfg.GroupBy != "" {
		return h.transformStacked(rows, cfg), nil
	}
	if grouped := h.transformGrouped(rows, cfg); grouped != nil {
		return grouped, nil
	}
	return dispatchTimeSeriesTransform(rows, cfg, cfg.ChartType, false), nil
}

// transformGrouped builds one dataset per group value when the config
// groups rows (typically by provider). Returns nil when nothing is grouped
// so the caller falls back to the time-series shape.
func (h *BarHandler) transformGrouped(rows []models.AnalyticsRow, cfg *models.ChartConfig) *models.ChartData {
	if cfg.GroupBy == "" {
		return nil
	}

	dates := sortedDates(rows)
	dateIndex := make(map[int64]int, len(dates))
	data := &models.ChartData{Labels: make([]string, len(dates))}
	for i, d := range dates {
		data.Labels[i] = labelForDate(d, cfg.Frequency)
		dateIndex[d.Unix()] = i
	}

	groups, _ := groupTotals(rows)
	groupColors := make(map[string]string)
	groupValues := make(map[string][]float64, len(groups))
	for _, g := range groups {
		groupValues[g] = make([]float64, len(dates))
	}
	for _, r := range rows {
		group := r.GroupValue
		if group == "" {
			group = "Total"
		}
		groupValues[group][dateIndex[r.Date.Unix()]] += r.MeasureValue
		if r.SeriesColor != "" && groupColors[group] == "" {
			groupColors[group] = r.SeriesColor
		}
	}

	for i, g := range groups {
		color := groupColors[g]
		if color == "" {
			color = paletteColor(i)
		}
		data.Datasets = append(data.Datasets, models.ChartDataset{
			Label: g,
			Data:  groupValues[g],
			Color: color,
			Kind:  cfg.ChartType,
		})
	}
	return data
}

// transformStacked builds grouped datasets that share one stack. In
// percentage mode every dataset also carries per-label percentages of the
// label's total.
func (h *BarHandler) transformStacked(rows []models.AnalyticsRow, cfg *models.ChartConfig) *models.ChartData {
	data := h.transformGrouped(rows, cfg)
	if data == nil {
		data = dispatchTimeSeriesTransform(rows, cfg, cfg.ChartType, false)
	}

	for i := range data.Datasets {
		data.Datasets[i].Stack = "stack-0"
	}

	if cfg.StackingMode == models.StackingPercentage && len(data.Datasets) > 0 {
		n := len(data.Labels)
		totals := make([]float64, n)
		for _, ds := range data.Datasets {
			for j := 0; j < n && j < len(ds.Data); j++ {
				totals[j] += ds.Data[j]
			}
		}
		for i := range data.Datasets {
			pct := make([]float64, n)
			for j := 0; j < n && j < len(data.Datasets[i].Data); j++ {
				if totals[j] != 0 {
					pct[j] = data.Datasets[i].Data[j] / totals[j] * 100
				}
			}
			data.Datasets[i].Percentages = pct
		}
	}
	return data
}
