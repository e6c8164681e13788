// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/insano70/bcos-sub005/internal/models"
)

// DualAxisHandler renders charts pairing a primary bar series on the left
// axis with a secondary line or bar series on the right axis. The two
// measures are fetched in parallel and tagged by side.
type DualAxisHandler struct {
	baseHandler
}

// NewDualAxisHandler creates the dual-axis handler.
func NewDualAxisHandler(fetcher Fetcher) *DualAxisHandler {
	return &DualAxisHandler{baseHandler{fetcher: fetcher}}
}

func (h *DualAxisHandler) Kinds() []models.ChartKind {
	return []models.ChartKind{models.ChartDualAxis}
}

func (h *DualAxisHandler) CanHandle(cfg *models.ChartConfig) bool {
	return cfg.ChartType == models.ChartDualAxis
}

func (h *DualAxisHandler) Validate(cfg *models.ChartConfig) models.ValidationResult {
	errs := h.validateCommon(cfg)
	if cfg.DualAxis == nil {
		errs = append(errs, "dual_axis configuration is required")
		return validationResult(errs)
	}
	if cfg.DualAxis.Primary.MeasureName == "" {
		errs = append(errs, "dual_axis.primary.measure_name is required")
	}
	if cfg.DualAxis.Secondary.MeasureName == "" {
		errs = append(errs, "dual_axis.secondary.measure_name is required")
	}
	if k := cfg.DualAxis.Primary.ChartKind; k != "" && k != models.ChartBar {
		errs = append(errs, "dual_axis.primary must be a bar series")
	}
	if k := cfg.DualAxis.Secondary.ChartKind; k != "" && k != models.ChartLine && k != models.ChartBar {
		errs = append(errs, "dual_axis.secondary must be a line or bar series")
	}
	if len(cfg.MultipleSeries) > 0 {
		errs = append(errs, "multiple_series is not supported for dual-axis charts")
	}
	if cfg.PeriodComparison != nil && cfg.PeriodComparison.Enabled {
		errs = append(errs, "period_comparison is not supported for dual-axis charts")
	}
	return validationResult(errs)
}

func (h *DualAxisHandler) FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	effective := *cfg
	applyDatePreset(&effective, time.Now().UTC())

	var (
		primaryRows, secondaryRows []models.AnalyticsRow
		primaryFC, secondaryFC     bool
	)
	g, gctx := errgroup.WithContext(ctx)
	fetchSide := func(measure, seriesID string, rows *[]models.AnalyticsRow, failClosed *bool) func() error {
		return func() error {
			sideCfg := effective
			sideCfg.MeasureName = measure
			result, err := h.fetchSeries(gctx, &sideCfg, scope, rc, seriesID, nil, nil)
			if err != nil {
				return fmt.Errorf("fetch %s series: %w", seriesID, err)
			}
			*rows = result.Rows
			*failClosed = result.FailClosed
			return nil
		}
	}
	g.Go(fetchSide(effective.DualAxis.Primary.MeasureName, models.SeriesPrimary, &primaryRows, &primaryFC))
	g.Go(fetchSide(effective.DualAxis.Secondary.MeasureName, models.SeriesSecondary, &secondaryRows, &secondaryFC))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &FetchOutcome{
		Rows:       append(primaryRows, secondaryRows...),
		FailClosed: primaryFC || secondaryFC,
	}, nil
}

func (h *DualAxisHandler) Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error) {
	if cfg.DualAxis == nil {
		return nil, fmt.Errorf("dual_axis configuration is required")
	}

	dates := sortedDates(rows)
	dateIndex := make(map[time.Time]int, len(dates))
	data := &models.ChartData{Labels: make([]string, len(dates))}
	for i, d := range dates {
		data.Labels[i] = labelForDate(d, cfg.Frequency)
		dateIndex[d] = i
	}

	primary := make([]float64, len(dates))
	secondary := make([]float64, len(dates))
	for _, r := range rows {
		switch r.SeriesID {
		case models.SeriesPrimary:
			primary[dateIndex[r.Date]] += r.MeasureValue
		case models.SeriesSecondary:
			secondary[dateIndex[r.Date]] += r.MeasureValue
		}
	}

	primaryLabel := cfg.DualAxis.Primary.Label
	if primaryLabel == "" {
		primaryLabel = cfg.DualAxis.Primary.MeasureName
	}
	secondaryLabel := cfg.DualAxis.Secondary.Label
	if secondaryLabel == "" {
		secondaryLabel = cfg.DualAxis.Secondary.MeasureName
	}
	secondaryKind := cfg.DualAxis.Secondary.ChartKind
	if secondaryKind == "" {
		secondaryKind = models.ChartLine
	}
	primaryColor := cfg.DualAxis.Primary.Color
	if primaryColor == "" {
		primaryColor = paletteColor(0)
	}
	secondaryColor := cfg.DualAxis.Secondary.Color
	if secondaryColor == "" {
		secondaryColor = paletteColor(1)
	}

	data.Datasets = []models.ChartDataset{
		{
			Label:    primaryLabel,
			Data:     primary,
			SeriesID: models.SeriesPrimary,
			Color:    primaryColor,
			Kind:     models.ChartBar,
			YAxisID:  "left",
		},
		{
			Label:    secondaryLabel,
			Data:     secondary,
			SeriesID: models.SeriesSecondary,
			Color:    secondaryColor,
			Kind:     secondaryKind,
			YAxisID:  "right",
		},
	}
	return data, nil
}
