// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package charts implements the chart orchestration pipeline: a registry of
// kind-specific handlers, a shared fetch path through the analytics query
// builder (which applies row-level scope, failing closed to the sentinel
// practice filter), and per-kind transformations into renderable datasets.
package charts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/models"
)

// Fetcher is the warehouse surface handlers fetch through.
type Fetcher interface {
	GetDataSource(ctx context.Context, id int) (*models.DataSource, error)
	ExecuteAnalyticsQuery(ctx context.Context, q *database.AnalyticsQuery) (*database.AnalyticsResult, error)
	GetProviderColors(ctx context.Context, providerIDs []string) (map[string]string, error)
}

// FetchOutcome carries fetched rows plus the fail-closed flag the
// orchestrator audits.
type FetchOutcome struct {
	Rows       []models.AnalyticsRow
	FailClosed bool
}

// Handler is one chart-kind strategy. A handler may claim several kinds
// through CanHandle; Kinds lists the primary registry keys.
type Handler interface {
	Kinds() []models.ChartKind
	CanHandle(cfg *models.ChartConfig) bool
	Validate(cfg *models.ChartConfig) models.ValidationResult
	FetchData(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error)
	Transform(rows []models.AnalyticsRow, cfg *models.ChartConfig) (*models.ChartData, error)
}

// ResultEnricher is implemented by handlers that attach extra payloads to
// the orchestration result (the table handler's columns and formatted
// rows). The enrichment runs after transform.
type ResultEnricher interface {
	Enrich(ctx context.Context, cfg *models.ChartConfig, rows []models.AnalyticsRow, result *models.OrchestrationResult) error
}

// RequestCache memoizes per-request lookups so a multi-fetch handler (dual
// axis, period comparison) resolves each data source once. It is scoped to
// one orchestration and safe for the parallel dual-axis fetches.
type RequestCache struct {
	mu      sync.Mutex
	sources map[int]*models.DataSource
}

// NewRequestCache creates an empty request-scoped cache.
func NewRequestCache() *RequestCache {
	return &RequestCache{sources: make(map[int]*models.DataSource)}
}

// DataSource loads the descriptor through the cache.
func (rc *RequestCache) DataSource(ctx context.Context, fetcher Fetcher, id int) (*models.DataSource, error) {
	rc.mu.Lock()
	if ds, ok := rc.sources[id]; ok {
		rc.mu.Unlock()
		return ds, nil
	}
	rc.mu.Unlock()

	ds, err := fetcher.GetDataSource(ctx, id)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	rc.sources[id] = ds
	rc.mu.Unlock()
	return ds, nil
}

// baseHandler carries the shared fetch and validation behavior.
type baseHandler struct {
	fetcher Fetcher
}

// validateCommon rejects configs missing a chart type or a positive data
// source id.
func (b *baseHandler) validateCommon(cfg *models.ChartConfig) []string {
	var errs []string
	if cfg.ChartType == "" {
		errs = append(errs, "chart_type is required")
	}
	if cfg.DataSourceID <= 0 {
		errs = append(errs, "data_source_id must be positive")
	}
	return errs
}

func validationResult(errs []string) models.ValidationResult {
	return models.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// fetchSeries runs one builder query for the config, optionally overriding
// the window and tagging rows with a series id.
func (b *baseHandler) fetchSeries(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache, seriesID string, start, end *time.Time) (*database.AnalyticsResult, error) {
	ds, err := rc.DataSource(ctx, b.fetcher, cfg.DataSourceID)
	if err != nil {
		return nil, err
	}

	return b.fetcher.ExecuteAnalyticsQuery(ctx, &database.AnalyticsQuery{
		DataSource: ds,
		Columns:    database.ResolveColumns(ds),
		Config:     cfg,
		Scope:      scope,
		SeriesID:   seriesID,
		StartDate:  start,
		EndDate:    end,
	})
}

// fetchStandard is the common fetch path: resolve the date window from the
// preset, then fetch either the single series, one query per configured
// series, or the current/comparison pair.
func (b *baseHandler) fetchStandard(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	effective := *cfg
	applyDatePreset(&effective, time.Now().UTC())

	if len(effective.MultipleSeries) > 0 {
		return b.fetchMultipleSeries(ctx, &effective, scope, rc)
	}
	if effective.PeriodComparison != nil && effective.PeriodComparison.Enabled {
		return b.fetchPeriodComparison(ctx, &effective, scope, rc)
	}

	result, err := b.fetchSeries(ctx, &effective, scope, rc, "", nil, nil)
	if err != nil {
		return nil, err
	}
	return &FetchOutcome{Rows: result.Rows, FailClosed: result.FailClosed}, nil
}

// fetchMultipleSeries issues one query per configured series, each filtered
// to its measure and tagged with the measure name.
func (b *baseHandler) fetchMultipleSeries(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	outcome := &FetchOutcome{}
	for _, series := range cfg.MultipleSeries {
		seriesCfg := *cfg
		seriesCfg.MeasureName = series.MeasureName

		result, err := b.fetchSeries(ctx, &seriesCfg, scope, rc, series.MeasureName, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch series %s: %w", series.MeasureName, err)
		}
		outcome.Rows = append(outcome.Rows, result.Rows...)
		outcome.FailClosed = outcome.FailClosed || result.FailClosed
	}
	return outcome, nil
}

// fetchPeriodComparison fetches the configured window twice: once as-is
// tagged current, once shifted back by the comparison offset tagged
// comparison.
func (b *baseHandler) fetchPeriodComparison(ctx context.Context, cfg *models.ChartConfig, scope *models.AccessScope, rc *RequestCache) (*FetchOutcome, error) {
	if cfg.StartDate == nil || cfg.EndDate == nil {
		return nil, fmt.Errorf("period comparison requires a resolvable date window")
	}

	offset := cfg.PeriodComparison.OffsetMonths
	if offset <= 0 {
		offset = 12
	}

	current, err := b.fetchSeries(ctx, cfg, scope, rc, models.SeriesCurrent, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch current period: %w", err)
	}

	shiftedStart := cfg.StartDate.AddDate(0, -offset, 0)
	shiftedEnd := cfg.EndDate.AddDate(0, -offset, 0)
	comparison, err := b.fetchSeries(ctx, cfg, scope, rc, models.SeriesComparison, &shiftedStart, &shiftedEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch comparison period: %w", err)
	}

	return &FetchOutcome{
		Rows:       append(current.Rows, comparison.Rows...),
		FailClosed: current.FailClosed || comparison.FailClosed,
	}, nil
}

// applyDatePreset fills StartDate/EndDate from the named preset when no
// explicit window is set. Unknown presets leave the window open.
func applyDatePreset(cfg *models.ChartConfig, now time.Time) {
	if cfg.StartDate != nil || cfg.EndDate != nil || cfg.DateRangePreset == "" {
		return
	}

	end := models.FirstOfMonth(now).AddDate(0, 1, 0).AddDate(0, 0, -1)
	var start time.Time
	switch cfg.DateRangePreset {
	case "last_3_months":
		start = models.FirstOfMonth(now).AddDate(0, -2, 0)
	case "last_6_months":
		start = models.FirstOfMonth(now).AddDate(0, -5, 0)
	case "last_12_months":
		start = models.FirstOfMonth(now).AddDate(0, -11, 0)
	case "ytd":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case "last_month":
		start = models.CurrentReportCardMonth(now)
		end = models.FirstOfMonth(now).AddDate(0, 0, -1)
	default:
		return
	}
	cfg.StartDate = &start
	cfg.EndDate = &end
}
