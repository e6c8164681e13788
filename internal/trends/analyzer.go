// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package trends computes per-measure movement for every practice over
// three comparison windows: current month vs the mean of the prior three
// months, vs the mean of the prior six, and vs the same month one year
// earlier. One thirteen-month bulk fetch feeds all three computations.
package trends

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

const leaseName = "trend-run"

// Store is the warehouse surface the analyzer needs.
type Store interface {
	GetTrendWindow(ctx context.Context, startMonth, endMonth time.Time) (database.TrendWindow, error)
	ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error)
	UpsertTrends(ctx context.Context, processed []database.TrendPair, trends []models.TrendRow) error
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Analyzer runs the batch trend computation.
type Analyzer struct {
	store    Store
	cfg      config.AnalyticsConfig
	auditLog *audit.Logger
	holder   string
}

// NewAnalyzer creates a trend analyzer.
func NewAnalyzer(store Store, cfg config.AnalyticsConfig, auditLog *audit.Logger) *Analyzer {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "trends"
	}
	return &Analyzer{
		store:    store,
		cfg:      cfg,
		auditLog: auditLog,
		holder:   hostname + "-" + uuid.NewString()[:8],
	}
}

// Computation is one trend outcome before persistence.
type Computation struct {
	Direction        models.TrendDirection
	PercentageChange float64
}

// ComputeDirection applies the movement rule: percentage change of current
// against the comparator, clamped to the storage cap, interpreted through
// the stability band and the measure's orientation.
//
// A zero comparator would imply an infinite change; (nil, false) suppresses
// the row entirely rather than storing a capped artifact.
func ComputeDirection(current, comparator float64, higherIsBetter bool, stabilityBand float64) (Computation, bool) {
	if comparator == 0 {
		return Computation{}, false
	}

	p := (current - comparator) / comparator * 100
	if p > models.TrendPercentageCap {
		p = models.TrendPercentageCap
	} else if p < -models.TrendPercentageCap {
		p = -models.TrendPercentageCap
	}
	p = roundTo2(p)

	direction := models.TrendStable
	if math.Abs(p) >= stabilityBand {
		positive := p > 0
		if positive == higherIsBetter {
			direction = models.TrendImproving
		} else {
			direction = models.TrendDeclining
		}
	}
	return Computation{Direction: direction, PercentageChange: p}, true
}

// ComputeForWindow derives all three period computations for one practice
// and measure from its chronologically ascending observations. Periods whose
// comparator is missing are absent from the result.
func ComputeForWindow(points []models.TrendPoint, currentMonth time.Time, higherIsBetter bool, stabilityBand float64) map[models.TrendPeriod]Computation {
	currentMonth = models.FirstOfMonth(currentMonth)

	var current *float64
	for _, pt := range points {
		if models.FirstOfMonth(pt.Date).Equal(currentMonth) {
			v := pt.Value
			current = &v
			break
		}
	}
	if current == nil {
		return nil
	}

	result := make(map[models.TrendPeriod]Computation, 3)

	if mean, ok := meanInRange(points, currentMonth.AddDate(0, -3, 0), currentMonth); ok {
		if c, ok := ComputeDirection(*current, mean, higherIsBetter, stabilityBand); ok {
			result[models.TrendPeriod3Month] = c
		}
	}
	if mean, ok := meanInRange(points, currentMonth.AddDate(0, -6, 0), currentMonth); ok {
		if c, ok := ComputeDirection(*current, mean, higherIsBetter, stabilityBand); ok {
			result[models.TrendPeriod6Month] = c
		}
	}

	yearAgo := currentMonth.AddDate(-1, 0, 0)
	for _, pt := range points {
		if models.FirstOfMonth(pt.Date).Equal(yearAgo) {
			if c, ok := ComputeDirection(*current, pt.Value, higherIsBetter, stabilityBand); ok {
				result[models.TrendPeriodYearOverYear] = c
			}
			break
		}
	}
	return result
}

// meanInRange averages observations with date in [start, end). false when
// no observation falls in the range.
func meanInRange(points []models.TrendPoint, start, end time.Time) (float64, bool) {
	var sum float64
	var count int
	for _, pt := range points {
		d := models.FirstOfMonth(pt.Date)
		if !d.Before(start) && d.Before(end) {
			sum += pt.Value
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// RunResult summarizes one trend run.
type RunResult struct {
	RowsComputed int           `json:"rows_computed"`
	Practices    int           `json:"practices"`
	Duration     time.Duration `json:"duration"`
}

// Run computes and stores trends for every practice and active measure for
// the given report-card month. Returns database.ErrLeaseHeld when another
// replica is already running.
func (a *Analyzer) Run(ctx context.Context, month time.Time) (*RunResult, error) {
	start := time.Now()
	month = models.FirstOfMonth(month)

	if err := a.store.AcquireLease(ctx, leaseName, a.holder, 15*time.Minute); err != nil {
		if errors.Is(err, database.ErrLeaseHeld) {
			logging.Info().Msg("Trend run skipped, lease held elsewhere")
		}
		return nil, err
	}
	defer func() {
		if err := a.store.ReleaseLease(context.WithoutCancel(ctx), leaseName, a.holder); err != nil {
			logging.Warn().Err(err).Msg("Failed to release trend lease")
		}
	}()

	measures, err := a.store.ListActiveMeasures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load measures: %w", err)
	}
	orientation := make(map[string]bool, len(measures))
	for _, m := range measures {
		orientation[m.Name] = m.HigherIsBetter
	}

	// Thirteen months: the current month plus twelve back for the
	// year-over-year comparator.
	window, err := a.store.GetTrendWindow(ctx, month.AddDate(-1, 0, 0), month)
	if err != nil {
		return nil, fmt.Errorf("load trend window: %w", err)
	}

	now := time.Now().UTC()
	var rows []models.TrendRow
	var processed []database.TrendPair
	for practiceID, byMeasure := range window {
		for measureName, points := range byMeasure {
			higherIsBetter, known := orientation[measureName]
			if !known {
				continue
			}
			// Every visited pair is recorded even when all its periods are
			// suppressed, so stale rows from prior runs get cleared.
			processed = append(processed, database.TrendPair{PracticeID: practiceID, MeasureName: measureName})
			for period, comp := range ComputeForWindow(points, month, higherIsBetter, a.cfg.TrendStabilityBand) {
				rows = append(rows, models.TrendRow{
					PracticeID:       practiceID,
					MeasureName:      measureName,
					Period:           period,
					Direction:        comp.Direction,
					PercentageChange: comp.PercentageChange,
					CalculatedAt:     now,
				})
			}
		}
	}

	if err := a.store.UpsertTrends(ctx, processed, rows); err != nil {
		return nil, fmt.Errorf("store trends: %w", err)
	}

	result := &RunResult{
		RowsComputed: len(rows),
		Practices:    len(window),
		Duration:     time.Since(start),
	}
	logging.Info().
		Int("rows", result.RowsComputed).
		Int("practices", result.Practices).
		Dur("duration", result.Duration).
		Msg("Trend run complete")

	if a.auditLog != nil {
		a.auditLog.LogBatchRun(ctx, audit.EventTypeTrendRun, result.RowsComputed, 0,
			fmt.Sprintf("month=%s practices=%d", month.Format("2006-01"), result.Practices))
	}
	return result, nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
