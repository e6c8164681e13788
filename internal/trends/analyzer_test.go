// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package trends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/models"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestComputeDirection(t *testing.T) {
	tests := []struct {
		name           string
		current        float64
		comparator     float64
		higherIsBetter bool
		wantDirection  models.TrendDirection
		wantChange     float64
		wantOK         bool
	}{
		{"up and higher is better", 110, 100, true, models.TrendImproving, 10, true},
		{"up and lower is better", 110, 100, false, models.TrendDeclining, 10, true},
		{"down and higher is better", 90, 100, true, models.TrendDeclining, -10, true},
		{"down and lower is better", 90, 100, false, models.TrendImproving, -10, true},
		{"inside stability band", 104, 100, true, models.TrendStable, 4, true},
		{"exactly at band edge", 105, 100, true, models.TrendImproving, 5, true},
		{"negative inside band", 96, 100, true, models.TrendStable, -4, true},
		{"zero comparator suppressed", 50, 0, true, "", 0, false},
		{"capped extreme increase", 1e9, 1, true, models.TrendImproving, models.TrendPercentageCap, true},
		{"capped extreme decrease", -1e9, 1, true, models.TrendDeclining, -models.TrendPercentageCap, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ComputeDirection(tt.current, tt.comparator, tt.higherIsBetter, 5.0)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Direction != tt.wantDirection {
				t.Errorf("direction = %q, want %q", c.Direction, tt.wantDirection)
			}
			if c.PercentageChange != tt.wantChange {
				t.Errorf("change = %v, want %v", c.PercentageChange, tt.wantChange)
			}
		})
	}
}

func TestComputeDirection_RoundsToTwoDecimals(t *testing.T) {
	c, ok := ComputeDirection(100.333, 100, true, 5.0)
	if !ok {
		t.Fatal("suppressed")
	}
	if c.PercentageChange != 0.33 {
		t.Errorf("change = %v, want 0.33", c.PercentageChange)
	}
}

func TestComputeForWindow(t *testing.T) {
	current := month(2026, time.July)
	points := []models.TrendPoint{
		{Date: month(2025, time.July), Value: 100}, // year-over-year comparator
		{Date: month(2026, time.January), Value: 100},
		{Date: month(2026, time.February), Value: 100},
		{Date: month(2026, time.March), Value: 100},
		{Date: month(2026, time.April), Value: 100},
		{Date: month(2026, time.May), Value: 100},
		{Date: month(2026, time.June), Value: 100},
		{Date: current, Value: 110},
	}

	result := ComputeForWindow(points, current, true, 5.0)

	if len(result) != 3 {
		t.Fatalf("periods = %d, want 3 (%v)", len(result), result)
	}
	for _, period := range models.TrendPeriods {
		c, ok := result[period]
		if !ok {
			t.Fatalf("missing period %q", period)
		}
		if c.Direction != models.TrendImproving || c.PercentageChange != 10 {
			t.Errorf("%s = %+v, want improving +10", period, c)
		}
	}
}

func TestComputeForWindow_MissingCurrentMonth(t *testing.T) {
	points := []models.TrendPoint{{Date: month(2026, time.May), Value: 100}}
	if got := ComputeForWindow(points, month(2026, time.July), true, 5.0); got != nil {
		t.Errorf("expected nil without a current-month observation, got %v", got)
	}
}

func TestComputeForWindow_PartialComparators(t *testing.T) {
	// Only the current month and one prior month exist: the 3m and 6m
	// means cover that single month; no year-ago point, so no YoY row.
	current := month(2026, time.July)
	points := []models.TrendPoint{
		{Date: month(2026, time.June), Value: 200},
		{Date: current, Value: 100},
	}

	result := ComputeForWindow(points, current, false, 5.0)

	if _, ok := result[models.TrendPeriodYearOverYear]; ok {
		t.Error("year-over-year computed without a year-ago observation")
	}
	c, ok := result[models.TrendPeriod3Month]
	if !ok {
		t.Fatal("3-month period missing")
	}
	if c.PercentageChange != -50 || c.Direction != models.TrendImproving {
		t.Errorf("3m = %+v, want improving -50 for a lower-is-better measure", c)
	}
}

func TestComputeForWindow_ExcludesCurrentFromMeans(t *testing.T) {
	// The trailing means must not include the current month itself.
	current := month(2026, time.July)
	points := []models.TrendPoint{
		{Date: month(2026, time.April), Value: 100},
		{Date: month(2026, time.May), Value: 100},
		{Date: month(2026, time.June), Value: 100},
		{Date: current, Value: 1000},
	}

	result := ComputeForWindow(points, current, true, 5.0)
	if c := result[models.TrendPeriod3Month]; c.PercentageChange != 900 {
		t.Errorf("3m change = %v, want 900 (mean of priors only)", c.PercentageChange)
	}
}

type fakeTrendStore struct {
	window   database.TrendWindow
	measures []models.MeasureConfig
	leaseErr error

	stored    []models.TrendRow
	processed []database.TrendPair
	released  int
}

func (f *fakeTrendStore) GetTrendWindow(ctx context.Context, startMonth, endMonth time.Time) (database.TrendWindow, error) {
	return f.window, nil
}

func (f *fakeTrendStore) ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error) {
	return f.measures, nil
}

func (f *fakeTrendStore) UpsertTrends(ctx context.Context, processed []database.TrendPair, trends []models.TrendRow) error {
	f.processed = processed
	f.stored = trends
	return nil
}

func (f *fakeTrendStore) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error {
	return f.leaseErr
}

func (f *fakeTrendStore) ReleaseLease(ctx context.Context, name, holder string) error {
	f.released++
	return nil
}

func TestAnalyzerRun(t *testing.T) {
	current := month(2026, time.July)
	points := []models.TrendPoint{
		{Date: month(2025, time.July), Value: 100},
		{Date: month(2026, time.June), Value: 100},
		{Date: current, Value: 120},
	}
	store := &fakeTrendStore{
		window: database.TrendWindow{
			1: {"charges": points},
			2: {"charges": points, "unconfigured_measure": points},
		},
		measures: []models.MeasureConfig{{Name: "charges", HigherIsBetter: true, IsActive: true}},
	}
	a := NewAnalyzer(store, config.AnalyticsConfig{TrendStabilityBand: 5.0}, nil)

	result, err := a.Run(context.Background(), current)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Two practices, three periods each; the unconfigured measure is
	// skipped because its orientation is unknown.
	if result.RowsComputed != 6 || len(store.stored) != 6 {
		t.Errorf("rows = %d / %d stored, want 6", result.RowsComputed, len(store.stored))
	}
	if result.Practices != 2 {
		t.Errorf("practices = %d, want 2", result.Practices)
	}
	if store.released != 1 {
		t.Errorf("lease released %d times, want 1", store.released)
	}
	for _, row := range store.stored {
		if row.Direction != models.TrendImproving {
			t.Errorf("row %+v, want improving", row)
		}
	}
}

func TestAnalyzerRun_ReportsSuppressedPairs(t *testing.T) {
	// Practice 1 has a normal series; practice 2's comparators are all zero,
	// so every period is suppressed. Both pairs must still reach the store so
	// practice 2's rows from an earlier run get cleared.
	current := month(2026, time.July)
	store := &fakeTrendStore{
		window: database.TrendWindow{
			1: {"charges": []models.TrendPoint{
				{Date: month(2026, time.June), Value: 100},
				{Date: current, Value: 120},
			}},
			2: {"charges": []models.TrendPoint{
				{Date: month(2026, time.June), Value: 0},
				{Date: current, Value: 50},
			}},
		},
		measures: []models.MeasureConfig{{Name: "charges", HigherIsBetter: true, IsActive: true}},
	}
	a := NewAnalyzer(store, config.AnalyticsConfig{TrendStabilityBand: 5.0}, nil)

	if _, err := a.Run(context.Background(), current); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.processed) != 2 {
		t.Fatalf("processed pairs = %d, want both practices", len(store.processed))
	}
	pairs := map[database.TrendPair]bool{}
	for _, p := range store.processed {
		pairs[p] = true
	}
	if !pairs[database.TrendPair{PracticeID: 2, MeasureName: "charges"}] {
		t.Error("suppressed pair missing from processed set")
	}
	for _, row := range store.stored {
		if row.PracticeID == 2 {
			t.Errorf("practice 2 stored %+v despite zero comparators", row)
		}
	}
}

func TestAnalyzerRun_LeaseHeld(t *testing.T) {
	store := &fakeTrendStore{leaseErr: database.ErrLeaseHeld}
	a := NewAnalyzer(store, config.AnalyticsConfig{TrendStabilityBand: 5.0}, nil)

	if _, err := a.Run(context.Background(), month(2026, time.July)); !errors.Is(err, database.ErrLeaseHeld) {
		t.Fatalf("err = %v, want ErrLeaseHeld", err)
	}
}
