// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

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

type fakeGenStore struct {
	measures []models.MeasureConfig
	buckets  map[int]models.SizeBucketAssignment
	orgMap   map[int]string
	stats    database.MonthStatistics
	window   database.TrendWindow
	existing map[int]*models.ReportCardResult
	leaseErr error

	upserted    []models.ReportCardResult
	upsertCalls int
	released    int
}

func (f *fakeGenStore) ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error) {
	return f.measures, nil
}

func (f *fakeGenStore) GetSizeBuckets(ctx context.Context) (map[int]models.SizeBucketAssignment, error) {
	return f.buckets, nil
}

func (f *fakeGenStore) GetPracticeOrganizationMap(ctx context.Context) (map[int]string, error) {
	return f.orgMap, nil
}

func (f *fakeGenStore) GetMonthStatistics(ctx context.Context, m time.Time) (database.MonthStatistics, error) {
	return f.stats, nil
}

func (f *fakeGenStore) GetTrendWindow(ctx context.Context, startMonth, endMonth time.Time) (database.TrendWindow, error) {
	return f.window, nil
}

func (f *fakeGenStore) UpsertReportCards(ctx context.Context, cards []models.ReportCardResult) error {
	f.upsertCalls++
	f.upserted = cards
	for i := range cards {
		card := cards[i]
		if f.existing == nil {
			f.existing = make(map[int]*models.ReportCardResult)
		}
		f.existing[card.PracticeID] = &card
	}
	return nil
}

func (f *fakeGenStore) GetByPracticeAndMonth(ctx context.Context, practiceID int, m time.Time) (*models.ReportCardResult, error) {
	if card, ok := f.existing[practiceID]; ok {
		return card, nil
	}
	return nil, database.ErrReportCardNotFound
}

func (f *fakeGenStore) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error {
	return f.leaseErr
}

func (f *fakeGenStore) ReleaseLease(ctx context.Context, name, holder string) error {
	f.released++
	return nil
}

func generatorConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		ScoreFloor:          70,
		ScoreRange:          30,
		TrendAdjustment:     2,
		TrendStabilityBand:  5,
		StaleThresholdHours: 24,
		HistoricalMonths:    12,
	}
}

// sixPracticeStore builds six small-bucket practices with ascending charges.
func sixPracticeStore() *fakeGenStore {
	buckets := make(map[int]models.SizeBucketAssignment)
	charges := make(map[int]float64)
	for i := 1; i <= 6; i++ {
		buckets[i] = models.SizeBucketAssignment{
			PracticeID: i,
			Bucket:     models.BucketSmall,
			Percentile: float64(i) * 100 / 6,
		}
		charges[i] = float64(i) * 10_000
	}
	return &fakeGenStore{
		measures: []models.MeasureConfig{
			{Name: "charges", DisplayName: "Charges", Weight: 5, HigherIsBetter: true, IsActive: true},
		},
		buckets: buckets,
		stats:   database.MonthStatistics{"charges": charges},
		window:  database.TrendWindow{},
	}
}

func TestGenerateMonth(t *testing.T) {
	store := sixPracticeStore()
	g := NewGenerator(store, generatorConfig(), nil, nil)

	summary, err := g.GenerateMonth(context.Background(), month(2026, time.July))
	if err != nil {
		t.Fatalf("GenerateMonth: %v", err)
	}
	if summary.Processed != 6 || summary.Succeeded != 6 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if store.released != 1 {
		t.Errorf("lease released %d times, want 1", store.released)
	}
	if len(store.upserted) != 6 {
		t.Fatalf("upserted = %d cards", len(store.upserted))
	}

	for _, card := range store.upserted {
		if card.OverallScore < 70 || card.OverallScore > 100 {
			t.Errorf("practice %d overall = %v, outside band", card.PracticeID, card.OverallScore)
		}
		ms, ok := card.MeasureScores["charges"]
		if !ok {
			t.Fatalf("practice %d missing measure score", card.PracticeID)
		}
		if ms.PeerCount != 5 {
			t.Errorf("practice %d peer count = %d, want 5 after self-exclusion", card.PracticeID, ms.PeerCount)
		}
		if len(card.Insights) == 0 {
			t.Errorf("practice %d has no insights", card.PracticeID)
		}
		if !card.ReportCardMonth.Equal(month(2026, time.July)) {
			t.Errorf("practice %d month = %v", card.PracticeID, card.ReportCardMonth)
		}
	}

	// Highest charges score highest under higher-is-better.
	byID := make(map[int]models.ReportCardResult)
	for _, c := range store.upserted {
		byID[c.PracticeID] = c
	}
	if byID[6].OverallScore <= byID[1].OverallScore {
		t.Errorf("top practice %v <= bottom practice %v", byID[6].OverallScore, byID[1].OverallScore)
	}
}

func TestGenerateMonth_PracticeWithoutDataFails(t *testing.T) {
	store := sixPracticeStore()
	store.buckets[7] = models.SizeBucketAssignment{PracticeID: 7, Bucket: models.BucketSmall}

	g := NewGenerator(store, generatorConfig(), nil, nil)
	summary, err := g.GenerateMonth(context.Background(), month(2026, time.July))
	if err != nil {
		t.Fatalf("GenerateMonth: %v", err)
	}
	if summary.Succeeded != 6 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want one insufficient-data failure", summary)
	}
	if len(summary.Errors[7]) == 0 {
		t.Error("failure detail not captured for practice 7")
	}
}

func TestGenerateMonth_NoActiveMeasures(t *testing.T) {
	store := sixPracticeStore()
	store.measures = nil

	g := NewGenerator(store, generatorConfig(), nil, nil)
	if _, err := g.GenerateMonth(context.Background(), month(2026, time.July)); !errors.Is(err, ErrNoActiveMeasures) {
		t.Fatalf("err = %v, want ErrNoActiveMeasures", err)
	}
}

func TestGenerateMonth_LeaseHeld(t *testing.T) {
	store := sixPracticeStore()
	store.leaseErr = database.ErrLeaseHeld

	g := NewGenerator(store, generatorConfig(), nil, nil)
	if _, err := g.GenerateMonth(context.Background(), month(2026, time.July)); !errors.Is(err, database.ErrLeaseHeld) {
		t.Fatalf("err = %v, want ErrLeaseHeld", err)
	}
}

func TestGenerateMonth_TrendAdjustment(t *testing.T) {
	store := sixPracticeStore()
	// Practice 6 moved up 20% against its trailing three months.
	store.window = database.TrendWindow{
		6: {"charges": []models.TrendPoint{
			{Date: month(2026, time.June), Value: 50_000},
			{Date: month(2026, time.July), Value: 60_000},
		}},
	}

	g := NewGenerator(store, generatorConfig(), nil, nil)
	if _, err := g.GenerateMonth(context.Background(), month(2026, time.July)); err != nil {
		t.Fatalf("GenerateMonth: %v", err)
	}

	for _, card := range store.upserted {
		if card.PracticeID != 6 {
			continue
		}
		ms := card.MeasureScores["charges"]
		if ms.Trend != models.TrendImproving {
			t.Errorf("trend = %q, want improving", ms.Trend)
		}
		if ms.TrendPercentage != 20 {
			t.Errorf("trend pct = %v, want 20", ms.TrendPercentage)
		}
		// 100th percentile already sits at the ceiling; the adjustment
		// must not push past it.
		if ms.Score > 100 {
			t.Errorf("score = %v, exceeds ceiling", ms.Score)
		}
	}
}

func TestGenerateMonth_BenchmarkInsight(t *testing.T) {
	store := sixPracticeStore()
	benchmarks := &StaticBenchmarks{Targets: map[string]map[models.SizeBucket]float64{
		"charges": {models.BucketSmall: 100_000},
	}}

	g := NewGenerator(store, generatorConfig(), nil, benchmarks)
	if _, err := g.GenerateMonth(context.Background(), month(2026, time.July)); err != nil {
		t.Fatalf("GenerateMonth: %v", err)
	}

	// Every practice is below the 100k target.
	for _, card := range store.upserted {
		found := false
		for _, line := range card.Insights {
			if len(line) >= 15 && line[:15] == "Below benchmark" {
				found = true
			}
		}
		if !found {
			t.Errorf("practice %d missing benchmark insight: %v", card.PracticeID, card.Insights)
		}
	}
}

func TestGenerateForPractice_FreshCardReturned(t *testing.T) {
	store := sixPracticeStore()
	store.existing = map[int]*models.ReportCardResult{
		3: {PracticeID: 3, ReportCardMonth: month(2026, time.July), GeneratedAt: time.Now().UTC(), OverallScore: 88},
	}

	g := NewGenerator(store, generatorConfig(), nil, nil)
	card, err := g.GenerateForPractice(context.Background(), 3, month(2026, time.July), false)
	if err != nil {
		t.Fatalf("GenerateForPractice: %v", err)
	}
	if card.OverallScore != 88 {
		t.Errorf("score = %v, want cached 88", card.OverallScore)
	}
	if store.upsertCalls != 0 {
		t.Error("fresh card triggered regeneration")
	}
}

func TestGenerateForPractice_ForceRegenerates(t *testing.T) {
	store := sixPracticeStore()
	store.existing = map[int]*models.ReportCardResult{
		3: {PracticeID: 3, ReportCardMonth: month(2026, time.July), GeneratedAt: time.Now().UTC(), OverallScore: 88},
	}

	g := NewGenerator(store, generatorConfig(), nil, nil)
	card, err := g.GenerateForPractice(context.Background(), 3, month(2026, time.July), true)
	if err != nil {
		t.Fatalf("GenerateForPractice: %v", err)
	}
	if store.upsertCalls != 1 {
		t.Fatal("force did not regenerate")
	}
	if len(store.upserted) != 1 || store.upserted[0].PracticeID != 3 {
		t.Errorf("regeneration scored %d cards, want only practice 3", len(store.upserted))
	}
	if card.PracticeID != 3 {
		t.Errorf("returned card = %+v", card)
	}
}

func TestGenerateForPractice_NoData(t *testing.T) {
	store := sixPracticeStore()
	store.buckets[9] = models.SizeBucketAssignment{PracticeID: 9, Bucket: models.BucketSmall}

	g := NewGenerator(store, generatorConfig(), nil, nil)
	_, err := g.GenerateForPractice(context.Background(), 9, month(2026, time.July), true)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestGenerateHistorical(t *testing.T) {
	store := sixPracticeStore()
	g := NewGenerator(store, generatorConfig(), nil, nil)

	summaries, err := g.GenerateHistorical(context.Background(), 3)
	if err != nil {
		t.Fatalf("GenerateHistorical: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("summaries = %d, want 3", len(summaries))
	}
	for i := 1; i < len(summaries); i++ {
		if !summaries[i].Month.Before(summaries[i-1].Month) {
			t.Errorf("months not newest-first: %v then %v", summaries[i-1].Month, summaries[i].Month)
		}
	}
}
