// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
	"github.com/insano70/bcos-sub005/internal/trends"
)

// Generator errors.
var (
	// ErrNoActiveMeasures aborts a run outright: scoring nothing is a
	// configuration problem, not a data gap.
	ErrNoActiveMeasures = errors.New("no active measures configured")

	// ErrInsufficientData is returned when a practice has no scorable
	// measure for the month.
	ErrInsufficientData = errors.New("insufficient data for report card")
)

const leaseName = "generation-run"

// maxErrorsPerPractice caps captured per-practice failure detail in a batch
// summary.
const maxErrorsPerPractice = 3

// Store is the warehouse surface the generator needs.
type Store interface {
	ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error)
	GetSizeBuckets(ctx context.Context) (map[int]models.SizeBucketAssignment, error)
	GetPracticeOrganizationMap(ctx context.Context) (map[int]string, error)
	GetMonthStatistics(ctx context.Context, month time.Time) (database.MonthStatistics, error)
	GetTrendWindow(ctx context.Context, startMonth, endMonth time.Time) (database.TrendWindow, error)
	UpsertReportCards(ctx context.Context, cards []models.ReportCardResult) error
	GetByPracticeAndMonth(ctx context.Context, practiceID int, month time.Time) (*models.ReportCardResult, error)
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Generator produces monthly report cards in bulk. All per-practice scoring
// reads from maps preloaded in a handful of bulk queries; no additional I/O
// happens inside the scoring loop.
type Generator struct {
	store      Store
	cfg        config.AnalyticsConfig
	auditLog   *audit.Logger
	benchmarks BenchmarkProvider
	holder     string
	limiter    *rate.Limiter
}

// NewGenerator creates a report-card generator. benchmarks may be nil.
func NewGenerator(store Store, cfg config.AnalyticsConfig, auditLog *audit.Logger, benchmarks BenchmarkProvider) *Generator {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "generator"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.BackfillRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BackfillRatePerSecond), 1)
	}

	return &Generator{
		store:      store,
		cfg:        cfg,
		auditLog:   auditLog,
		benchmarks: benchmarks,
		holder:     hostname + "-" + uuid.NewString()[:8],
		limiter:    limiter,
	}
}

// BatchSummary reports one month's generation outcome. Individual practice
// failures are absorbed into the summary rather than aborting the run.
type BatchSummary struct {
	Month     time.Time        `json:"month"`
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    map[int][]string `json:"errors,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

// sharedData is the run-wide preload reused across months.
type sharedData struct {
	measures     []models.MeasureConfig
	measureIndex map[string]models.MeasureConfig
	buckets      map[int]models.SizeBucketAssignment
	orgMap       map[int]string
}

func (g *Generator) loadShared(ctx context.Context) (*sharedData, error) {
	measures, err := g.store.ListActiveMeasures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load measures: %w", err)
	}
	if len(measures) == 0 {
		return nil, ErrNoActiveMeasures
	}

	buckets, err := g.store.GetSizeBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load size buckets: %w", err)
	}
	orgMap, err := g.store.GetPracticeOrganizationMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load organization map: %w", err)
	}

	index := make(map[string]models.MeasureConfig, len(measures))
	for _, m := range measures {
		index[m.Name] = m
	}
	return &sharedData{
		measures:     measures,
		measureIndex: index,
		buckets:      buckets,
		orgMap:       orgMap,
	}, nil
}

// GenerateMonth runs one pass over the given report-card month. Returns
// database.ErrLeaseHeld when another replica holds the generation lease.
func (g *Generator) GenerateMonth(ctx context.Context, month time.Time) (*BatchSummary, error) {
	if err := g.store.AcquireLease(ctx, leaseName, g.holder, 30*time.Minute); err != nil {
		if errors.Is(err, database.ErrLeaseHeld) {
			logging.Info().Msg("Generation run skipped, lease held elsewhere")
		}
		return nil, err
	}
	defer g.releaseLease(ctx)

	shared, err := g.loadShared(ctx)
	if err != nil {
		return nil, err
	}
	return g.generateMonth(ctx, shared, models.FirstOfMonth(month), nil)
}

// GenerateHistorical backfills the trailing N months, newest first. Each
// month is independent; a month-level failure is recorded and the run
// continues. Preload queries are paced by the configured backfill rate.
func (g *Generator) GenerateHistorical(ctx context.Context, months int) ([]BatchSummary, error) {
	if months <= 0 {
		months = g.cfg.HistoricalMonths
	}

	if err := g.store.AcquireLease(ctx, leaseName, g.holder, 2*time.Hour); err != nil {
		if errors.Is(err, database.ErrLeaseHeld) {
			logging.Info().Msg("Historical generation skipped, lease held elsewhere")
		}
		return nil, err
	}
	defer g.releaseLease(ctx)

	shared, err := g.loadShared(ctx)
	if err != nil {
		return nil, err
	}

	current := models.CurrentReportCardMonth(time.Now().UTC())
	summaries := make([]BatchSummary, 0, months)
	for i := 0; i < months; i++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return summaries, err
		}
		month := current.AddDate(0, -i, 0)
		summary, err := g.generateMonth(ctx, shared, month, nil)
		if err != nil {
			logging.Error().Err(err).Time("month", month).Msg("Historical generation month failed")
			summaries = append(summaries, BatchSummary{Month: month, Failed: 1})
			continue
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// GenerateForPractice regenerates one practice's card for one month. Unless
// forced, a card younger than the stale threshold is returned as-is. The
// regeneration itself is a one-practice batch through the same pipeline as
// the bulk run, so both paths stay byte-identical for identical inputs.
func (g *Generator) GenerateForPractice(ctx context.Context, practiceID int, month time.Time, force bool) (*models.ReportCardResult, error) {
	month = models.FirstOfMonth(month)

	if !force {
		existing, err := g.store.GetByPracticeAndMonth(ctx, practiceID, month)
		if err != nil && !errors.Is(err, database.ErrReportCardNotFound) {
			return nil, err
		}
		if existing != nil {
			staleAfter := time.Duration(g.cfg.StaleThresholdHours) * time.Hour
			if time.Since(existing.GeneratedAt) < staleAfter {
				return existing, nil
			}
		}
	}

	shared, err := g.loadShared(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := g.generateMonth(ctx, shared, month, &practiceID)
	if err != nil {
		return nil, err
	}
	if summary.Succeeded == 0 {
		return nil, ErrInsufficientData
	}
	return g.store.GetByPracticeAndMonth(ctx, practiceID, month)
}

// generateMonth scores every sized practice (or just *only) for one month
// and upserts the batch atomically.
func (g *Generator) generateMonth(ctx context.Context, shared *sharedData, month time.Time, only *int) (*BatchSummary, error) {
	start := time.Now()

	stats, err := g.store.GetMonthStatistics(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load month statistics: %w", err)
	}
	// Four months: the target plus the three priors feeding the short-term
	// trend adjustment.
	window, err := g.store.GetTrendWindow(ctx, month.AddDate(0, -3, 0), month)
	if err != nil {
		return nil, fmt.Errorf("load trend window: %w", err)
	}

	peerIndex := buildPeerIndex(stats, shared.buckets)

	practiceIDs := make([]int, 0, len(shared.buckets))
	for id := range shared.buckets {
		if only != nil && id != *only {
			continue
		}
		practiceIDs = append(practiceIDs, id)
	}
	sort.Ints(practiceIDs)

	summary := &BatchSummary{Month: month, Errors: make(map[int][]string)}
	now := time.Now().UTC()
	var cards []models.ReportCardResult

	for _, practiceID := range practiceIDs {
		summary.Processed++
		assignment := shared.buckets[practiceID]

		card, err := g.scorePractice(practiceID, assignment, month, stats, window, peerIndex, shared)
		if err != nil {
			summary.Failed++
			if len(summary.Errors[practiceID]) < maxErrorsPerPractice {
				summary.Errors[practiceID] = append(summary.Errors[practiceID], err.Error())
			}
			continue
		}
		card.GeneratedAt = now
		cards = append(cards, *card)
		summary.Succeeded++
	}

	if err := g.store.UpsertReportCards(ctx, cards); err != nil {
		return nil, fmt.Errorf("store report cards: %w", err)
	}

	summary.Duration = time.Since(start)
	logging.Info().
		Time("month", month).
		Int("processed", summary.Processed).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Report card generation complete")

	if g.auditLog != nil && only == nil {
		g.auditLog.LogBatchRun(ctx, audit.EventTypeGenerationRun, summary.Succeeded, summary.Failed,
			fmt.Sprintf("month=%s", month.Format("2006-01")))
	}
	return summary, nil
}

// peerIndex holds per (measure, bucket) distributions for the month.
type peerIndex map[string]map[models.SizeBucket][]float64

func buildPeerIndex(stats database.MonthStatistics, buckets map[int]models.SizeBucketAssignment) peerIndex {
	index := make(peerIndex)
	for measure, byPractice := range stats {
		perBucket := make(map[models.SizeBucket][]float64)
		for practiceID, value := range byPractice {
			assignment, sized := buckets[practiceID]
			if !sized {
				continue
			}
			perBucket[assignment.Bucket] = append(perBucket[assignment.Bucket], value)
		}
		index[measure] = perBucket
	}
	return index
}

// scorePractice computes one practice's card purely from preloaded maps.
func (g *Generator) scorePractice(
	practiceID int,
	assignment models.SizeBucketAssignment,
	month time.Time,
	stats database.MonthStatistics,
	window database.TrendWindow,
	peers peerIndex,
	shared *sharedData,
) (*models.ReportCardResult, error) {
	measureScores := make(map[string]models.MeasureScore)

	for _, measure := range shared.measures {
		value, ok := stats[measure.Name][practiceID]
		if !ok {
			continue
		}

		peerValues := excludeSelf(peers[measure.Name][assignment.Bucket], value)
		percentile := ComputePercentile(value, peerValues, measure.HigherIsBetter)

		trendDir := models.TrendStable
		trendPct := 0.0
		if points := window[practiceID][measure.Name]; len(points) > 0 {
			computed := trends.ComputeForWindow(points, month, measure.HigherIsBetter, g.cfg.TrendStabilityBand)
			if c, ok := computed[models.TrendPeriod3Month]; ok {
				trendDir = c.Direction
				trendPct = c.PercentageChange
			}
		}

		measureScores[measure.Name] = models.MeasureScore{
			Score:           NormalizeScore(percentile, trendDir, g.cfg),
			Value:           value,
			Trend:           trendDir,
			TrendPercentage: trendPct,
			Percentile:      percentile,
			PeerAverage:     round2(mean(peerValues)),
			PeerCount:       len(peerValues),
		}
	}

	overall, ok := WeightedOverallScore(measureScores, shared.measureIndex)
	if !ok {
		return nil, ErrInsufficientData
	}

	insights := BuildInsights(measureScores, shared.measureIndex)
	insights = append(insights, g.benchmarkInsights(measureScores, assignment.Bucket, shared)...)

	card := &models.ReportCardResult{
		PracticeID:      practiceID,
		OrganizationID:  assignment.OrganizationID,
		ReportCardMonth: month,
		OverallScore:    overall,
		SizeBucket:      assignment.Bucket,
		PercentileRank:  round2(assignment.Percentile),
		Insights:        insights,
		MeasureScores:   measureScores,
	}
	if card.OrganizationID == nil {
		if orgID, ok := shared.orgMap[practiceID]; ok {
			if parsed, err := uuid.Parse(orgID); err == nil {
				card.OrganizationID = &parsed
			}
		}
	}
	return card, nil
}

// benchmarkInsights appends one line per measure trailing its published
// benchmark, in measure-name order.
func (g *Generator) benchmarkInsights(scores map[string]models.MeasureScore, bucket models.SizeBucket, shared *sharedData) []string {
	if g.benchmarks == nil {
		return nil
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		target, ok := g.benchmarks.Benchmark(name, bucket)
		if !ok {
			continue
		}
		measure, known := shared.measureIndex[name]
		if !known {
			continue
		}
		value := scores[name].Value
		trailing := value < target
		if !measure.HigherIsBetter {
			trailing = value > target
		}
		if trailing {
			lines = append(lines,
				fmt.Sprintf("Below benchmark: %s (%.2f vs target %.2f)", measure.Label(), value, target))
		}
	}
	return lines
}

// excludeSelf removes exactly one occurrence of the practice's own value
// from the bucket distribution.
func excludeSelf(values []float64, own float64) []float64 {
	result := make([]float64, 0, len(values))
	removed := false
	for _, v := range values {
		if !removed && v == own {
			removed = true
			continue
		}
		result = append(result, v)
	}
	return result
}

func (g *Generator) releaseLease(ctx context.Context) {
	if err := g.store.ReleaseLease(context.WithoutCancel(ctx), leaseName, g.holder); err != nil {
		logging.Warn().Err(err).Msg("Failed to release generation lease")
	}
}
