// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/cache"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/models"
)

// ServiceStore is the warehouse surface the tenant-facing service needs.
type ServiceStore interface {
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	GetLatestByOrganization(ctx context.Context, orgID string) ([]models.ReportCardResult, error)
	GetByOrganizationAndMonth(ctx context.Context, orgID string, month time.Time) ([]models.ReportCardResult, error)
	GetByOrganizationRange(ctx context.Context, orgID string, startMonth, endMonth time.Time) ([]models.ReportCardResult, error)
	AvailableMonths(ctx context.Context, practiceIDs []int) ([]time.Time, error)
	GetTrendsByPractices(ctx context.Context, practiceIDs []int) (map[database.TrendKey]models.TrendRow, error)
	GetLatestBucketValues(ctx context.Context, bucket models.SizeBucket) (database.MonthStatistics, error)
	ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error)
}

// ReportCard is the tenant-facing payload for one organization and month:
// the per-practice cards plus the organization-level rollup.
type ReportCard struct {
	OrganizationID uuid.UUID                 `json:"organization_id"`
	Month          time.Time                 `json:"month"`
	MonthLabel     string                    `json:"month_label"`
	OverallScore   float64                   `json:"overall_score"`
	Grade          string                    `json:"grade"`
	Practices      []models.ReportCardResult `json:"practices"`
}

// Service serves report-card reads with authorization and caching. The
// authorization check always runs before the cache lookup: cached data must
// never widen access.
type Service struct {
	store ServiceStore
	authz *authz.Service
	cache cache.Cacher
	cfg   config.AnalyticsConfig
	ttl   time.Duration
}

// NewService creates the tenant-facing report-card service. cache may be
// nil to disable caching (tests).
func NewService(store ServiceStore, authzService *authz.Service, cacher cache.Cacher, cfg config.AnalyticsConfig, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{
		store: store,
		authz: authzService,
		cache: cacher,
		cfg:   cfg,
		ttl:   ttl,
	}
}

func (s *Service) authorize(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID) error {
	return s.authz.CheckOrganizationAccess(ctx, identity, orgID)
}

func (s *Service) cached(key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	return cache.GetJSON(s.cache, key, out)
}

func (s *Service) store2cache(key string, value interface{}) {
	if s.cache == nil {
		return
	}
	cache.SetJSONWithTTL(s.cache, key, value, s.ttl)
}

// GetByOrganization returns the organization's most recent report card.
func (s *Service) GetByOrganization(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID) (*ReportCard, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}

	key := cache.GenerateKey("reportcard.latest", orgID.String())
	var card ReportCard
	if s.cached(key, &card) {
		return &card, nil
	}

	cards, err := s.store.GetLatestByOrganization(ctx, orgID.String())
	if err != nil {
		return nil, err
	}
	result := assembleReportCard(orgID, cards)
	s.store2cache(key, result)
	return result, nil
}

// GetByOrganizationAndMonth returns the organization's card for one month.
func (s *Service) GetByOrganizationAndMonth(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID, month time.Time) (*ReportCard, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}

	month = models.FirstOfMonth(month)
	key := cache.GenerateKey("reportcard.month", map[string]interface{}{
		"org": orgID.String(), "month": month.Format("2006-01"),
	})
	var card ReportCard
	if s.cached(key, &card) {
		return &card, nil
	}

	cards, err := s.store.GetByOrganizationAndMonth(ctx, orgID.String(), month)
	if err != nil {
		return nil, err
	}
	result := assembleReportCard(orgID, cards)
	s.store2cache(key, result)
	return result, nil
}

// assembleReportCard rolls per-practice cards up to the organization level.
// cards must be non-empty and share one month.
func assembleReportCard(orgID uuid.UUID, cards []models.ReportCardResult) *ReportCard {
	scores := make([]float64, len(cards))
	for i, c := range cards {
		scores[i] = c.OverallScore
	}
	overall := round1(mean(scores))
	month := cards[0].ReportCardMonth

	return &ReportCard{
		OrganizationID: orgID,
		Month:          month,
		MonthLabel:     monthLabel(month),
		OverallScore:   overall,
		Grade:          models.LetterGrade(overall),
		Practices:      cards,
	}
}

// AvailableMonths lists the organization's report-card months, newest
// first, up to limit.
func (s *Service) AvailableMonths(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID, limit int) ([]time.Time, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, orgID.String())
	if err != nil {
		return nil, err
	}
	months, err := s.store.AvailableMonths(ctx, org.PracticeIDs)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(months) > limit {
		months = months[:limit]
	}
	return months, nil
}

// PreviousMonthSummary compares the card immediately before currentMonth.
// (nil, nil) when no prior card exists.
func (s *Service) PreviousMonthSummary(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID, currentMonth time.Time) (*models.PreviousMonthSummary, error) {
	current, err := s.GetByOrganizationAndMonth(ctx, identity, orgID, currentMonth)
	if err != nil {
		return nil, err
	}

	prevMonth := models.FirstOfMonth(currentMonth).AddDate(0, -1, 0)
	previous, err := s.GetByOrganizationAndMonth(ctx, identity, orgID, prevMonth)
	if err != nil {
		if errors.Is(err, database.ErrReportCardNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &models.PreviousMonthSummary{
		Month:         previous.Month,
		MonthLabel:    previous.MonthLabel,
		Score:         previous.OverallScore,
		Grade:         previous.Grade,
		ScoreChange:   round1(current.OverallScore - previous.OverallScore),
		GradeImproved: models.GradeImproved(previous.Grade, current.Grade),
	}, nil
}

// GradeHistory returns per-month entries newest first, with deltas computed
// against the chronologically prior entry. Because the list is descending,
// each entry compares against index+1.
func (s *Service) GradeHistory(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID, limit int) ([]models.GradeHistoryEntry, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 12
	}

	months, err := s.monthlyOrgScores(ctx, orgID, limit+1)
	if err != nil {
		return nil, err
	}

	entries := make([]models.GradeHistoryEntry, 0, len(months))
	for i, m := range months {
		if i >= limit {
			break
		}
		entry := models.GradeHistoryEntry{
			Month:      m.month,
			MonthLabel: monthLabel(m.month),
			Score:      m.score,
			Grade:      models.LetterGrade(m.score),
		}
		if i+1 < len(months) {
			prior := months[i+1]
			change := round1(m.score - prior.score)
			entry.ScoreChange = &change
			entry.GradeChanged = models.LetterGrade(m.score) != models.LetterGrade(prior.score)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type orgMonthScore struct {
	month time.Time
	score float64
}

// monthlyOrgScores aggregates the organization's per-practice cards into a
// descending per-month score series.
func (s *Service) monthlyOrgScores(ctx context.Context, orgID uuid.UUID, limit int) ([]orgMonthScore, error) {
	end := models.CurrentReportCardMonth(time.Now().UTC())
	start := end.AddDate(0, -(limit + 1), 0)

	cards, err := s.store.GetByOrganizationRange(ctx, orgID.String(), start, end)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[time.Time][]float64)
	for _, c := range cards {
		byMonth[c.ReportCardMonth] = append(byMonth[c.ReportCardMonth], c.OverallScore)
	}

	result := make([]orgMonthScore, 0, len(byMonth))
	for month, scores := range byMonth {
		result = append(result, orgMonthScore{month: month, score: round1(mean(scores))})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].month.After(result[j].month)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// TrendsByOrganization returns all persisted trend rows for the
// organization's practices, flattened.
func (s *Service) TrendsByOrganization(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID) ([]models.TrendRow, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}
	org, err := s.store.GetOrganization(ctx, orgID.String())
	if err != nil {
		return nil, err
	}

	trendMap, err := s.store.GetTrendsByPractices(ctx, org.PracticeIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]models.TrendRow, 0, len(trendMap))
	for _, row := range trendMap {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.PracticeID != b.PracticeID {
			return a.PracticeID < b.PracticeID
		}
		if a.MeasureName != b.MeasureName {
			return a.MeasureName < b.MeasureName
		}
		return a.Period < b.Period
	})
	return rows, nil
}

// AnnualReview builds the year-in-review for the organization from up to 24
// months of cards.
func (s *Service) AnnualReview(ctx context.Context, identity *models.TenantIdentity, orgID uuid.UUID) (*models.AnnualReview, error) {
	if err := s.authorize(ctx, identity, orgID); err != nil {
		return nil, err
	}

	key := cache.GenerateKey("reportcard.annual", orgID.String())
	var cached models.AnnualReview
	if s.cached(key, &cached) {
		return &cached, nil
	}

	end := models.CurrentReportCardMonth(time.Now().UTC())
	start := end.AddDate(0, -23, 0)
	cards, err := s.store.GetByOrganizationRange(ctx, orgID.String(), start, end)
	if err != nil {
		return nil, err
	}

	measures, err := s.measureIndex(ctx)
	if err != nil {
		return nil, err
	}

	review := BuildAnnualReview(aggregateMonthly(cards), measures, s.cfg)
	s.store2cache(key, review)
	return review, nil
}

// aggregateMonthly collapses per-practice cards into one synthetic card per
// month: mean overall score and mean raw value per measure. Single-practice
// organizations pass through unchanged.
func aggregateMonthly(cards []models.ReportCardResult) []models.ReportCardResult {
	byMonth := make(map[time.Time][]models.ReportCardResult)
	var months []time.Time
	for _, c := range cards {
		if _, seen := byMonth[c.ReportCardMonth]; !seen {
			months = append(months, c.ReportCardMonth)
		}
		byMonth[c.ReportCardMonth] = append(byMonth[c.ReportCardMonth], c)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	result := make([]models.ReportCardResult, 0, len(months))
	for _, month := range months {
		group := byMonth[month]
		if len(group) == 1 {
			result = append(result, group[0])
			continue
		}

		var scoreSum float64
		valueSums := make(map[string]float64)
		valueCounts := make(map[string]int)
		for _, c := range group {
			scoreSum += c.OverallScore
			for name, ms := range c.MeasureScores {
				valueSums[name] += ms.Value
				valueCounts[name]++
			}
		}

		merged := models.ReportCardResult{
			PracticeID:      group[0].PracticeID,
			OrganizationID:  group[0].OrganizationID,
			ReportCardMonth: month,
			OverallScore:    round1(scoreSum / float64(len(group))),
			SizeBucket:      group[0].SizeBucket,
			MeasureScores:   make(map[string]models.MeasureScore, len(valueSums)),
		}
		for name, sum := range valueSums {
			merged.MeasureScores[name] = models.MeasureScore{
				Value: sum / float64(valueCounts[name]),
			}
		}
		result = append(result, merged)
	}
	return result
}

// PeerComparison summarizes the latest per-practice value of every measure
// inside a size bucket: mean and quartiles. Requires at least organization
// scope: the aggregates span practices outside any single provider binding,
// so own-scoped callers are refused.
func (s *Service) PeerComparison(ctx context.Context, identity *models.TenantIdentity, bucket models.SizeBucket) (*models.PeerComparison, error) {
	scope, err := s.authz.RequireAnalyticsRead(ctx, identity)
	if err != nil {
		return nil, err
	}
	if scope.Scope == models.ScopeOwn {
		return nil, authz.ErrNotAuthorized
	}

	key := cache.GenerateKey("reportcard.peers", string(bucket))
	var cached models.PeerComparison
	if s.cached(key, &cached) {
		return &cached, nil
	}

	latest, err := s.store.GetLatestBucketValues(ctx, bucket)
	if err != nil {
		return nil, err
	}
	measures, err := s.measureIndex(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	comparison := &models.PeerComparison{Bucket: bucket, Measures: make([]models.PeerMeasureStats, 0, len(names))}
	for _, name := range names {
		values := make([]float64, 0, len(latest[name]))
		for _, v := range latest[name] {
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		displayName := name
		if m, ok := measures[name]; ok {
			displayName = m.Label()
		}
		comparison.Measures = append(comparison.Measures, models.PeerMeasureStats{
			MeasureName:   name,
			DisplayName:   displayName,
			Average:       round2(mean(values)),
			Percentile25:  round2(quantile(values, 0.25)),
			Percentile50:  round2(quantile(values, 0.50)),
			Percentile75:  round2(quantile(values, 0.75)),
			PracticeCount: len(values),
		})
	}

	s.store2cache(key, comparison)
	return comparison, nil
}

func (s *Service) measureIndex(ctx context.Context) (map[string]models.MeasureConfig, error) {
	measures, err := s.store.ListActiveMeasures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load measures: %w", err)
	}
	index := make(map[string]models.MeasureConfig, len(measures))
	for _, m := range measures {
		index[m.Name] = m
	}
	return index, nil
}

// quantile interpolates the q-th quantile of a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	frac := pos - float64(lower)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
