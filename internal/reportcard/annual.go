// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import (
	"sort"
	"time"

	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/models"
)

// monthLabel formats a report-card month for display.
func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// BuildAnnualReview assembles the year-in-review payload from a practice's
// cards, which must be chronologically ascending. cfg supplies the score
// band used to clamp forecast projections.
func BuildAnnualReview(cards []models.ReportCardResult, measures map[string]models.MeasureConfig, cfg config.AnalyticsConfig) *models.AnnualReview {
	review := &models.AnnualReview{
		MonthlyScores: make([]models.MonthlyScore, 0, len(cards)),
		MeasureYoY:    []models.MeasureYearOverYear{},
	}
	if len(cards) == 0 {
		return review
	}

	for _, card := range cards {
		review.MonthlyScores = append(review.MonthlyScores, models.MonthlyScore{
			Month:      card.ReportCardMonth,
			MonthLabel: monthLabel(card.ReportCardMonth),
			Score:      card.OverallScore,
			Grade:      card.Grade(),
		})
	}

	currentYear := cards[len(cards)-1].ReportCardMonth.Year()
	review.YearComparison = buildYearComparison(cards, currentYear)
	review.MeasureYoY = buildMeasureYoY(cards, currentYear, measures)
	review.Summary = buildScoreSummary(cards)
	review.Forecast = BuildForecast(cards, cfg)
	return review
}

func buildYearComparison(cards []models.ReportCardResult, currentYear int) *models.YearComparison {
	var currentScores, priorScores []float64
	for _, card := range cards {
		switch card.ReportCardMonth.Year() {
		case currentYear:
			currentScores = append(currentScores, card.OverallScore)
		case currentYear - 1:
			priorScores = append(priorScores, card.OverallScore)
		}
	}
	if len(currentScores) == 0 || len(priorScores) == 0 {
		return nil
	}

	currentAvg := round1(mean(currentScores))
	priorAvg := round1(mean(priorScores))
	return &models.YearComparison{
		CurrentYear:       currentYear,
		CurrentYearAvg:    currentAvg,
		CurrentYearGrade:  models.LetterGrade(currentAvg),
		CurrentYearMonths: len(currentScores),
		PriorYear:         currentYear - 1,
		PriorYearAvg:      priorAvg,
		PriorYearGrade:    models.LetterGrade(priorAvg),
		PriorYearMonths:   len(priorScores),
		Change:            round1(currentAvg - priorAvg),
	}
}

func buildMeasureYoY(cards []models.ReportCardResult, currentYear int, measures map[string]models.MeasureConfig) []models.MeasureYearOverYear {
	type accumulator struct {
		current, prior []float64
	}
	byMeasure := make(map[string]*accumulator)

	for _, card := range cards {
		year := card.ReportCardMonth.Year()
		if year != currentYear && year != currentYear-1 {
			continue
		}
		for name, score := range card.MeasureScores {
			acc := byMeasure[name]
			if acc == nil {
				acc = &accumulator{}
				byMeasure[name] = acc
			}
			if year == currentYear {
				acc.current = append(acc.current, score.Value)
			} else {
				acc.prior = append(acc.prior, score.Value)
			}
		}
	}

	names := make([]string, 0, len(byMeasure))
	for name := range byMeasure {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]models.MeasureYearOverYear, 0, len(names))
	for _, name := range names {
		acc := byMeasure[name]
		if len(acc.current) == 0 || len(acc.prior) == 0 {
			continue
		}

		currentAvg := mean(acc.current)
		priorAvg := mean(acc.prior)
		change := currentAvg - priorAvg

		changePercent := 0.0
		if priorAvg != 0 {
			changePercent = round2(change / priorAvg * 100)
		}

		higherIsBetter := true
		displayName := name
		if m, ok := measures[name]; ok {
			higherIsBetter = m.HigherIsBetter
			displayName = m.Label()
		}
		improved := change > 0
		if !higherIsBetter {
			improved = change < 0
		}

		result = append(result, models.MeasureYearOverYear{
			MeasureName:    name,
			DisplayName:    displayName,
			CurrentYearAvg: round2(currentAvg),
			PriorYearAvg:   round2(priorAvg),
			Change:         round2(change),
			ChangePercent:  changePercent,
			Improved:       improved,
		})
	}
	return result
}

// buildScoreSummary aggregates the score sequence. Trend splits the
// sequence at its midpoint: recent-half mean more than 3% above the older
// half is improving, more than 3% below is declining.
func buildScoreSummary(cards []models.ReportCardResult) *models.ScoreSummary {
	if len(cards) == 0 {
		return nil
	}

	scores := make([]float64, len(cards))
	minScore, maxScore := cards[0].OverallScore, cards[0].OverallScore
	for i, card := range cards {
		scores[i] = card.OverallScore
		if card.OverallScore < minScore {
			minScore = card.OverallScore
		}
		if card.OverallScore > maxScore {
			maxScore = card.OverallScore
		}
	}

	summary := &models.ScoreSummary{
		Average: round1(mean(scores)),
		Min:     minScore,
		Max:     maxScore,
		Count:   len(scores),
		Trend:   models.TrendStable,
	}

	if len(scores) >= 3 {
		mid := len(scores) / 2
		olderMean := mean(scores[:mid])
		recentMean := mean(scores[mid:])
		if olderMean != 0 {
			shift := (recentMean - olderMean) / olderMean * 100
			switch {
			case shift >= 3:
				summary.Trend = models.TrendImproving
			case shift <= -3:
				summary.Trend = models.TrendDeclining
			}
		}
	}
	return summary
}

// BuildForecast fits a linear slope over the last up-to-six months and
// projects month-by-month through the year-end of the latest card, at most
// six projections, each clamped to the configured score band
// [ScoreFloor, ScoreFloor+ScoreRange]. Needs at least three months of
// history.
func BuildForecast(cards []models.ReportCardResult, cfg config.AnalyticsConfig) *models.ScoreForecast {
	if len(cards) < 3 {
		return nil
	}

	floor, ceiling := cfg.ScoreFloor, cfg.ScoreFloor+cfg.ScoreRange
	if cfg.ScoreRange <= 0 {
		floor, ceiling = 70, 100
	}

	recent := cards
	if len(recent) > 6 {
		recent = recent[len(recent)-6:]
	}

	slope, intercept := linearFit(recent)
	lastIndex := float64(len(recent) - 1)
	lastMonth := recent[len(recent)-1].ReportCardMonth
	yearEnd := time.Date(lastMonth.Year(), 12, 1, 0, 0, 0, 0, time.UTC)

	confidence := models.ForecastConfidenceLow
	switch {
	case len(recent) >= 6:
		confidence = models.ForecastConfidenceHigh
	case len(recent) >= 3:
		confidence = models.ForecastConfidenceMedium
	}

	var projections []models.ForecastPoint
	for k := 1; k <= 6; k++ {
		month := lastMonth.AddDate(0, k, 0)
		if month.After(yearEnd) {
			break
		}
		projected := intercept + slope*(lastIndex+float64(k))
		if projected < floor {
			projected = floor
		}
		if projected > ceiling {
			projected = ceiling
		}
		projected = round1(projected)
		projections = append(projections, models.ForecastPoint{
			Month:          month,
			MonthLabel:     monthLabel(month),
			ProjectedScore: projected,
			Grade:          models.LetterGrade(projected),
		})
	}

	note := "Scores are holding steady."
	switch {
	case slope > 0.05:
		note = "Scores are trending upward; current trajectory continues through year-end."
	case slope < -0.05:
		note = "Scores are trending downward; intervention may be needed to hold the current grade."
	}

	return &models.ScoreForecast{
		Projections: projections,
		Slope:       round2(slope),
		Confidence:  confidence,
		Note:        note,
	}
}

// linearFit computes least-squares slope and intercept of overall score
// against month index.
func linearFit(cards []models.ReportCardResult) (slope, intercept float64) {
	n := float64(len(cards))
	var sumX, sumY, sumXY, sumXX float64
	for i, card := range cards {
		x := float64(i)
		y := card.OverallScore
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
