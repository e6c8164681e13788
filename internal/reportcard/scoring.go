// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package reportcard generates and serves monthly practice report cards:
// per-measure percentile scoring against size-bucket peers, trend-adjusted
// normalization into a grade-friendly band, insight generation, and the
// tenant-facing read service with annual review, forecasting, and peer
// comparison.
package reportcard

import (
	"math"

	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/models"
)

// ComputePercentile ranks value against its peer distribution: the share of
// peers performing worse under the measure's orientation, in [0, 100].
//
// Fewer than 2 peers cannot anchor a meaningful rank; nil signals the caller
// to fall back to the neutral baseline. The peer slice must already exclude
// the practice's own value.
func ComputePercentile(value float64, peers []float64, higherIsBetter bool) *float64 {
	if len(peers) < 2 {
		return nil
	}
	worse := 0
	for _, p := range peers {
		if higherIsBetter {
			if p < value {
				worse++
			}
		} else {
			if p > value {
				worse++
			}
		}
	}
	pct := float64(worse) / float64(len(peers)) * 100
	return &pct
}

// NormalizeScore maps a percentile onto the grade-friendly band
// [floor, floor+range], applies the trend adjustment, clamps, and rounds to
// one decimal. A nil percentile uses the neutral 50th baseline.
func NormalizeScore(percentile *float64, trend models.TrendDirection, cfg config.AnalyticsConfig) float64 {
	effective := 50.0
	if percentile != nil {
		effective = *percentile
	}

	score := cfg.ScoreFloor + effective/100*cfg.ScoreRange
	switch trend {
	case models.TrendImproving:
		score += cfg.TrendAdjustment
	case models.TrendDeclining:
		score -= cfg.TrendAdjustment
	}

	ceiling := cfg.ScoreFloor + cfg.ScoreRange
	if score < cfg.ScoreFloor {
		score = cfg.ScoreFloor
	}
	if score > ceiling {
		score = ceiling
	}
	return round1(score)
}

// WeightedOverallScore computes the measure-weighted mean of normalized
// scores. false when no measure contributed.
func WeightedOverallScore(scores map[string]models.MeasureScore, measures map[string]models.MeasureConfig) (float64, bool) {
	var weightedSum, totalWeight float64
	for name, score := range scores {
		weight := float64(models.MeasureWeightDefault)
		if m, ok := measures[name]; ok {
			weight = float64(m.EffectiveWeight())
		}
		weightedSum += score.Score * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return round1(weightedSum / totalWeight), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
