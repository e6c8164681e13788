// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package sizing assigns practices to peer cohorts by annualized charges.
// Benchmarking a two-provider clinic against a hospital group produces
// meaningless percentiles, so every comparison in the scoring pipeline is
// confined to a cohort. The thresholds between cohorts adapt to the actual
// charge distribution so each cohort holds enough practices to compare
// against.
package sizing

import (
	"sort"

	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/models"
)

// AdaptThresholds adjusts the default cohort boundaries so every cohort can
// hold at least minBucketSize practices.
//
// annualizedCharges must be sorted ascending. The outer cohorts move first:
// an undersized xxlarge pulls xlarge_max down to just below the min-th
// highest charge, an undersized small pushes small_max up to just above the
// min-th lowest. The intermediate xlarge and medium cohorts then adjust
// their inner boundaries analogously, but only when enough adjacent supply
// exists and without crossing a neighboring boundary. A distribution with
// fewer practices than a cohort needs is left alone; the cohort is simply
// sparse and scoring falls back to the neutral percentile for small peer
// groups.
func AdaptThresholds(annualizedCharges []float64, defaults config.SizingDefaults, minBucketSize int) models.SizingThresholds {
	t := models.SizingThresholds{
		SmallMax:  defaults.SmallMax,
		MediumMax: defaults.MediumMax,
		LargeMax:  defaults.LargeMax,
		XLargeMax: defaults.XLargeMax,
	}
	n := len(annualizedCharges)
	if minBucketSize <= 0 || n < minBucketSize {
		return t
	}
	asc := annualizedCharges

	// Top cohort: xxlarge is everything above xlarge_max.
	if countAbove(asc, t.XLargeMax) < minBucketSize {
		t.XLargeMax = asc[n-minBucketSize] - 1
	}

	// Bottom cohort: small is everything at or below small_max.
	if n-countAbove(asc, t.SmallMax) < minBucketSize {
		t.SmallMax = asc[minBucketSize-1] + 1
	}

	// xlarge cohort (large_max, xlarge_max]: pull large_max down toward the
	// min-th highest value still under xlarge_max.
	if countBetween(asc, t.LargeMax, t.XLargeMax) < minBucketSize {
		below := asc[:n-countAbove(asc, t.XLargeMax)]
		if len(below) >= minBucketSize {
			candidate := below[len(below)-minBucketSize] - 1
			if candidate > t.MediumMax && candidate < t.LargeMax {
				t.LargeMax = candidate
			}
		}
	}

	// medium cohort (small_max, medium_max]: push medium_max up toward the
	// min-th lowest value above small_max.
	if countBetween(asc, t.SmallMax, t.MediumMax) < minBucketSize {
		aboveSmall := asc[n-countAbove(asc, t.SmallMax):]
		if len(aboveSmall) >= minBucketSize {
			candidate := aboveSmall[minBucketSize-1] + 1
			if candidate > t.MediumMax && candidate < t.LargeMax {
				t.MediumMax = candidate
			}
		}
	}

	// Boundary moves are individually guarded against crossing, but force
	// strict ascent so BucketFor stays well defined in every case.
	if t.LargeMax >= t.XLargeMax {
		t.LargeMax = t.XLargeMax - 1
	}
	if t.MediumMax >= t.LargeMax {
		t.MediumMax = t.LargeMax - 1
	}
	if t.SmallMax >= t.MediumMax {
		t.SmallMax = t.MediumMax - 1
	}
	return t
}

// countAbove returns how many of the ascending-sorted values exceed limit.
func countAbove(sorted []float64, limit float64) int {
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i] > limit
	})
	return len(sorted) - idx
}

// countBetween counts values in (lo, hi].
func countBetween(sorted []float64, lo, hi float64) int {
	return countAbove(sorted, lo) - countAbove(sorted, hi)
}

// GlobalPercentile returns the percentile of each practice's position in
// the ascending charge distribution, in (0, 100]. Index i of the input maps
// to index i of the output.
func GlobalPercentile(n int) func(i int) float64 {
	return func(i int) float64 {
		if n <= 1 {
			return 100
		}
		return 100 * float64(i+1) / float64(n)
	}
}
