// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package sizing

import (
	"testing"

	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/models"
)

func defaults() config.SizingDefaults {
	return config.SizingDefaults{
		SmallMax:  1_000_000,
		MediumMax: 5_000_000,
		LargeMax:  20_000_000,
		XLargeMax: 50_000_000,
	}
}

// spread returns n ascending values evenly spaced in [lo, hi].
func spread(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

func TestAdaptThresholds_WellPopulatedDistributionUnchanged(t *testing.T) {
	var charges []float64
	charges = append(charges, spread(100_000, 900_000, 10)...)       // small
	charges = append(charges, spread(1_500_000, 4_500_000, 10)...)   // medium
	charges = append(charges, spread(6_000_000, 18_000_000, 10)...)  // large
	charges = append(charges, spread(22_000_000, 45_000_000, 10)...) // xlarge
	charges = append(charges, spread(55_000_000, 90_000_000, 10)...) // xxlarge

	got := AdaptThresholds(charges, defaults(), 5)

	want := defaults()
	if got.SmallMax != want.SmallMax || got.MediumMax != want.MediumMax ||
		got.LargeMax != want.LargeMax || got.XLargeMax != want.XLargeMax {
		t.Errorf("thresholds moved on a well-populated distribution: %+v", got)
	}
}

func TestAdaptThresholds_UndersizedTopPullsXLargeMaxDown(t *testing.T) {
	// Nobody above 50M: xxlarge would be empty. The boundary must drop to
	// just below the 5th-highest charge.
	charges := spread(100_000, 40_000_000, 30)

	got := AdaptThresholds(charges, defaults(), 5)

	if got.XLargeMax >= 50_000_000 {
		t.Fatalf("xlarge_max = %v, want lowered", got.XLargeMax)
	}
	if n := countAbove(charges, got.XLargeMax); n < 5 {
		t.Errorf("xxlarge holds %d practices, want >= 5", n)
	}
}

func TestAdaptThresholds_UndersizedBottomPushesSmallMaxUp(t *testing.T) {
	// Everyone above 1M: small would be empty. The lowest cluster sits
	// close together so the raised boundary stays under medium_max.
	charges := append(spread(1_100_000, 2_000_000, 10), spread(6_000_000, 90_000_000, 20)...)

	got := AdaptThresholds(charges, defaults(), 5)

	if got.SmallMax <= 1_000_000 {
		t.Fatalf("small_max = %v, want raised", got.SmallMax)
	}
	small := 0
	for _, c := range charges {
		if c <= got.SmallMax {
			small++
		}
	}
	if small < 5 {
		t.Errorf("small holds %d practices, want >= 5", small)
	}
}

func TestAdaptThresholds_TooFewPracticesLeavesDefaults(t *testing.T) {
	charges := spread(1_000_000, 2_000_000, 3)

	got := AdaptThresholds(charges, defaults(), 5)

	want := defaults()
	if got.SmallMax != want.SmallMax || got.XLargeMax != want.XLargeMax {
		t.Errorf("thresholds moved with fewer practices than one cohort needs: %+v", got)
	}
}

func TestAdaptThresholds_BoundariesStayAscending(t *testing.T) {
	// Heavily clustered distribution that forces multiple boundary moves.
	var charges []float64
	for i := 0; i < 40; i++ {
		charges = append(charges, 60_000_000+float64(i)*100_000)
	}

	got := AdaptThresholds(charges, defaults(), 5)

	if !(got.SmallMax < got.MediumMax && got.MediumMax < got.LargeMax && got.LargeMax < got.XLargeMax) {
		t.Errorf("boundaries not strictly ascending: %+v", got)
	}
}

func TestAdaptThresholds_EveryBucketResolvable(t *testing.T) {
	charges := spread(500_000, 80_000_000, 25)
	th := AdaptThresholds(charges, defaults(), 5)

	counts := map[models.SizeBucket]int{}
	for _, c := range charges {
		counts[th.BucketFor(c)]++
	}
	for bucket, n := range counts {
		valid := false
		for _, b := range models.SizeBuckets {
			if b == bucket {
				valid = true
			}
		}
		if !valid {
			t.Errorf("unknown bucket %q (%d practices)", bucket, n)
		}
	}
}

func TestGlobalPercentile(t *testing.T) {
	p := GlobalPercentile(4)
	want := []float64{25, 50, 75, 100}
	for i, w := range want {
		if got := p(i); got != w {
			t.Errorf("percentile(%d) = %v, want %v", i, got, w)
		}
	}

	if got := GlobalPercentile(1)(0); got != 100 {
		t.Errorf("single-practice percentile = %v, want 100", got)
	}
}
