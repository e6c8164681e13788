// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import "github.com/insano70/bcos-sub005/internal/models"

// BenchmarkProvider supplies external target values for measures, keyed by
// size bucket. The generator annotates report cards with benchmark misses
// and the progress-bar chart uses targets from the same source. Deployments
// can plug in a provider backed by payer or specialty benchmark feeds.
type BenchmarkProvider interface {
	// Benchmark returns the target value for the measure in the given
	// bucket; false when no benchmark is published.
	Benchmark(measureName string, bucket models.SizeBucket) (float64, bool)
}

// StaticBenchmarks is a fixed benchmark table. The zero value publishes
// nothing.
type StaticBenchmarks struct {
	// Targets maps measure name -> bucket -> target. A bucket entry under
	// the empty key applies to all buckets without a specific entry.
	Targets map[string]map[models.SizeBucket]float64
}

// Benchmark implements BenchmarkProvider.
func (s *StaticBenchmarks) Benchmark(measureName string, bucket models.SizeBucket) (float64, bool) {
	if s == nil || s.Targets == nil {
		return 0, false
	}
	byBucket, ok := s.Targets[measureName]
	if !ok {
		return 0, false
	}
	if target, ok := byBucket[bucket]; ok {
		return target, true
	}
	target, ok := byBucket[""]
	return target, ok
}
