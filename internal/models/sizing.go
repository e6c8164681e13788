// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package models

import (
	"time"

	"github.com/google/uuid"
)

// SizeBucket is the cohort a practice belongs to, partitioned by annualized
// charges.
type SizeBucket string

const (
	BucketSmall   SizeBucket = "small"
	BucketMedium  SizeBucket = "medium"
	BucketLarge   SizeBucket = "large"
	BucketXLarge  SizeBucket = "xlarge"
	BucketXXLarge SizeBucket = "xxlarge"
)

// SizeBuckets lists all cohorts in ascending charge order.
var SizeBuckets = []SizeBucket{
	BucketSmall,
	BucketMedium,
	BucketLarge,
	BucketXLarge,
	BucketXXLarge,
}

// SizingThresholds are the annualized-charge boundaries between cohorts.
// A practice with annualized charges c lands in:
//
//	c <= SmallMax            -> small
//	SmallMax  < c <= MediumMax -> medium
//	MediumMax < c <= LargeMax  -> large
//	LargeMax  < c <= XLargeMax -> xlarge
//	c > XLargeMax              -> xxlarge
type SizingThresholds struct {
	SmallMax  float64 `json:"small_max"`
	MediumMax float64 `json:"medium_max"`
	LargeMax  float64 `json:"large_max"`
	XLargeMax float64 `json:"xlarge_max"`
}

// BucketFor returns the cohort for the given annualized charges.
func (t SizingThresholds) BucketFor(annualizedCharges float64) SizeBucket {
	switch {
	case annualizedCharges <= t.SmallMax:
		return BucketSmall
	case annualizedCharges <= t.MediumMax:
		return BucketMedium
	case annualizedCharges <= t.LargeMax:
		return BucketLarge
	case annualizedCharges <= t.XLargeMax:
		return BucketXLarge
	default:
		return BucketXXLarge
	}
}

// SizeBucketAssignment records the cohort assignment for one practice.
// Unique on PracticeID; recomputed by the batch sizing run.
type SizeBucketAssignment struct {
	PracticeID     int        `json:"practice_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Bucket         SizeBucket `json:"bucket"`

	// MonthlyChargesAvg is the average monthly charges over the sizing
	// window (not annualized).
	MonthlyChargesAvg float64 `json:"monthly_charges_avg"`

	// Percentile is the practice's rank in the global charge distribution,
	// in [0, 100].
	Percentile float64 `json:"percentile"`

	CalculatedAt time.Time `json:"calculated_at"`
}
