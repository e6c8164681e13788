// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package sizing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// DefaultChargesMeasure is the statistics measure the sizing run averages.
const DefaultChargesMeasure = "charges"

// leaseName serializes sizing runs across replicas sharing a warehouse.
const leaseName = "sizing-run"

// Store is the warehouse surface the engine needs.
type Store interface {
	GetPracticeChargeAverages(ctx context.Context, chargesMeasure string, windowMonths int, minimumCharges float64, asOf time.Time) ([]database.PracticeCharges, error)
	UpsertSizeBuckets(ctx context.Context, assignments []models.SizeBucketAssignment) error
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) error
	ReleaseLease(ctx context.Context, name, holder string) error
}

// Engine runs the batch cohort assignment.
type Engine struct {
	store    Store
	cfg      config.AnalyticsConfig
	auditLog *audit.Logger
	holder   string

	// ChargesMeasure overrides DefaultChargesMeasure when set.
	ChargesMeasure string

	// effective memoizes the thresholds of the latest completed run so
	// "why is practice P in bucket B" answers match what the run used.
	// Single writer: runs are serialized by the lease.
	mu        sync.RWMutex
	effective *models.SizingThresholds
}

// NewEngine creates a sizing engine.
func NewEngine(store Store, cfg config.AnalyticsConfig, auditLog *audit.Logger) *Engine {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "sizing"
	}
	return &Engine{
		store:          store,
		cfg:            cfg,
		auditLog:       auditLog,
		holder:         hostname + "-" + uuid.NewString()[:8],
		ChargesMeasure: DefaultChargesMeasure,
	}
}

// RunResult summarizes one sizing run.
type RunResult struct {
	Thresholds     models.SizingThresholds   `json:"thresholds"`
	PracticesSized int                       `json:"practices_sized"`
	BucketCounts   map[models.SizeBucket]int `json:"bucket_counts"`
	Duration       time.Duration             `json:"duration"`
}

// Run recomputes every practice's cohort assignment: average the trailing
// window of charges, adapt the thresholds to the distribution, and store
// the assignments in one transaction. Returns database.ErrLeaseHeld when
// another replica is already running.
func (e *Engine) Run(ctx context.Context, asOf time.Time) (*RunResult, error) {
	start := time.Now()

	leaseTTL := 15 * time.Minute
	if err := e.store.AcquireLease(ctx, leaseName, e.holder, leaseTTL); err != nil {
		if errors.Is(err, database.ErrLeaseHeld) {
			logging.Info().Msg("Sizing run skipped, lease held elsewhere")
		}
		return nil, err
	}
	defer func() {
		if err := e.store.ReleaseLease(context.WithoutCancel(ctx), leaseName, e.holder); err != nil {
			logging.Warn().Err(err).Msg("Failed to release sizing lease")
		}
	}()

	charges, err := e.store.GetPracticeChargeAverages(ctx,
		e.ChargesMeasure, e.cfg.SizingWindowMonths, e.cfg.MinimumCharges, asOf)
	if err != nil {
		return nil, fmt.Errorf("load charge averages: %w", err)
	}
	if len(charges) == 0 {
		logging.Warn().Msg("Sizing run found no practices above the charge floor")
		return &RunResult{
			Thresholds:   defaultsAsThresholds(e.cfg.Thresholds()),
			BucketCounts: map[models.SizeBucket]int{},
			Duration:     time.Since(start),
		}, nil
	}

	// Rows arrive ascending by monthly average, so annualized values are
	// ascending too.
	annualized := make([]float64, len(charges))
	for i, c := range charges {
		annualized[i] = c.MonthlyChargesAvg * 12
	}

	thresholds := AdaptThresholds(annualized, e.cfg.Thresholds(), e.cfg.MinBucketSize)
	percentile := GlobalPercentile(len(charges))
	now := time.Now().UTC()

	assignments := make([]models.SizeBucketAssignment, len(charges))
	counts := make(map[models.SizeBucket]int)
	for i, c := range charges {
		bucket := thresholds.BucketFor(annualized[i])
		counts[bucket]++

		var orgID *uuid.UUID
		if c.OrganizationID.Valid && c.OrganizationID.String != "" {
			if parsed, err := uuid.Parse(c.OrganizationID.String); err == nil {
				orgID = &parsed
			}
		}

		assignments[i] = models.SizeBucketAssignment{
			PracticeID:        c.PracticeID,
			OrganizationID:    orgID,
			Bucket:            bucket,
			MonthlyChargesAvg: c.MonthlyChargesAvg,
			Percentile:        percentile(i),
			CalculatedAt:      now,
		}
	}

	if err := e.store.UpsertSizeBuckets(ctx, assignments); err != nil {
		return nil, fmt.Errorf("store size buckets: %w", err)
	}

	e.mu.Lock()
	e.effective = &thresholds
	e.mu.Unlock()

	result := &RunResult{
		Thresholds:     thresholds,
		PracticesSized: len(assignments),
		BucketCounts:   counts,
		Duration:       time.Since(start),
	}

	logging.Info().
		Int("practices", result.PracticesSized).
		Float64("small_max", thresholds.SmallMax).
		Float64("xlarge_max", thresholds.XLargeMax).
		Dur("duration", result.Duration).
		Msg("Sizing run complete")

	if e.auditLog != nil {
		e.auditLog.LogBatchRun(ctx, audit.EventTypeSizingRun, result.PracticesSized, 0,
			fmt.Sprintf("thresholds small=%.0f medium=%.0f large=%.0f xlarge=%.0f",
				thresholds.SmallMax, thresholds.MediumMax, thresholds.LargeMax, thresholds.XLargeMax))
	}
	return result, nil
}

// EffectiveThresholds returns the thresholds used by the latest completed
// run, or false before any run.
func (e *Engine) EffectiveThresholds() (models.SizingThresholds, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.effective == nil {
		return models.SizingThresholds{}, false
	}
	return *e.effective, true
}

func defaultsAsThresholds(d config.SizingDefaults) models.SizingThresholds {
	return models.SizingThresholds{
		SmallMax:  d.SmallMax,
		MediumMax: d.MediumMax,
		LargeMax:  d.LargeMax,
		XLargeMax: d.XLargeMax,
	}
}
