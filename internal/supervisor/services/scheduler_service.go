// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package services

import (
	"context"
	"errors"
	"time"

	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
)

// SchedulerService runs a batch job on a fixed interval under supervision.
// Job errors are logged, not returned: returning would make suture restart
// the scheduler and re-run the job immediately, which the batch leases
// would then reject anyway. ErrLeaseHeld is expected when another replica
// ran first and is logged at debug.
type SchedulerService struct {
	name     string
	interval time.Duration
	runFirst bool
	job      func(ctx context.Context) error
}

// NewSchedulerService creates a supervised interval scheduler. When
// runFirst is set the job also runs once at startup instead of waiting a
// full interval.
func NewSchedulerService(name string, interval time.Duration, runFirst bool, job func(ctx context.Context) error) *SchedulerService {
	return &SchedulerService{name: name, interval: interval, runFirst: runFirst, job: job}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if s.runFirst {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	start := time.Now()
	err := s.job(ctx)
	switch {
	case err == nil:
		logging.Info().Str("scheduler", s.name).Dur("duration", time.Since(start)).Msg("Scheduled run complete")
	case errors.Is(err, database.ErrLeaseHeld):
		logging.Debug().Str("scheduler", s.name).Msg("Scheduled run skipped, lease held elsewhere")
	case errors.Is(err, context.Canceled):
	default:
		logging.Error().Err(err).Str("scheduler", s.name).Msg("Scheduled run failed")
	}
}

// String identifies the service in supervisor logs.
func (s *SchedulerService) String() string {
	return s.name
}
