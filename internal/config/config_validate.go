// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Type {
	case "ttl", "badger":
	default:
		return fmt.Errorf("cache.type must be ttl or badger, got %q", c.Cache.Type)
	}
	if c.Cache.Type == "badger" && c.Cache.BadgerPath == "" {
		return fmt.Errorf("cache.badger_path is required when cache.type=badger")
	}
	if c.Cache.TTL <= 0 || c.Cache.ReportCardTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	a := c.Analytics

	if a.MinBucketSize < 1 {
		return fmt.Errorf("analytics.min_bucket_size must be at least 1")
	}
	if a.SizingWindowMonths < 1 {
		return fmt.Errorf("analytics.sizing_window_months must be at least 1")
	}

	// Seed thresholds must be strictly ascending or the cohort partition
	// degenerates.
	if !(a.SmallMax < a.MediumMax && a.MediumMax < a.LargeMax && a.LargeMax < a.XLargeMax) {
		return fmt.Errorf("analytics thresholds must be strictly ascending: small_max < medium_max < large_max < xlarge_max")
	}

	if a.TrendStabilityBand < 0 {
		return fmt.Errorf("analytics.trend_stability_band must be non-negative")
	}
	if a.ScoreRange <= 0 {
		return fmt.Errorf("analytics.score_range must be positive")
	}
	if a.ScoreFloor < 0 || a.ScoreFloor+a.ScoreRange > 100 {
		return fmt.Errorf("analytics score band [%.1f, %.1f] must fit within [0, 100]",
			a.ScoreFloor, a.ScoreFloor+a.ScoreRange)
	}
	if a.TrendAdjustment < 0 || a.TrendAdjustment > a.ScoreRange {
		return fmt.Errorf("analytics.trend_adjustment must be in [0, score_range]")
	}
	if a.HistoricalMonths < 1 {
		return fmt.Errorf("analytics.historical_months must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a recognized level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}
	return nil
}
