// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package config provides layered configuration for the analytics backend:
// built-in defaults, an optional YAML file, then environment variables, all
// loaded through koanf v2.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Cache     CacheConfig     `koanf:"cache"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Audit     AuditConfig     `koanf:"audit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds warehouse (DuckDB) settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file, or ":memory:" for tests.
	Path string `koanf:"path"`

	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual warehouse queries when the caller's
	// context carries no deadline.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// SecurityConfig holds authn/authz settings for the API surface.
type SecurityConfig struct {
	// JWTSecret verifies bearer tokens issued by the out-of-scope auth
	// service.
	JWTSecret string `koanf:"jwt_secret"`

	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds RBAC policy settings. Empty paths use the embedded
// model and policy.
type CasbinConfig struct {
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// CacheConfig holds chart/report-card cache settings.
type CacheConfig struct {
	// Type selects the cache implementation: "ttl" (in-memory) or
	// "badger" (persistent, survives restarts).
	Type string `koanf:"type"`

	// TTL is the default entry lifetime for chart data.
	TTL time.Duration `koanf:"ttl"`

	// ReportCardTTL is the entry lifetime for tenant-facing report-card
	// reads.
	ReportCardTTL time.Duration `koanf:"report_card_ttl"`

	// BadgerPath is the on-disk location for the badger cache.
	BadgerPath string `koanf:"badger_path"`
}

// AnalyticsConfig holds the tunables of the sizing, trend, and scoring
// engines. Defaults reproduce the documented behavior; changing ScoreFloor
// or ScoreRange moves the whole score band while preserving
// score in [floor, floor+range].
type AnalyticsConfig struct {
	// MinBucketSize is the minimum cohort cardinality the sizing engine
	// guarantees through adaptive threshold adjustment.
	MinBucketSize int `koanf:"min_bucket_size"`

	// SizingWindowMonths is the rolling window for charge averaging.
	SizingWindowMonths int `koanf:"sizing_window_months"`

	// MinimumCharges filters out inactive/test practices whose annualized
	// charges fall below it.
	MinimumCharges float64 `koanf:"minimum_charges"`

	// Default cohort boundaries on annualized charges, ascending. These
	// seed the adaptive adjustment.
	SmallMax  float64 `koanf:"small_max"`
	MediumMax float64 `koanf:"medium_max"`
	LargeMax  float64 `koanf:"large_max"`
	XLargeMax float64 `koanf:"xlarge_max"`

	// TrendStabilityBand is the percentage magnitude below which a trend
	// is reported stable.
	TrendStabilityBand float64 `koanf:"trend_stability_band"`

	// TrendAdjustment is the score bonus/penalty for improving/declining
	// trends.
	TrendAdjustment float64 `koanf:"trend_adjustment"`

	// ScoreFloor and ScoreRange define the grade-friendly normalization
	// band [floor, floor+range].
	ScoreFloor float64 `koanf:"score_floor"`
	ScoreRange float64 `koanf:"score_range"`

	// StaleThresholdHours is the age after which a single-practice
	// regeneration proceeds without an explicit force flag.
	StaleThresholdHours int `koanf:"stale_threshold_hours"`

	// HistoricalMonths is the backfill depth for historical generation.
	HistoricalMonths int `koanf:"historical_months"`

	// BackfillRatePerSecond paces bulk preload queries during historical
	// backfill to limit warehouse load. 0 disables pacing.
	BackfillRatePerSecond float64 `koanf:"backfill_rate_per_second"`
}

// Thresholds returns the configured default sizing thresholds in a single
// value for the sizing engine.
func (a AnalyticsConfig) Thresholds() SizingDefaults {
	return SizingDefaults{
		SmallMax:  a.SmallMax,
		MediumMax: a.MediumMax,
		LargeMax:  a.LargeMax,
		XLargeMax: a.XLargeMax,
	}
}

// SizingDefaults are the seed thresholds before adaptation.
type SizingDefaults struct {
	SmallMax  float64
	MediumMax float64
	LargeMax  float64
	XLargeMax float64
}

// SchedulerConfig controls the batch runners supervised at startup.
type SchedulerConfig struct {
	// SizingEnabled / GenerationEnabled gate the batch runners; both are
	// off for API-only deployments.
	SizingEnabled     bool `koanf:"sizing_enabled"`
	GenerationEnabled bool `koanf:"generation_enabled"`

	// SizingInterval and GenerationInterval are the batch cadences.
	SizingInterval     time.Duration `koanf:"sizing_interval"`
	GenerationInterval time.Duration `koanf:"generation_interval"`
}

// AuditConfig controls the security audit trail.
type AuditConfig struct {
	Enabled       bool          `koanf:"enabled"`
	RetentionDays int           `koanf:"retention_days"`
	BufferSize    int           `koanf:"buffer_size"`
	LogToStdout   bool          `koanf:"log_to_stdout"`
	FlushInterval time.Duration `koanf:"flush_interval"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        4800,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/bcos-analytics.duckdb",
			MaxMemory:    "2GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			Casbin: CasbinConfig{
				ModelPath:  "",
				PolicyPath: "",
			},
		},
		Cache: CacheConfig{
			Type:          "ttl",
			TTL:           5 * time.Minute,
			ReportCardTTL: 15 * time.Minute,
			BadgerPath:    "/data/cache",
		},
		Analytics: AnalyticsConfig{
			MinBucketSize:      5,
			SizingWindowMonths: 12,
			MinimumCharges:     10000,
			// Seed thresholds on annualized charges, ascending.
			SmallMax:              1_000_000,
			MediumMax:             3_000_000,
			LargeMax:              8_000_000,
			XLargeMax:             20_000_000,
			TrendStabilityBand:    5.0,
			TrendAdjustment:       3.0,
			ScoreFloor:            70.0,
			ScoreRange:            30.0,
			StaleThresholdHours:   24,
			HistoricalMonths:      24,
			BackfillRatePerSecond: 4,
		},
		Scheduler: SchedulerConfig{
			SizingEnabled:      false,
			GenerationEnabled:  false,
			SizingInterval:     24 * time.Hour,
			GenerationInterval: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 90,
			BufferSize:    1000,
			LogToStdout:   false,
			FlushInterval: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
