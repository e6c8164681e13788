// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4800 {
		t.Errorf("server.port = %d, want 4800", cfg.Server.Port)
	}
	if cfg.Cache.Type != "ttl" {
		t.Errorf("cache.type = %q, want ttl", cfg.Cache.Type)
	}
	if cfg.Analytics.MinBucketSize != 5 {
		t.Errorf("min_bucket_size = %d, want 5", cfg.Analytics.MinBucketSize)
	}
	a := cfg.Analytics
	if !(a.SmallMax < a.MediumMax && a.MediumMax < a.LargeMax && a.LargeMax < a.XLargeMax) {
		t.Errorf("default thresholds not ascending: %v %v %v %v", a.SmallMax, a.MediumMax, a.LargeMax, a.XLargeMax)
	}
	if cfg.Scheduler.SizingEnabled || cfg.Scheduler.GenerationEnabled {
		t.Error("schedulers enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BCOS_SERVER_PORT", "8080")
	t.Setenv("BCOS_ANALYTICS_MIN_BUCKET_SIZE", "8")
	t.Setenv("BCOS_SECURITY_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want env override 8080", cfg.Server.Port)
	}
	if cfg.Analytics.MinBucketSize != 8 {
		t.Errorf("min_bucket_size = %d, want 8", cfg.Analytics.MinBucketSize)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("cors_origins = %v, want comma-split pair", cfg.Security.CORSOrigins)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 5100\nanalytics:\n  trend_stability_band: 7.5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5100 {
		t.Errorf("server.port = %d, want file value 5100", cfg.Server.Port)
	}
	if cfg.Analytics.TrendStabilityBand != 7.5 {
		t.Errorf("stability band = %v, want 7.5", cfg.Analytics.TrendStabilityBand)
	}
	// Untouched keys keep their defaults.
	if cfg.Cache.Type != "ttl" {
		t.Errorf("cache.type = %q, want default", cfg.Cache.Type)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 5100\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("BCOS_SERVER_PORT", "6200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 6200 {
		t.Errorf("server.port = %d, env must beat file", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BCOS_SERVER_PORT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("port 0 accepted")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BCOS_SERVER_PORT", "server.port"},
		{"BCOS_ANALYTICS_MIN_BUCKET_SIZE", "analytics.min_bucket_size"},
		{"BCOS_SECURITY_RATE_LIMIT_REQS", "security.rate_limit_reqs"},
		{"BCOS_CACHE_TTL", "cache.ttl"},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults valid", func(c *Config) {}, true},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, false},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, false},
		{"unknown cache type", func(c *Config) { c.Cache.Type = "redis" }, false},
		{"badger without path", func(c *Config) { c.Cache.Type = "badger"; c.Cache.BadgerPath = "" }, false},
		{"badger with path", func(c *Config) { c.Cache.Type = "badger" }, true},
		{"zero bucket size", func(c *Config) { c.Analytics.MinBucketSize = 0 }, false},
		{"thresholds not ascending", func(c *Config) { c.Analytics.MediumMax = c.Analytics.LargeMax + 1 }, false},
		{"score band exceeds 100", func(c *Config) { c.Analytics.ScoreFloor = 80; c.Analytics.ScoreRange = 30 }, false},
		{"trend adjustment above range", func(c *Config) { c.Analytics.TrendAdjustment = 50 }, false},
		{"negative stability band", func(c *Config) { c.Analytics.TrendStabilityBand = -1 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"console format", func(c *Config) { c.Logging.Format = "console" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestAnalyticsThresholds(t *testing.T) {
	a := AnalyticsConfig{SmallMax: 1, MediumMax: 2, LargeMax: 3, XLargeMax: 4}
	got := a.Thresholds()
	if got.SmallMax != 1 || got.MediumMax != 2 || got.LargeMax != 3 || got.XLargeMax != 4 {
		t.Errorf("thresholds = %+v", got)
	}
}
