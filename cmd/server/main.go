// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Command server runs the analytics API and its batch schedulers under a
// suture supervision tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/insano70/bcos-sub005/internal/api"
	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/cache"
	"github.com/insano70/bcos-sub005/internal/charts"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/metrics"
	"github.com/insano70/bcos-sub005/internal/models"
	"github.com/insano70/bcos-sub005/internal/reportcard"
	"github.com/insano70/bcos-sub005/internal/sizing"
	"github.com/insano70/bcos-sub005/internal/supervisor"
	"github.com/insano70/bcos-sub005/internal/supervisor/services"
	"github.com/insano70/bcos-sub005/internal/trends"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cacher, err := newCache(cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cacher.Close()

	auditStore, err := audit.NewDuckDBStore(db.Conn())
	if err != nil {
		return fmt.Errorf("init audit store: %w", err)
	}
	auditLog := audit.NewLogger(auditStore, &audit.Config{
		Enabled:         cfg.Audit.Enabled,
		LogLevel:        audit.SeverityInfo,
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      cfg.Audit.BufferSize,
		LogToStdout:     cfg.Audit.LogToStdout,
	})
	defer auditLog.Close()
	go auditLog.StartCleanupRoutine(ctx)

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		ModelPath:  cfg.Security.Casbin.ModelPath,
		PolicyPath: cfg.Security.Casbin.PolicyPath,
		AutoReload: true,
	})
	if err != nil {
		return fmt.Errorf("init authorization: %w", err)
	}
	authzSvc := authz.NewService(enforcer, db, auditLog)

	registry := charts.NewRegistry()
	registry.RegisterDefaults(db)
	orchestrator := charts.NewOrchestrator(registry, db, db, authzSvc, cacher, auditLog, cfg.Cache.TTL)

	sizingEngine := sizing.NewEngine(db, cfg.Analytics, auditLog)
	trendAnalyzer := trends.NewAnalyzer(db, cfg.Analytics, auditLog)
	generator := reportcard.NewGenerator(db, cfg.Analytics, auditLog, &reportcard.StaticBenchmarks{})
	reportCards := reportcard.NewService(db, authzSvc, cacher, cfg.Analytics, cfg.Cache.ReportCardTTL)

	server := api.NewServer(cfg, db, orchestrator, reportCards, generator, sizingEngine, trendAnalyzer, authzSvc, cacher)

	tree := supervisor.NewTree(
		slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		supervisor.DefaultTreeConfig(),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	if cfg.Scheduler.SizingEnabled {
		tree.AddBatchService(services.NewSchedulerService(
			"sizing-scheduler", cfg.Scheduler.SizingInterval, true,
			func(ctx context.Context) error {
				start := time.Now()
				result, err := sizingEngine.Run(ctx, time.Now().UTC())
				metrics.RecordBatchRun("sizing", time.Since(start), err)
				if err != nil {
					return err
				}
				counts := make(map[string]int, len(result.BucketCounts))
				for bucket, n := range result.BucketCounts {
					counts[string(bucket)] = n
				}
				metrics.RecordSizingResult(result.PracticesSized, counts)
				return nil
			},
		))
	}
	if cfg.Scheduler.GenerationEnabled {
		tree.AddBatchService(services.NewSchedulerService(
			"generation-scheduler", cfg.Scheduler.GenerationInterval, false,
			func(ctx context.Context) error {
				month := models.CurrentReportCardMonth(time.Now().UTC())

				start := time.Now()
				_, err := trendAnalyzer.Run(ctx, month)
				metrics.RecordBatchRun("trend", time.Since(start), err)
				if err != nil {
					return fmt.Errorf("trend analysis: %w", err)
				}

				start = time.Now()
				summary, err := generator.GenerateMonth(ctx, month)
				metrics.RecordBatchRun("generation", time.Since(start), err)
				if err != nil {
					return fmt.Errorf("report card generation: %w", err)
				}
				metrics.ReportCardsGenerated.WithLabelValues("success").Add(float64(summary.Succeeded))
				if summary.Failed > 0 {
					metrics.ReportCardsGenerated.WithLabelValues("failed").Add(float64(summary.Failed))
				}
				return nil
			},
		))
	}

	logging.Info().
		Str("addr", httpServer.Addr).
		Str("environment", cfg.Server.Environment).
		Str("version", version).
		Bool("sizing_scheduler", cfg.Scheduler.SizingEnabled).
		Bool("generation_scheduler", cfg.Scheduler.GenerationEnabled).
		Msg("Starting server")

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() != nil {
		// Normal shutdown path: the signal context canceled the tree.
		err = nil
	}
	logging.Info().Msg("Server stopped")
	return err
}

func newCache(cfg *config.Config) (cache.Cacher, error) {
	switch cfg.Cache.Type {
	case "badger":
		return cache.NewBadger(cfg.Cache.BadgerPath, cfg.Cache.TTL)
	default:
		return cache.New(cfg.Cache.TTL), nil
	}
}
