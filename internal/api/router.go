// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/cache"
	"github.com/insano70/bcos-sub005/internal/charts"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/middleware"
	"github.com/insano70/bcos-sub005/internal/reportcard"
	"github.com/insano70/bcos-sub005/internal/sizing"
	"github.com/insano70/bcos-sub005/internal/trends"
)

// Server aggregates the domain services behind the HTTP surface.
type Server struct {
	cfg          *config.Config
	db           *database.DB
	orchestrator *charts.Orchestrator
	reportCards  *reportcard.Service
	generator    *reportcard.Generator
	sizing       *sizing.Engine
	trends       *trends.Analyzer
	authz        *authz.Service
	cache        cache.Cacher
}

// NewServer wires the HTTP surface.
func NewServer(
	cfg *config.Config,
	db *database.DB,
	orchestrator *charts.Orchestrator,
	reportCards *reportcard.Service,
	generator *reportcard.Generator,
	sizingEngine *sizing.Engine,
	trendAnalyzer *trends.Analyzer,
	authzSvc *authz.Service,
	cacher cache.Cacher,
) *Server {
	return &Server{
		cfg:          cfg,
		db:           db,
		orchestrator: orchestrator,
		reportCards:  reportCards,
		generator:    generator,
		sizing:       sizingEngine,
		trends:       trendAnalyzer,
		authz:        authzSvc,
		cache:        cacher,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(s.cfg.Security.RateLimitReqs, s.cfg.Security.RateLimitWindow))
	r.Use(middleware.Compression)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/health/live", s.handleHealthLive)
	r.Get("/api/v1/health/ready", s.handleHealthReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(s.cfg.Security.JWTSecret))

			r.Post("/charts/orchestrate", s.handleOrchestrate)
			r.Post("/charts/definitions", s.handleCreateChartDefinition)
			r.Get("/charts/definitions/{definitionID}", s.handleGetChartDefinition)
			r.Get("/data-sources", s.handleListDataSources)

			r.Route("/report-cards", func(r chi.Router) {
				r.Get("/organization/{orgID}", s.handleReportCardForOrg)
				r.Get("/organization/{orgID}/months", s.handleAvailableMonths)
				r.Get("/organization/{orgID}/previous-month", s.handlePreviousMonthSummary)
				r.Get("/organization/{orgID}/grade-history", s.handleGradeHistory)
				r.Get("/organization/{orgID}/trends", s.handleTrendsForOrg)
				r.Get("/organization/{orgID}/annual-review", s.handleAnnualReview)
				r.Get("/peer-comparison", s.handlePeerComparison)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/measures", s.handleListMeasures)
				r.Post("/measures", s.handleCreateMeasure)
				r.Patch("/measures/{name}/weight", s.handleUpdateMeasureWeight)
				r.Delete("/measures/{name}", s.handleDeactivateMeasure)

				r.Patch("/data-sources/{dataSourceID}", s.handleUpdateDataSource)

				r.Post("/runs/sizing", s.handleRunSizing)
				r.Post("/runs/trends", s.handleRunTrends)
				r.Post("/runs/generation", s.handleRunGeneration)
				r.Post("/runs/backfill", s.handleRunBackfill)
				r.Post("/report-cards/practice/{practiceID}/regenerate", s.handleRegeneratePractice)

				r.Get("/cache-stats", s.handleCacheStats)
			})
		})
	})

	return r
}
