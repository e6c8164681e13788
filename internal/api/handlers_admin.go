// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/insano70/bcos-sub005/internal/metrics"
	"github.com/insano70/bcos-sub005/internal/models"
)

// handleRunSizing triggers a practice sizing run. Concurrent runs are
// serialized by the batch lease; a held lease is a 409.
func (s *Server) handleRunSizing(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	start := time.Now()
	result, err := s.sizing.Run(r.Context(), time.Now().UTC())
	metrics.RecordBatchRun("sizing", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	counts := make(map[string]int, len(result.BucketCounts))
	for bucket, n := range result.BucketCounts {
		counts[string(bucket)] = n
	}
	metrics.RecordSizingResult(result.PracticesSized, counts)
	respondJSON(w, http.StatusOK, result)
}

// handleRunTrends triggers trend analysis for ?month= (default: the
// current report-card month).
func (s *Server) handleRunTrends(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	month, hasMonth, err := monthParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "month must be YYYY-MM-01")
		return
	}
	if !hasMonth {
		month = models.CurrentReportCardMonth(time.Now().UTC())
	}

	start := time.Now()
	result, err := s.trends.Run(r.Context(), month)
	metrics.RecordBatchRun("trend", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleRunGeneration triggers report-card generation for ?month=
// (default: the current report-card month).
func (s *Server) handleRunGeneration(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	month, hasMonth, err := monthParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "month must be YYYY-MM-01")
		return
	}
	if !hasMonth {
		month = models.CurrentReportCardMonth(time.Now().UTC())
	}

	start := time.Now()
	summary, err := s.generator.GenerateMonth(r.Context(), month)
	metrics.RecordBatchRun("generation", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleRunBackfill regenerates historical months, paced by the backfill
// rate limit (?months=, default from config).
func (s *Server) handleRunBackfill(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	months := s.cfg.Analytics.HistoricalMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, CodeValidationFailed, "months must be a positive integer")
			return
		}
		months = parsed
	}

	start := time.Now()
	summaries, err := s.generator.GenerateHistorical(r.Context(), months)
	metrics.RecordBatchRun("backfill", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// handleRegeneratePractice regenerates a single practice's card for
// ?month= (default current). Without ?force=true a fresh card is returned
// as-is; staleness is judged against the configured threshold.
func (s *Server) handleRegeneratePractice(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	practiceID, err := strconv.Atoi(chi.URLParam(r, "practiceID"))
	if err != nil || practiceID <= 0 {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid practice id")
		return
	}

	month, hasMonth, err := monthParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "month must be YYYY-MM-01")
		return
	}
	if !hasMonth {
		month = models.CurrentReportCardMonth(time.Now().UTC())
	}
	force := r.URL.Query().Get("force") == "true"

	card, err := s.generator.GenerateForPractice(r.Context(), practiceID, month, force)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

type updateDataSourceRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// handleUpdateDataSource flips a data source's active flag and drops every
// cached chart result that source fed, so stale payloads cannot outlive the
// mutation.
func (s *Server) handleUpdateDataSource(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "dataSourceID"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid data source id")
		return
	}

	var body updateDataSourceRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return
	}

	if err := s.db.SetDataSourceActive(r.Context(), id, *body.IsActive); err != nil {
		respondDomainError(w, err)
		return
	}
	invalidated := s.orchestrator.InvalidateDataSource(id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":                  id,
		"is_active":           *body.IsActive,
		"invalidated_entries": invalidated,
	})
}

// handleCacheStats exposes cache counters for operators.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	stats := s.cache.GetStats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":    stats,
		"hit_rate": s.cache.HitRate(),
	})
}
