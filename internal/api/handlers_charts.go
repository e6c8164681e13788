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

	"github.com/insano70/bcos-sub005/internal/charts"
	"github.com/insano70/bcos-sub005/internal/metrics"
	"github.com/insano70/bcos-sub005/internal/models"
)

// handleOrchestrate runs the chart pipeline for a persisted definition or
// an inline config.
func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req charts.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body")
		return
	}
	if req.ChartDefinitionID <= 0 && req.Config == nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "chart_definition_id or config is required")
		return
	}

	identity := IdentityFromContext(r.Context())
	start := time.Now()
	result, err := s.orchestrator.Orchestrate(r.Context(), identity, &req)

	chartType := ""
	if req.Config != nil {
		chartType = string(req.Config.ChartType)
	}
	if result != nil {
		chartType = string(result.Metadata.ChartType)
	}
	failClosed := result != nil && result.Metadata.FailClosed
	metrics.RecordChartRequest(chartType, failClosed, time.Since(start), err)
	if failClosed {
		metrics.RecordFailClosed(result.Metadata.DataSourceID)
	}

	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleCreateChartDefinition persists a reusable chart configuration.
func (s *Server) handleCreateChartDefinition(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	var def models.ChartDefinition
	if err := decodeJSON(r, &def); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body")
		return
	}
	if def.Name == "" || def.Config.ChartType == "" || def.Config.DataSourceID <= 0 {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "name, chart_type, and data_source_id are required")
		return
	}
	def.ChartType = def.Config.ChartType
	def.DataSourceID = def.Config.DataSourceID
	def.IsActive = true

	id, err := s.db.CreateChartDefinition(r.Context(), &def)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	def.ID = id
	respondJSON(w, http.StatusCreated, def)
}

// handleGetChartDefinition returns one persisted definition.
func (s *Server) handleGetChartDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "definitionID"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid definition id")
		return
	}

	identity := IdentityFromContext(r.Context())
	if _, err := s.authz.RequireAnalyticsRead(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	def, err := s.db.GetChartDefinition(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, def)
}

// handleListDataSources lists the active data-source catalog.
func (s *Server) handleListDataSources(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if _, err := s.authz.RequireAnalyticsRead(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	sources, err := s.db.ListActiveDataSources(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sources)
}
