// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/insano70/bcos-sub005/internal/models"
)

// createMeasureRequest is the write shape for POST /admin/measures. It is
// validated separately so tag constraints never leak into the domain model.
type createMeasureRequest struct {
	Name           string            `json:"name" validate:"required,max=128"`
	DisplayName    string            `json:"display_name" validate:"max=256"`
	Weight         int               `json:"weight" validate:"omitempty,min=1,max=10"`
	HigherIsBetter bool              `json:"higher_is_better"`
	FormatKind     string            `json:"format_kind" validate:"omitempty,oneof=number currency percentage"`
	DataSourceID   int               `json:"data_source_id" validate:"omitempty,min=1"`
	ValueColumn    string            `json:"value_column"`
	FilterCriteria map[string]string `json:"filter_criteria"`
}

type updateWeightRequest struct {
	Weight int `json:"weight" validate:"required,min=1,max=10"`
}

// handleListMeasures lists active measure configurations.
func (s *Server) handleListMeasures(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	measures, err := s.db.ListActiveMeasures(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, measures)
}

// handleCreateMeasure adds a scored measure. Duplicate names are a 409 with
// the stable MEASURE_DUPLICATE code.
func (s *Server) handleCreateMeasure(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	var req createMeasureRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return
	}

	m := models.MeasureConfig{
		Name:           req.Name,
		DisplayName:    req.DisplayName,
		Weight:         req.Weight,
		HigherIsBetter: req.HigherIsBetter,
		FormatKind:     models.FormatKind(req.FormatKind),
		DataSourceID:   req.DataSourceID,
		ValueColumn:    req.ValueColumn,
		FilterCriteria: req.FilterCriteria,
		IsActive:       true,
	}

	id, err := s.db.CreateMeasure(r.Context(), &m)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	m.ID = id
	respondJSON(w, http.StatusCreated, m)
}

// handleUpdateMeasureWeight changes how strongly a measure skews the
// overall score.
func (s *Server) handleUpdateMeasureWeight(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	var body updateWeightRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid request body")
		return
	}
	if err := validate.Struct(&body); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.db.UpdateMeasureWeight(r.Context(), name, body.Weight); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"name": name, "weight": body.Weight})
}

// handleDeactivateMeasure soft-deletes a measure; generated history is
// untouched.
func (s *Server) handleDeactivateMeasure(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := s.authz.RequireAdmin(r.Context(), identity); err != nil {
		respondDomainError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.db.DeactivateMeasure(r.Context(), name); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deactivated"})
}
