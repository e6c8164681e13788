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
	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/models"
)

// orgIDParam parses the organization id path parameter.
func orgIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "orgID"))
	return id, err == nil
}

// monthParam parses an optional ?month=YYYY-MM-01 query parameter.
func monthParam(r *http.Request) (time.Time, bool, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return time.Time{}, false, nil
	}
	month, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return models.FirstOfMonth(month), true, nil
}

// limitParam parses an optional ?limit= parameter with a default.
func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// handleReportCardForOrg returns the latest report card, or the card for
// ?month= when given.
func (s *Server) handleReportCardForOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}
	identity := IdentityFromContext(r.Context())

	month, hasMonth, err := monthParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "month must be YYYY-MM-01")
		return
	}

	if hasMonth {
		card, err := s.reportCards.GetByOrganizationAndMonth(r.Context(), identity, orgID, month)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, card)
		return
	}

	card, err := s.reportCards.GetByOrganization(r.Context(), identity, orgID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// handleAvailableMonths lists months with generated report cards, newest
// first.
func (s *Server) handleAvailableMonths(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	months, err := s.reportCards.AvailableMonths(r.Context(), IdentityFromContext(r.Context()), orgID, limitParam(r, 24))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	formatted := make([]string, len(months))
	for i, m := range months {
		formatted[i] = m.Format("2006-01-02")
	}
	respondJSON(w, http.StatusOK, formatted)
}

// handlePreviousMonthSummary returns the month-over-month summary relative
// to ?month= (default: the current report-card month). A missing prior
// month is a null payload, not an error.
func (s *Server) handlePreviousMonthSummary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
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

	summary, err := s.reportCards.PreviousMonthSummary(r.Context(), IdentityFromContext(r.Context()), orgID, month)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// handleGradeHistory returns per-month score and grade changes, newest
// first.
func (s *Server) handleGradeHistory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	history, err := s.reportCards.GradeHistory(r.Context(), IdentityFromContext(r.Context()), orgID, limitParam(r, 12))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// handleTrendsForOrg returns all trend rows for the organization's
// practices, flattened.
func (s *Server) handleTrendsForOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	rows, err := s.reportCards.TrendsByOrganization(r.Context(), IdentityFromContext(r.Context()), orgID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// handleAnnualReview returns the year-in-review rollup with forecast.
func (s *Server) handleAnnualReview(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgIDParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "invalid organization id")
		return
	}

	review, err := s.reportCards.AnnualReview(r.Context(), IdentityFromContext(r.Context()), orgID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// handlePeerComparison returns per-measure distribution statistics for a
// size bucket (?bucket=, default the caller's unrestricted view of small).
func (s *Server) handlePeerComparison(w http.ResponseWriter, r *http.Request) {
	bucket := models.SizeBucket(r.URL.Query().Get("bucket"))
	if bucket == "" {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "bucket is required")
		return
	}
	valid := false
	for _, b := range models.SizeBuckets {
		if b == bucket {
			valid = true
			break
		}
	}
	if !valid {
		respondError(w, http.StatusBadRequest, CodeValidationFailed, "unknown size bucket")
		return
	}

	comparison, err := s.reportCards.PeerComparison(r.Context(), IdentityFromContext(r.Context()), bucket)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, comparison)
}
