// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"errors"
	"net/http"

	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/charts"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/reportcard"
)

// Stable error codes exposed to API consumers. Clients branch on these, so
// they are part of the contract and never change meaning.
const (
	CodeReportCardNotFound = "REPORT_CARD_NOT_FOUND"
	CodeMeasureNotFound    = "MEASURE_NOT_FOUND"
	CodeMeasureDuplicate   = "MEASURE_DUPLICATE"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeStatisticsFailed   = "STATISTICS_COLLECTION_FAILED"
	CodeTrendFailed        = "TREND_ANALYSIS_FAILED"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// respondDomainError maps domain errors to stable codes and HTTP statuses.
// Unmapped errors become a generic 500; the detail goes to the log, not the
// client.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrNotAuthorized), errors.Is(err, authz.ErrNilIdentity):
		respondError(w, http.StatusForbidden, CodePermissionDenied, "permission denied")
	case errors.Is(err, database.ErrReportCardNotFound):
		respondError(w, http.StatusNotFound, CodeReportCardNotFound, "report card not found")
	case errors.Is(err, database.ErrMeasureNotFound):
		respondError(w, http.StatusNotFound, CodeMeasureNotFound, "measure not found")
	case errors.Is(err, database.ErrMeasureDuplicate):
		respondError(w, http.StatusConflict, CodeMeasureDuplicate, "measure name already exists")
	case errors.Is(err, database.ErrDataSourceNotFound),
		errors.Is(err, database.ErrChartDefinitionNotFound),
		errors.Is(err, database.ErrOrganizationNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, reportcard.ErrInsufficientData), errors.Is(err, reportcard.ErrNoActiveMeasures):
		respondError(w, http.StatusBadRequest, CodeInsufficientData, "insufficient data")
	case errors.Is(err, charts.ErrChartInactive):
		respondError(w, http.StatusNotFound, CodeNotFound, "chart definition is inactive")
	case errors.Is(err, database.ErrLeaseHeld):
		respondError(w, http.StatusConflict, CodeConflict, "batch run already in progress")
	default:
		logging.Error().Err(err).Msg("Unhandled API error")
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
