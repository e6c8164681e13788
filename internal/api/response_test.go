// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/reportcard"
)

func TestRespondJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusOK, map[string]int{"value": 42})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success || env.Error != nil {
		t.Fatalf("envelope = %+v, want success without error", env)
	}
}

func TestRespondError_StableCode(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusNotFound, CodeReportCardNotFound, "report card not found")

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success {
		t.Fatal("error envelope must not be success")
	}
	if env.Error == nil || env.Error.Code != CodeReportCardNotFound {
		t.Fatalf("error = %+v, want code %s", env.Error, CodeReportCardNotFound)
	}
}

func TestRespondDomainError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"authz denied", authz.ErrNotAuthorized, http.StatusForbidden, CodePermissionDenied},
		{"nil identity", authz.ErrNilIdentity, http.StatusForbidden, CodePermissionDenied},
		{"report card missing", database.ErrReportCardNotFound, http.StatusNotFound, CodeReportCardNotFound},
		{"measure missing", database.ErrMeasureNotFound, http.StatusNotFound, CodeMeasureNotFound},
		{"measure duplicate", database.ErrMeasureDuplicate, http.StatusConflict, CodeMeasureDuplicate},
		{"insufficient data", reportcard.ErrInsufficientData, http.StatusBadRequest, CodeInsufficientData},
		{"lease held", database.ErrLeaseHeld, http.StatusConflict, CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Fatalf("code = %+v, want %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"weight": 5, "bogus": true}`))
	var body struct {
		Weight int `json:"weight"`
	}
	if err := decodeJSON(req, &body); err == nil {
		t.Fatal("expected unknown-field rejection")
	}
}
