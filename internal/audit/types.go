// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package audit provides security audit logging for the analytics core.
// It records authorization decisions, fail-closed sentinel engagements, and
// administrative changes for compliance and forensic analysis.
package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	// Authorization events
	EventTypeAuthzGranted EventType = "authz.granted"
	EventTypeAuthzDenied  EventType = "authz.denied"

	// EventTypeFailClosed records a fail-closed sentinel substitution: an
	// organization-scoped caller resolved to an empty practice set and the
	// impossible practice filter was forced into the query.
	EventTypeFailClosed EventType = "authz.fail_closed"

	// Data access events
	EventTypeChartAccess      EventType = "data.chart_access"
	EventTypeReportCardAccess EventType = "data.report_card_access"

	// Batch run events
	EventTypeSizingRun     EventType = "batch.sizing_run"
	EventTypeTrendRun      EventType = "batch.trend_run"
	EventTypeGenerationRun EventType = "batch.generation_run"

	// Administrative events
	EventTypeMeasureCreated EventType = "admin.measure_created"
	EventTypeConfigChanged  EventType = "admin.config_changed"
)

// Severity indicates the severity level of an audit event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for level filtering.
func severityRank(s Severity) int {
	switch s {
	case SeverityDebug:
		return 0
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 1
	}
}

// Outcome indicates whether an action succeeded or failed.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor identifies who performed an action.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"` // user, service, system
	Name string `json:"name,omitempty"`
}

// SystemActor returns the actor used for batch runs and internal sweeps.
func SystemActor() Actor {
	return Actor{ID: "system", Type: "system", Name: "analytics"}
}

// Target identifies the object of an action.
type Target struct {
	ID   string `json:"id"`
	Type string `json:"type"` // data_source, report_card, measure, chart_definition
	Name string `json:"name,omitempty"`
}

// Event is one security audit record.
type Event struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          EventType       `json:"type"`
	Severity      Severity        `json:"severity"`
	Outcome       Outcome         `json:"outcome"`
	Actor         Actor           `json:"actor"`
	Target        *Target         `json:"target,omitempty"`
	Action        string          `json:"action"`
	Description   string          `json:"description"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
}

// QueryFilter selects audit events.
type QueryFilter struct {
	Types     []EventType `json:"types,omitempty"`
	Severity  Severity    `json:"severity,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Limit     int         `json:"limit,omitempty"`
}

// Store is implemented by audit event persistence backends.
type Store interface {
	// Save persists an audit event.
	Save(ctx context.Context, event *Event) error

	// Query retrieves events matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Delete removes events older than the given time, returning the
	// number removed. Used by retention cleanup.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}
