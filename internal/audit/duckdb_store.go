// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DuckDBStore implements Store against the analytics warehouse. Events
// live in their own table so compliance queries never touch tenant data.
type DuckDBStore struct {
	conn *sql.DB
}

// NewDuckDBStore creates the store and ensures its schema exists.
func NewDuckDBStore(conn *sql.DB) (*DuckDBStore, error) {
	s := &DuckDBStore{conn: conn}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return s, nil
}

func (s *DuckDBStore) ensureSchema(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id VARCHAR PRIMARY KEY,
			event_time TIMESTAMP NOT NULL,
			event_type VARCHAR NOT NULL,
			severity VARCHAR NOT NULL,
			outcome VARCHAR NOT NULL,
			actor_id VARCHAR NOT NULL,
			actor_type VARCHAR NOT NULL,
			actor_name VARCHAR,
			target_id VARCHAR,
			target_type VARCHAR,
			action VARCHAR NOT NULL,
			description VARCHAR,
			metadata VARCHAR,
			correlation_id VARCHAR,
			request_id VARCHAR
		)`)
	return err
}

// Save persists an audit event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	var targetID, targetType interface{}
	if event.Target != nil {
		targetID = event.Target.ID
		targetType = event.Target.Type
	}

	var metadata interface{}
	if len(event.Metadata) > 0 {
		metadata = string(event.Metadata)
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, event_time, event_type, severity, outcome,
			actor_id, actor_type, actor_name,
			target_id, target_type,
			action, description, metadata, correlation_id, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, string(event.Type), string(event.Severity), string(event.Outcome),
		event.Actor.ID, event.Actor.Type, event.Actor.Name,
		targetID, targetType,
		event.Action, event.Description, metadata, event.CorrelationID, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query retrieves events matching the filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conditions = append(conditions, fmt.Sprintf("event_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.StartTime != nil {
		conditions = append(conditions, "event_time >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "event_time <= ?")
		args = append(args, *filter.EndTime)
	}

	query := "SELECT id, event_time, event_type, severity, outcome, actor_id, actor_type, actor_name, target_id, target_type, action, description, metadata, correlation_id, request_id FROM audit_events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY event_time DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var eventType, severity, outcome string
		var actorName, targetID, targetType, description, metadata, correlationID, requestID sql.NullString

		if err := rows.Scan(
			&e.ID, &e.Timestamp, &eventType, &severity, &outcome,
			&e.Actor.ID, &e.Actor.Type, &actorName,
			&targetID, &targetType,
			&e.Action, &description, &metadata, &correlationID, &requestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		e.Type = EventType(eventType)
		e.Severity = Severity(severity)
		e.Outcome = Outcome(outcome)
		e.Actor.Name = actorName.String
		e.Description = description.String
		e.CorrelationID = correlationID.String
		e.RequestID = requestID.String
		if targetID.Valid {
			e.Target = &Target{ID: targetID.String, Type: targetType.String}
		}
		if metadata.Valid && metadata.String != "" {
			e.Metadata = json.RawMessage(metadata.String)
		}

		// Level filtering happens here rather than in SQL because severity
		// order is not lexicographic.
		if filter.Severity != "" && severityRank(e.Severity) < severityRank(filter.Severity) {
			continue
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Delete removes events older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM audit_events WHERE event_time < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // driver may not report affected rows; deletion still succeeded
	}
	return removed, nil
}
