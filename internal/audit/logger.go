// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/insano70/bcos-sub005/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool `json:"enabled"`

	// LogLevel filters events by minimum severity.
	LogLevel Severity `json:"log_level"`

	// RetentionDays is how long persisted events are kept.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often retention cleanup runs.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// LogToStdout also mirrors events to the application log.
	LogToStdout bool `json:"log_to_stdout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		LogLevel:        SeverityInfo,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
		LogToStdout:     false,
	}
}

// Logger is the audit logging service. Events are buffered and written by a
// background goroutine so the request path never blocks on the store.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	mu        sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewLogger creates a new audit logger and starts its async writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter drains the event buffer until Close, then flushes what
// remains.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

// writeEvent persists one event, logging store failures without dropping
// the process.
func (l *Logger) writeEvent(event *Event) {
	if l.config.LogToStdout {
		logging.Info().
			Str("audit_event", string(event.Type)).
			Str("severity", string(event.Severity)).
			Str("actor", event.Actor.ID).
			Str("action", event.Action).
			Msg(event.Description)
	}

	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to persist audit event")
	}
}

// Log submits an event. Drops with a warning when the buffer is full rather
// than blocking the caller.
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	config := l.config
	l.mu.RUnlock()

	if !config.Enabled {
		return
	}
	if severityRank(event.Severity) < severityRank(config.LogLevel) {
		return
	}

	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_type", string(event.Type)).Msg("Audit buffer full, event dropped")
	}
}

// Close stops the async writer after flushing buffered events.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// StartCleanupRoutine runs retention cleanup until the context is canceled.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	if l.store == nil || l.config.RetentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(l.config.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)
				removed, err := l.store.Delete(ctx, cutoff)
				if err != nil {
					logging.Error().Err(err).Msg("Audit retention cleanup failed")
					continue
				}
				if removed > 0 {
					logging.Info().Int64("removed", removed).Msg("Audit retention cleanup complete")
				}
			}
		}
	}()
}

// Query proxies to the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l.store == nil {
		return nil, nil
	}
	return l.store.Query(ctx, filter)
}

// generateEventID returns a random 16-byte hex identifier.
func generateEventID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("evt-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// LogFailClosed records a fail-closed sentinel substitution. Severity is
// high: an empty practice set under organization scope is either a
// misconfigured tenant or an attempted cross-tenant read.
func (l *Logger) LogFailClosed(ctx context.Context, actor Actor, dataSourceID int, detail string) {
	l.Log(&Event{
		Type:     EventTypeFailClosed,
		Severity: SeverityHigh,
		Outcome:  OutcomeSuccess,
		Actor:    actor,
		Target: &Target{
			ID:   fmt.Sprintf("%d", dataSourceID),
			Type: "data_source",
		},
		Action:        "fail-closed",
		Description:   "Empty practice scope: sentinel filter substituted, zero rows returned",
		Metadata:      mustJSON(map[string]interface{}{"detail": detail}),
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		RequestID:     logging.RequestIDFromContext(ctx),
	})
}

// LogAuthzDenied records a denied authorization decision.
func (l *Logger) LogAuthzDenied(ctx context.Context, actor Actor, resource, action string) {
	l.Log(&Event{
		Type:     EventTypeAuthzDenied,
		Severity: SeverityWarning,
		Outcome:  OutcomeFailure,
		Actor:    actor,
		Target: &Target{
			ID:   resource,
			Type: "resource",
		},
		Action:        action,
		Description:   "Authorization denied",
		CorrelationID: logging.CorrelationIDFromContext(ctx),
		RequestID:     logging.RequestIDFromContext(ctx),
	})
}

// LogBatchRun records a completed sizing or generation run summary.
func (l *Logger) LogBatchRun(ctx context.Context, eventType EventType, succeeded, failed int, detail string) {
	outcome := OutcomeSuccess
	if failed > 0 {
		outcome = OutcomeFailure
	}
	l.Log(&Event{
		Type:        eventType,
		Severity:    SeverityInfo,
		Outcome:     outcome,
		Actor:       SystemActor(),
		Action:      "batch-run",
		Description: detail,
		Metadata:    mustJSON(map[string]int{"succeeded": succeeded, "failed": failed}),
	})
}

// mustJSON marshals metadata, returning nil on failure rather than
// aborting the audit write.
func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
