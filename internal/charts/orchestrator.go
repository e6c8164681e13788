// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/insano70/bcos-sub005/internal/audit"
	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/cache"
	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// ErrChartInactive is returned for requests against a deactivated chart
// definition.
var ErrChartInactive = errors.New("chart definition is inactive")

// DefinitionStore resolves persisted chart definitions.
type DefinitionStore interface {
	GetChartDefinition(ctx context.Context, id int) (*models.ChartDefinition, error)
}

// Request is one orchestration request: either a persisted definition by id
// or an inline config, plus per-request runtime filters.
type Request struct {
	ChartDefinitionID int                    `json:"chart_definition_id,omitempty"`
	Config            *models.ChartConfig    `json:"config,omitempty"`
	RuntimeFilters    *models.RuntimeFilters `json:"runtime_filters,omitempty"`
}

// Orchestrator runs the chart pipeline: resolve the config, verify access,
// merge runtime filters, validate, fetch through the scoped query builder,
// transform, enrich, and cache.
type Orchestrator struct {
	registry    *Registry
	definitions DefinitionStore
	fetcher     Fetcher
	authz       *authz.Service
	cache       cache.Cacher
	auditLog    *audit.Logger
	cacheTTL    time.Duration
}

// NewOrchestrator wires the chart pipeline.
func NewOrchestrator(registry *Registry, definitions DefinitionStore, fetcher Fetcher, authzSvc *authz.Service, cacher cache.Cacher, auditLog *audit.Logger, cacheTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		definitions: definitions,
		fetcher:     fetcher,
		authz:       authzSvc,
		cache:       cacher,
		auditLog:    auditLog,
		cacheTTL:    cacheTTL,
	}
}

// Orchestrate runs the full pipeline for one request.
func (o *Orchestrator) Orchestrate(ctx context.Context, identity *models.TenantIdentity, req *Request) (*models.OrchestrationResult, error) {
	scope, err := o.authz.RequireAnalyticsRead(ctx, identity)
	if err != nil {
		return nil, err
	}

	cfg, err := o.resolveConfig(ctx, req)
	if err != nil {
		return nil, err
	}

	mergeRuntimeFilters(cfg, req.RuntimeFilters)

	if o.cache != nil {
		key := o.cacheKey(identity, scope, cfg)
		var cached models.OrchestrationResult
		if cache.GetJSON(o.cache, key, &cached) {
			cached.Metadata.CacheHit = true
			return &cached, nil
		}
	}

	// The data source is verified independently of the definition: a
	// definition pointing at a deactivated source must not serve data.
	rc := NewRequestCache()
	ds, err := rc.DataSource(ctx, o.fetcher, cfg.DataSourceID)
	if err != nil {
		return nil, fmt.Errorf("resolve data source %d: %w", cfg.DataSourceID, err)
	}
	if !ds.IsActive {
		return nil, fmt.Errorf("data source %d is inactive", cfg.DataSourceID)
	}

	handler, err := o.registry.Lookup(cfg)
	if err != nil {
		return nil, err
	}

	if vr := handler.Validate(cfg); !vr.IsValid {
		return nil, fmt.Errorf("invalid chart config: %v", vr.Errors)
	}

	fetchStart := time.Now()
	outcome, err := handler.FetchData(ctx, cfg, scope, rc)
	if err != nil {
		return nil, fmt.Errorf("fetch chart data: %w", err)
	}
	queryTime := time.Since(fetchStart)

	if outcome.FailClosed && o.auditLog != nil {
		o.auditLog.LogFailClosed(ctx, authz.Actor(identity), cfg.DataSourceID,
			fmt.Sprintf("chart %s resolved to an empty practice set", cfg.ChartType))
	}

	chartData, err := handler.Transform(outcome.Rows, cfg)
	if err != nil {
		return nil, fmt.Errorf("transform chart data: %w", err)
	}

	result := &models.OrchestrationResult{
		ChartData: chartData,
		RawRows:   outcome.Rows,
		Metadata: models.OrchestrationMetadata{
			ChartType:    cfg.ChartType,
			DataSourceID: cfg.DataSourceID,
			QueryTimeMS:  queryTime.Milliseconds(),
			RecordCount:  len(outcome.Rows),
			FailClosed:   outcome.FailClosed,
		},
	}

	if enricher, ok := handler.(ResultEnricher); ok {
		if err := enricher.Enrich(ctx, cfg, outcome.Rows, result); err != nil {
			return nil, fmt.Errorf("enrich chart result: %w", err)
		}
	}

	if o.cache != nil && !outcome.FailClosed {
		cache.SetJSONWithTTL(o.cache, o.cacheKey(identity, scope, cfg), result, o.cacheTTL)
	}

	logging.Debug().
		Str("chart_type", string(cfg.ChartType)).
		Int("data_source_id", cfg.DataSourceID).
		Int("rows", len(outcome.Rows)).
		Dur("query_time", queryTime).
		Msg("Chart orchestration complete")

	return result, nil
}

// resolveConfig loads the persisted definition or accepts the inline
// config. Inactive definitions are rejected; the persisted config is
// authoritative over the definition's summary columns.
func (o *Orchestrator) resolveConfig(ctx context.Context, req *Request) (*models.ChartConfig, error) {
	if req.ChartDefinitionID > 0 {
		def, err := o.definitions.GetChartDefinition(ctx, req.ChartDefinitionID)
		if err != nil {
			return nil, err
		}
		if !def.IsActive {
			return nil, ErrChartInactive
		}
		cfg := def.Config
		return &cfg, nil
	}
	if req.Config == nil {
		return nil, errors.New("request requires chart_definition_id or config")
	}
	cfg := *req.Config
	return &cfg, nil
}

// cacheKey scopes cached results by caller identity and resolved row scope
// so cross-tenant reuse is impossible. The data-source id sits in the key
// prefix so a source mutation can invalidate every result it fed.
func (o *Orchestrator) cacheKey(identity *models.TenantIdentity, scope *models.AccessScope, cfg *models.ChartConfig) string {
	return cache.GenerateKey(fmt.Sprintf("chart.orchestrate:ds:%d", cfg.DataSourceID), struct {
		UserID string              `json:"user_id"`
		Scope  *models.AccessScope `json:"scope"`
		Config *models.ChartConfig `json:"config"`
	}{identity.UserID.String(), scope, cfg})
}

// InvalidateDataSource drops every cached orchestration result served from
// the given data source. Called after data-source mutations.
func (o *Orchestrator) InvalidateDataSource(id int) int {
	if o.cache == nil {
		return 0
	}
	return o.cache.DeletePrefix(fmt.Sprintf("chart.orchestrate:ds:%d:", id))
}

// mergeRuntimeFilters overlays per-request filters onto the resolved
// config; runtime values win.
func mergeRuntimeFilters(cfg *models.ChartConfig, rf *models.RuntimeFilters) {
	if rf == nil {
		return
	}
	if rf.StartDate != nil {
		cfg.StartDate = rf.StartDate
	}
	if rf.EndDate != nil {
		cfg.EndDate = rf.EndDate
	}
	if rf.DateRangePreset != "" {
		cfg.DateRangePreset = rf.DateRangePreset
	}
	if rf.PracticeIDs != nil {
		cfg.PracticeIDs = rf.PracticeIDs
	}
	if rf.ProviderIDs != nil {
		cfg.ProviderIDs = rf.ProviderIDs
	}
	if rf.MeasureName != "" {
		cfg.MeasureName = rf.MeasureName
	}
	if rf.Frequency != "" {
		cfg.Frequency = rf.Frequency
	}
}
