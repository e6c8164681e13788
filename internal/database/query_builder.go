// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/logging"
	"github.com/insano70/bcos-sub005/internal/models"
)

// AnalyticsRowScan is the row type flowing through the warehouse circuit
// breaker.
type AnalyticsRowScan = models.AnalyticsRow

// AnalyticsQuery is a structured analytics fetch request. Handlers build one
// per series; the builder turns it into a parameterized statement with the
// caller's row-level scope applied.
type AnalyticsQuery struct {
	DataSource *models.DataSource
	Columns    models.ResolvedColumns
	Config     *models.ChartConfig
	Scope      *models.AccessScope

	// SeriesID tags every returned row (period comparison, dual axis).
	SeriesID string

	// StartDate/EndDate override the config's window when set. The
	// period-comparison fetch shifts the window here without cloning the
	// whole config.
	StartDate *time.Time
	EndDate   *time.Time
}

// AnalyticsResult carries the fetched rows plus the fail-closed flag the
// orchestrator turns into a high-severity audit event.
type AnalyticsResult struct {
	Rows       []models.AnalyticsRow
	FailClosed bool
}

// practiceFilter is the resolved practice predicate for one query.
type practiceFilter struct {
	// ids is the IN-list; nil means no practice predicate at all.
	ids []int

	// failClosed records that the sentinel was substituted.
	failClosed bool
}

// resolvePracticeFilter intersects the requested practice list with the
// caller's scope. Every path that cannot prove access yields the sentinel,
// never an unfiltered query:
//
//   - an explicit empty practice list in the request is a contract violation
//     and fails closed regardless of scope;
//   - ScopeOrganization with no reachable practices fails closed;
//   - requested practices outside the scope are dropped, and if nothing
//     survives the intersection the query fails closed;
//   - ScopeNone always fails closed.
func resolvePracticeFilter(cfg *models.ChartConfig, scope *models.AccessScope) practiceFilter {
	requested := cfg.PracticeIDs
	explicitEmpty := requested != nil && len(requested) == 0

	if explicitEmpty {
		return practiceFilter{ids: []int{models.SentinelPracticeID}, failClosed: true}
	}

	switch scope.Scope {
	case models.ScopeAll:
		if len(requested) > 0 {
			return practiceFilter{ids: requested}
		}
		return practiceFilter{}

	case models.ScopeOrganization:
		if len(scope.PracticeIDs) == 0 {
			return practiceFilter{ids: []int{models.SentinelPracticeID}, failClosed: true}
		}
		if len(requested) == 0 {
			return practiceFilter{ids: scope.PracticeIDs}
		}
		allowed := make(map[int]bool, len(scope.PracticeIDs))
		for _, id := range scope.PracticeIDs {
			allowed[id] = true
		}
		var intersection []int
		for _, id := range requested {
			if allowed[id] {
				intersection = append(intersection, id)
			}
		}
		if len(intersection) == 0 {
			return practiceFilter{ids: []int{models.SentinelPracticeID}, failClosed: true}
		}
		return practiceFilter{ids: intersection}

	case models.ScopeOwn:
		// Row filtering for own-scope happens on the provider column; an
		// additional requested practice list narrows further.
		if len(requested) > 0 {
			return practiceFilter{ids: requested}
		}
		return practiceFilter{}

	default:
		return practiceFilter{ids: []int{models.SentinelPracticeID}, failClosed: true}
	}
}

// BuildAnalyticsSQL renders the query. Returned args line up with the ?
// placeholders; failClosed reports sentinel substitution for auditing.
func BuildAnalyticsSQL(q *AnalyticsQuery) (string, []interface{}, bool, error) {
	if q.Config == nil || q.Scope == nil {
		return "", nil, false, fmt.Errorf("analytics query requires config and scope")
	}

	cols := q.Columns
	table, err := qualifiedTable(q.DataSource)
	if err != nil {
		return "", nil, false, err
	}

	practiceCol, err := quoteIdent(cols.Practice)
	if err != nil {
		return "", nil, false, err
	}
	providerCol, err := quoteIdent(cols.Provider)
	if err != nil {
		return "", nil, false, err
	}
	dateCol, err := quoteIdent(cols.Date)
	if err != nil {
		return "", nil, false, err
	}
	measureCol, err := quoteIdent(cols.Measure)
	if err != nil {
		return "", nil, false, err
	}

	groupExpr := "''"
	if q.Config.GroupBy != "" {
		groupCol, err := resolveGroupColumn(q)
		if err != nil {
			return "", nil, false, err
		}
		groupExpr = fmt.Sprintf("COALESCE(CAST(%s AS VARCHAR), '')", groupCol)
	}

	var sb strings.Builder
	var args []interface{}

	fmt.Fprintf(&sb,
		"SELECT %s, COALESCE(CAST(%s AS VARCHAR), ''), %s, %s, %s FROM %s WHERE 1=1",
		practiceCol, providerCol, dateCol, measureCol, groupExpr, table)

	if q.Config.MeasureName != "" {
		sb.WriteString(` AND "measure_name" = ?`)
		args = append(args, q.Config.MeasureName)
	}

	start, end := q.window()
	if start != nil {
		fmt.Fprintf(&sb, " AND %s >= ?", dateCol)
		args = append(args, *start)
	}
	if end != nil {
		fmt.Fprintf(&sb, " AND %s <= ?", dateCol)
		args = append(args, *end)
	}

	filter := resolvePracticeFilter(q.Config, q.Scope)
	if filter.ids != nil {
		placeholders, inArgs := buildInClauseInts(filter.ids)
		fmt.Fprintf(&sb, " AND %s IN (%s)", practiceCol, placeholders)
		args = append(args, inArgs...)
	}

	if q.Scope.Scope == models.ScopeOwn {
		if q.Scope.ProviderID == "" {
			// Own scope without a provider binding sees nothing.
			fmt.Fprintf(&sb, " AND %s IN (?)", practiceCol)
			args = append(args, models.SentinelPracticeID)
			filter.failClosed = true
		} else {
			fmt.Fprintf(&sb, " AND %s = ?", providerCol)
			args = append(args, q.Scope.ProviderID)
		}
	} else if len(q.Config.ProviderIDs) > 0 {
		placeholders, inArgs := buildInClauseStrings(q.Config.ProviderIDs)
		fmt.Fprintf(&sb, " AND %s IN (%s)", providerCol, placeholders)
		args = append(args, inArgs...)
	}

	if len(q.Config.AdvancedFilters) > 0 {
		clauses, filterArgs, err := buildAdvancedFilters(q.DataSource, q.Config.AdvancedFilters)
		if err != nil {
			return "", nil, false, err
		}
		sb.WriteString(clauses)
		args = append(args, filterArgs...)
	}

	fmt.Fprintf(&sb, " ORDER BY %s, %s", dateCol, practiceCol)
	return sb.String(), args, filter.failClosed, nil
}

// window picks the effective date range: explicit overrides win over the
// config's own window.
func (q *AnalyticsQuery) window() (*time.Time, *time.Time) {
	start := q.Config.StartDate
	end := q.Config.EndDate
	if q.StartDate != nil {
		start = q.StartDate
	}
	if q.EndDate != nil {
		end = q.EndDate
	}
	return start, end
}

// resolveGroupColumn validates the group-by target. "provider" is a logical
// alias for the resolved provider role; anything else must be a displayable
// catalog column.
func resolveGroupColumn(q *AnalyticsQuery) (string, error) {
	if q.Config.GroupBy == "provider" {
		return quoteIdent(q.Columns.Provider)
	}
	if q.DataSource != nil {
		for _, col := range q.DataSource.Columns {
			if col.ColumnName == q.Config.GroupBy && col.IsDisplayable {
				return quoteIdent(col.ColumnName)
			}
		}
		return "", fmt.Errorf("group_by column %q is not a displayable column of data source %d",
			q.Config.GroupBy, q.DataSource.ID)
	}
	return quoteIdent(q.Config.GroupBy)
}

// buildAdvancedFilters renders equality predicates for filterable catalog
// columns. Filters on columns not flagged filterable are rejected, not
// skipped: dropping a predicate silently would widen the result set.
func buildAdvancedFilters(ds *models.DataSource, filters map[string]string) (string, []interface{}, error) {
	filterable := make(map[string]bool)
	if ds != nil {
		for _, col := range ds.Columns {
			if col.IsFilterable {
				filterable[col.ColumnName] = true
			}
		}
	}

	// Deterministic clause order keeps generated SQL stable for cache keys
	// and tests.
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	var args []interface{}
	for _, name := range names {
		if !filterable[name] {
			return "", nil, fmt.Errorf("column %q is not filterable", name)
		}
		col, err := quoteIdent(name)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&sb, " AND %s = ?", col)
		args = append(args, filters[name])
	}
	return sb.String(), args, nil
}

// ExecuteAnalyticsQuery builds and runs the statement through the warehouse
// breaker, returning typed rows plus the fail-closed flag.
func (db *DB) ExecuteAnalyticsQuery(ctx context.Context, q *AnalyticsQuery) (*AnalyticsResult, error) {
	query, args, failClosed, err := BuildAnalyticsSQL(q)
	if err != nil {
		return nil, err
	}

	if failClosed {
		logging.Warn().
			Str("scope", string(q.Scope.Scope)).
			Int("data_source_id", q.Config.DataSourceID).
			Msg("Analytics query failed closed to sentinel practice filter")
	}

	rows, err := db.breaker.Execute(func() ([]AnalyticsRowScan, error) {
		return db.scanAnalyticsRows(ctx, query, args, q.SeriesID)
	})
	if err != nil {
		return nil, fmt.Errorf("execute analytics query: %w", err)
	}
	return &AnalyticsResult{Rows: rows, FailClosed: failClosed}, nil
}

func (db *DB) scanAnalyticsRows(ctx context.Context, query string, args []interface{}, seriesID string) ([]AnalyticsRowScan, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AnalyticsRowScan
	for rows.Next() {
		var r models.AnalyticsRow
		if err := rows.Scan(&r.PracticeID, &r.ProviderID, &r.Date, &r.MeasureValue, &r.GroupValue); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		r.SeriesID = seriesID
		result = append(result, r)
	}
	return result, rows.Err()
}

// qualifiedTable quotes schema.table from a descriptor; a nil descriptor is
// a programming error on the fetch path.
func qualifiedTable(ds *models.DataSource) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("analytics query requires a data source descriptor")
	}
	schema := ds.SchemaName
	if schema == "" {
		schema = "main"
	}
	qs, err := quoteIdent(schema)
	if err != nil {
		return "", err
	}
	qt, err := quoteIdent(ds.TableName)
	if err != nil {
		return "", err
	}
	return qs + "." + qt, nil
}

// quoteIdent double-quotes an identifier, rejecting embedded quotes so
// catalog rows can never smuggle SQL into a statement.
func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty identifier")
	}
	if strings.ContainsAny(name, `"';`) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

func buildInClauseInts(ids []int) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func buildInClauseStrings(ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
