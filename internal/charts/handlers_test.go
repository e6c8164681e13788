// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/models"
)

// fakeFetcher serves canned rows and records the queries it saw.
type fakeFetcher struct {
	mu         sync.Mutex
	source     *models.DataSource
	rows       []models.AnalyticsRow
	failClosed bool
	colors     map[string]string
	colorErr   error
	queries    []*database.AnalyticsQuery

	// rowsByMeasure overrides rows per measure name when set.
	rowsByMeasure map[string][]models.AnalyticsRow
}

func (f *fakeFetcher) GetDataSource(ctx context.Context, id int) (*models.DataSource, error) {
	if f.source != nil {
		return f.source, nil
	}
	return &models.DataSource{ID: id, TableName: "agg_app_measures", IsActive: true}, nil
}

func (f *fakeFetcher) ExecuteAnalyticsQuery(ctx context.Context, q *database.AnalyticsQuery) (*database.AnalyticsResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	rows := f.rows
	if f.rowsByMeasure != nil {
		rows = f.rowsByMeasure[q.Config.MeasureName]
	}
	tagged := make([]models.AnalyticsRow, len(rows))
	for i, r := range rows {
		r.SeriesID = q.SeriesID
		tagged[i] = r
	}
	return &database.AnalyticsResult{Rows: tagged, FailClosed: f.failClosed}, nil
}

func (f *fakeFetcher) GetProviderColors(ctx context.Context, providerIDs []string) (map[string]string, error) {
	if f.colorErr != nil {
		return nil, f.colorErr
	}
	return f.colors, nil
}

func validConfig(kind models.ChartKind) *models.ChartConfig {
	return &models.ChartConfig{ChartType: kind, DataSourceID: 1, MeasureName: "charges"}
}

func unrestrictedScope() *models.AccessScope {
	return &models.AccessScope{Scope: models.ScopeAll}
}

func TestHandlerValidation(t *testing.T) {
	fetcher := &fakeFetcher{}
	tests := []struct {
		name    string
		handler Handler
		cfg     *models.ChartConfig
		valid   bool
	}{
		{"line ok", NewTimeSeriesHandler(fetcher), validConfig(models.ChartLine), true},
		{"line missing measure", NewTimeSeriesHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartLine, DataSourceID: 1}, false},
		{"line multi series without measure", NewTimeSeriesHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartLine, DataSourceID: 1,
				MultipleSeries: []models.SeriesConfig{{MeasureName: "charges"}}}, true},
		{"line multi series plus comparison", NewTimeSeriesHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartLine, DataSourceID: 1,
				MultipleSeries:   []models.SeriesConfig{{MeasureName: "charges"}},
				PeriodComparison: &models.PeriodComparisonConfig{Enabled: true}}, false},
		{"line series missing measure name", NewTimeSeriesHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartLine, DataSourceID: 1,
				MultipleSeries: []models.SeriesConfig{{Label: "x"}}}, false},
		{"missing data source", NewTimeSeriesHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartLine, MeasureName: "charges"}, false},

		{"bar ok", NewBarHandler(fetcher), validConfig(models.ChartBar), true},
		{"stacking on plain bar", NewBarHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartBar, DataSourceID: 1,
				MeasureName: "charges", StackingMode: models.StackingNormal}, false},
		{"stacked bar percentage", NewBarHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartStackedBar, DataSourceID: 1,
				MeasureName: "charges", StackingMode: models.StackingPercentage}, true},
		{"stacked bar bad mode", NewBarHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartStackedBar, DataSourceID: 1,
				MeasureName: "charges", StackingMode: "inverted"}, false},

		{"pie needs group_by", NewDistributionHandler(fetcher), validConfig(models.ChartPie), false},
		{"pie ok", NewDistributionHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartPie, DataSourceID: 1,
				MeasureName: "charges", GroupBy: "provider_uid"}, true},
		{"doughnut rejects comparison", NewDistributionHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDoughnut, DataSourceID: 1,
				MeasureName: "charges", GroupBy: "provider_uid",
				PeriodComparison: &models.PeriodComparisonConfig{Enabled: true}}, false},

		{"metric ok", NewMetricHandler(fetcher), validConfig(models.ChartMetric), true},
		{"metric bad aggregation", NewMetricHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartMetric, DataSourceID: 1,
				MeasureName: "charges", Aggregation: "median"}, false},
		{"metric rejects group_by", NewMetricHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartMetric, DataSourceID: 1,
				MeasureName: "charges", GroupBy: "provider_uid"}, false},

		{"progress bar without group_by ok", NewProgressBarHandler(fetcher), validConfig(models.ChartProgressBar), true},
		{"progress bar ok", NewProgressBarHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartProgressBar, DataSourceID: 1,
				MeasureName: "charges", GroupBy: "provider_uid"}, true},

		{"table ok", NewTableHandler(fetcher), validConfig(models.ChartTable), true},
		{"table rejects aggregation", NewTableHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartTable, DataSourceID: 1,
				MeasureName: "charges", Aggregation: models.AggregationSum}, false},
		{"table rejects group_by", NewTableHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartTable, DataSourceID: 1,
				MeasureName: "charges", GroupBy: "provider_uid"}, false},

		{"dual axis needs config", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1}, false},
		{"dual axis ok", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1,
				DualAxis: &models.DualAxisConfig{
					Primary:   models.DualAxisSeries{MeasureName: "charges", ChartKind: models.ChartBar},
					Secondary: models.DualAxisSeries{MeasureName: "payments", ChartKind: models.ChartLine},
				}}, true},
		{"dual axis primary must be bar", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1,
				DualAxis: &models.DualAxisConfig{
					Primary:   models.DualAxisSeries{MeasureName: "charges", ChartKind: models.ChartLine},
					Secondary: models.DualAxisSeries{MeasureName: "payments"},
				}}, false},
		{"dual axis secondary pie rejected", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1,
				DualAxis: &models.DualAxisConfig{
					Primary:   models.DualAxisSeries{MeasureName: "charges"},
					Secondary: models.DualAxisSeries{MeasureName: "payments", ChartKind: models.ChartPie},
				}}, false},
		{"dual axis rejects multiple series", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1,
				MultipleSeries: []models.SeriesConfig{{MeasureName: "visits"}},
				DualAxis: &models.DualAxisConfig{
					Primary:   models.DualAxisSeries{MeasureName: "charges"},
					Secondary: models.DualAxisSeries{MeasureName: "payments"},
				}}, false},
		{"dual axis rejects comparison", NewDualAxisHandler(fetcher),
			&models.ChartConfig{ChartType: models.ChartDualAxis, DataSourceID: 1,
				PeriodComparison: &models.PeriodComparisonConfig{Enabled: true},
				DualAxis: &models.DualAxisConfig{
					Primary:   models.DualAxisSeries{MeasureName: "charges"},
					Secondary: models.DualAxisSeries{MeasureName: "payments"},
				}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vr := tt.handler.Validate(tt.cfg)
			if vr.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", vr.IsValid, tt.valid, vr.Errors)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	rows := []models.AnalyticsRow{
		{MeasureValue: 10}, {MeasureValue: 30}, {MeasureValue: 20},
	}
	tests := []struct {
		kind models.AggregationKind
		want float64
	}{
		{models.AggregationSum, 60},
		{"", 60},
		{models.AggregationAvg, 20},
		{models.AggregationCount, 3},
		{models.AggregationMin, 10},
		{models.AggregationMax, 30},
	}
	for _, tt := range tests {
		if got := Aggregate(rows, tt.kind); got != tt.want {
			t.Errorf("Aggregate(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if got := Aggregate(nil, models.AggregationMin); got != 0 {
		t.Errorf("Aggregate(empty, min) = %v, want 0", got)
	}
}

func TestMetricHandler_Transform(t *testing.T) {
	h := NewMetricHandler(&fakeFetcher{})
	cfg := validConfig(models.ChartMetric)
	cfg.Aggregation = models.AggregationAvg

	data, err := h.Transform([]models.AnalyticsRow{{MeasureValue: 4}, {MeasureValue: 8}}, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if data.Value == nil || *data.Value != 6 {
		t.Fatalf("value = %v, want 6", data.Value)
	}
}

func TestProgressBarHandler_Transform(t *testing.T) {
	h := NewProgressBarHandler(&fakeFetcher{})
	cfg := validConfig(models.ChartProgressBar)
	cfg.GroupBy = "provider_uid"

	rows := []models.AnalyticsRow{
		{GroupValue: "A", MeasureValue: 25},
		{GroupValue: "B", MeasureValue: 75},
	}
	data, err := h.Transform(rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !reflect.DeepEqual(data.Labels, []string{"B", "A"}) {
		t.Errorf("labels = %v, want largest first", data.Labels)
	}
	ds := data.Datasets[0]
	if ds.Target != 100 {
		t.Errorf("target = %v, want 100", ds.Target)
	}
	if !reflect.DeepEqual(ds.Data, []float64{75, 25}) {
		t.Errorf("data = %v", ds.Data)
	}
	if !reflect.DeepEqual(ds.Percentages, []float64{75, 25}) {
		t.Errorf("percentages = %v", ds.Percentages)
	}
}

func TestProgressBarHandler_TransformTotalBucket(t *testing.T) {
	h := NewProgressBarHandler(&fakeFetcher{})
	cfg := validConfig(models.ChartProgressBar)

	// No grouping field: every row folds into one "Total" bar at 100%.
	rows := []models.AnalyticsRow{
		{MeasureValue: 40},
		{MeasureValue: 60},
	}
	data, err := h.Transform(rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !reflect.DeepEqual(data.Labels, []string{"Total"}) {
		t.Fatalf("labels = %v, want single Total bucket", data.Labels)
	}
	ds := data.Datasets[0]
	if !reflect.DeepEqual(ds.Data, []float64{100}) || ds.Target != 100 {
		t.Errorf("data = %v target = %v, want summed total", ds.Data, ds.Target)
	}
	if !reflect.DeepEqual(ds.Percentages, []float64{100}) {
		t.Errorf("percentages = %v, want 100", ds.Percentages)
	}
}

func TestDistributionHandler_Transform(t *testing.T) {
	h := NewDistributionHandler(&fakeFetcher{})
	cfg := validConfig(models.ChartDoughnut)
	cfg.GroupBy = "practice_uid"

	rows := []models.AnalyticsRow{
		{GroupValue: "North", MeasureValue: 3},
		{GroupValue: "South", MeasureValue: 7},
		{GroupValue: "North", MeasureValue: 2},
	}
	data, err := h.Transform(rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !reflect.DeepEqual(data.Labels, []string{"North", "South"}) {
		t.Errorf("labels = %v", data.Labels)
	}
	if !reflect.DeepEqual(data.Datasets[0].Data, []float64{5, 7}) {
		t.Errorf("data = %v", data.Datasets[0].Data)
	}
	if data.Datasets[0].Kind != models.ChartDoughnut {
		t.Errorf("kind = %q", data.Datasets[0].Kind)
	}
}

func TestTimeSeriesHandler_AreaSetsFill(t *testing.T) {
	h := NewTimeSeriesHandler(&fakeFetcher{})
	cfg := validConfig(models.ChartArea)

	data, err := h.Transform([]models.AnalyticsRow{{Date: month(2026, time.March), MeasureValue: 1}}, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	ds := data.Datasets[0]
	if !ds.Fill || ds.Kind != models.ChartLine {
		t.Errorf("area dataset = fill %v kind %q, want filled line", ds.Fill, ds.Kind)
	}
}

func TestBarHandler_TransformStackedPercentage(t *testing.T) {
	h := NewBarHandler(&fakeFetcher{})
	cfg := &models.ChartConfig{
		ChartType:    models.ChartStackedBar,
		DataSourceID: 1,
		MeasureName:  "charges",
		GroupBy:      "provider_uid",
		StackingMode: models.StackingPercentage,
	}

	jan := month(2026, time.January)
	rows := []models.AnalyticsRow{
		{Date: jan, GroupValue: "A", MeasureValue: 30},
		{Date: jan, GroupValue: "B", MeasureValue: 70},
	}
	data, err := h.Transform(rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(data.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(data.Datasets))
	}
	for _, ds := range data.Datasets {
		if ds.Stack != "stack-0" {
			t.Errorf("dataset %q stack = %q", ds.Label, ds.Stack)
		}
	}
	if !reflect.DeepEqual(data.Datasets[0].Percentages, []float64{30}) {
		t.Errorf("A percentages = %v", data.Datasets[0].Percentages)
	}
	if !reflect.DeepEqual(data.Datasets[1].Percentages, []float64{70}) {
		t.Errorf("B percentages = %v", data.Datasets[1].Percentages)
	}
}

func TestBarHandler_ProviderColors(t *testing.T) {
	fetcher := &fakeFetcher{
		rows: []models.AnalyticsRow{
			{Date: month(2026, time.January), ProviderID: "prov-1", GroupValue: "prov-1", MeasureValue: 10},
			{Date: month(2026, time.January), ProviderID: "prov-2", GroupValue: "prov-2", MeasureValue: 20},
		},
		colors: map[string]string{"prov-1": "#AA0000"},
	}
	h := NewBarHandler(fetcher)
	cfg := validConfig(models.ChartBar)
	cfg.GroupBy = "provider_uid"

	outcome, err := h.FetchData(context.Background(), cfg, unrestrictedScope(), NewRequestCache())
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	data, err := h.Transform(outcome.Rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	byLabel := map[string]models.ChartDataset{}
	for _, ds := range data.Datasets {
		byLabel[ds.Label] = ds
	}
	if byLabel["prov-1"].Color != "#AA0000" {
		t.Errorf("prov-1 color = %q, want configured color", byLabel["prov-1"].Color)
	}
	if byLabel["prov-2"].Color == "" {
		t.Error("prov-2 should fall back to palette")
	}
}

func TestBarHandler_ColorLookupFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{
		rows: []models.AnalyticsRow{
			{Date: month(2026, time.January), ProviderID: "prov-1", MeasureValue: 10},
		},
		colorErr: errors.New("color table offline"),
	}
	h := NewBarHandler(fetcher)

	outcome, err := h.FetchData(context.Background(), validConfig(models.ChartBar), unrestrictedScope(), NewRequestCache())
	if err != nil {
		t.Fatalf("FetchData should degrade, got %v", err)
	}
	if outcome.Rows[0].SeriesColor != "" {
		t.Errorf("SeriesColor = %q, want unset on lookup failure", outcome.Rows[0].SeriesColor)
	}
}

func TestDualAxisHandler_FetchAndTransform(t *testing.T) {
	jan := month(2026, time.January)
	feb := month(2026, time.February)
	fetcher := &fakeFetcher{
		rowsByMeasure: map[string][]models.AnalyticsRow{
			"charges":  {{Date: jan, MeasureValue: 100}, {Date: feb, MeasureValue: 120}},
			"payments": {{Date: jan, MeasureValue: 60}, {Date: feb, MeasureValue: 80}},
		},
	}
	h := NewDualAxisHandler(fetcher)
	cfg := &models.ChartConfig{
		ChartType:    models.ChartDualAxis,
		DataSourceID: 1,
		DualAxis: &models.DualAxisConfig{
			Primary:   models.DualAxisSeries{MeasureName: "charges"},
			Secondary: models.DualAxisSeries{MeasureName: "payments"},
		},
	}

	outcome, err := h.FetchData(context.Background(), cfg, unrestrictedScope(), NewRequestCache())
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if len(outcome.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(outcome.Rows))
	}

	data, err := h.Transform(outcome.Rows, cfg)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(data.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(data.Datasets))
	}
	primary, secondary := data.Datasets[0], data.Datasets[1]
	if primary.YAxisID != "left" || primary.Kind != models.ChartBar {
		t.Errorf("primary = axis %q kind %q", primary.YAxisID, primary.Kind)
	}
	if secondary.YAxisID != "right" || secondary.Kind != models.ChartLine {
		t.Errorf("secondary = axis %q kind %q, want right line default", secondary.YAxisID, secondary.Kind)
	}
	if !reflect.DeepEqual(primary.Data, []float64{100, 120}) {
		t.Errorf("primary data = %v", primary.Data)
	}
	if !reflect.DeepEqual(secondary.Data, []float64{60, 80}) {
		t.Errorf("secondary data = %v", secondary.Data)
	}
}

func TestFetchPeriodComparison_ShiftsWindow(t *testing.T) {
	start := month(2026, time.January)
	end := month(2026, time.March)
	fetcher := &fakeFetcher{rows: []models.AnalyticsRow{{Date: start, MeasureValue: 1}}}
	h := NewTimeSeriesHandler(fetcher)
	cfg := &models.ChartConfig{
		ChartType:        models.ChartLine,
		DataSourceID:     1,
		MeasureName:      "charges",
		StartDate:        &start,
		EndDate:          &end,
		PeriodComparison: &models.PeriodComparisonConfig{Enabled: true},
	}

	if _, err := h.FetchData(context.Background(), cfg, unrestrictedScope(), NewRequestCache()); err != nil {
		t.Fatalf("FetchData: %v", err)
	}

	if len(fetcher.queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(fetcher.queries))
	}
	comparison := fetcher.queries[1]
	if comparison.SeriesID != models.SeriesComparison {
		t.Errorf("second query series = %q", comparison.SeriesID)
	}
	wantStart := start.AddDate(0, -12, 0)
	if comparison.StartDate == nil || !comparison.StartDate.Equal(wantStart) {
		t.Errorf("comparison start = %v, want %v", comparison.StartDate, wantStart)
	}
}

func TestFetchMultipleSeries_TagsAndCombines(t *testing.T) {
	fetcher := &fakeFetcher{
		rowsByMeasure: map[string][]models.AnalyticsRow{
			"charges":  {{Date: month(2026, time.January), MeasureValue: 1}},
			"payments": {{Date: month(2026, time.January), MeasureValue: 2}},
		},
	}
	h := NewTimeSeriesHandler(fetcher)
	cfg := &models.ChartConfig{
		ChartType:    models.ChartLine,
		DataSourceID: 1,
		MultipleSeries: []models.SeriesConfig{
			{MeasureName: "charges"}, {MeasureName: "payments"},
		},
	}

	outcome, err := h.FetchData(context.Background(), cfg, unrestrictedScope(), NewRequestCache())
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if len(outcome.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(outcome.Rows))
	}
	tags := map[string]bool{}
	for _, r := range outcome.Rows {
		tags[r.SeriesID] = true
	}
	if !tags["charges"] || !tags["payments"] {
		t.Errorf("series tags = %v", tags)
	}
}

func TestTableHandler_Enrich(t *testing.T) {
	fetcher := &fakeFetcher{
		source: &models.DataSource{
			ID:       1,
			IsActive: true,
			Columns: []models.ColumnDefinition{
				{ColumnName: "practice_uid", DisplayName: "Practice", IsPractice: true, IsDisplayable: true},
				{ColumnName: "date_index", DisplayName: "Period", IsDate: true, IsDisplayable: true},
				{ColumnName: "measure_value", DisplayName: "Charges", IsMeasure: true, IsDisplayable: true, FormatKind: "currency"},
				{ColumnName: "internal_key", IsFilterable: true}, // not displayable
			},
		},
	}
	h := NewTableHandler(fetcher)
	cfg := validConfig(models.ChartTable)

	rows := []models.AnalyticsRow{
		{PracticeID: 42, Date: month(2026, time.April), PeriodLabel: "Apr 2026", MeasureValue: 1234567.5},
	}
	result := &models.OrchestrationResult{}
	if err := h.Enrich(context.Background(), cfg, rows, result); err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if len(result.Columns) != 3 {
		t.Fatalf("columns = %d, want displayable only", len(result.Columns))
	}
	if len(result.FormattedRows) != 1 {
		t.Fatalf("formatted rows = %d", len(result.FormattedRows))
	}
	cells := result.FormattedRows[0]
	if cells[0].Formatted != "42" {
		t.Errorf("practice cell = %q", cells[0].Formatted)
	}
	if cells[1].Formatted != "Apr 2026" || cells[1].Raw != "2026-04-01" {
		t.Errorf("date cell = %+v", cells[1])
	}
	if cells[2].Formatted != "$1,234,567.50" {
		t.Errorf("currency cell = %q", cells[2].Formatted)
	}
}

func TestTableHandler_EnrichDefaultColumns(t *testing.T) {
	fetcher := &fakeFetcher{source: &models.DataSource{ID: 1, IsActive: true}}
	h := NewTableHandler(fetcher)

	result := &models.OrchestrationResult{}
	err := h.Enrich(context.Background(), validConfig(models.ChartTable),
		[]models.AnalyticsRow{{PracticeID: 7, MeasureValue: 3}}, result)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(result.Columns) != 4 {
		t.Fatalf("columns = %d, want 4 default role columns", len(result.Columns))
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		kind string
		want string
	}{
		{1234.5, "currency", "$1,234.50"},
		{-9876543.21, "currency", "$-9,876,543.21"},
		{42.375, "percentage", "42.4%"},
		{1234567, "integer", "1,234,567"},
		{3.25, "", "3.25"},
		{12, "number", "12"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v, tt.kind); got != tt.want {
			t.Errorf("formatValue(%v, %q) = %q, want %q", tt.v, tt.kind, got, tt.want)
		}
	}
}

func TestGroupThousands(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1234567.89", "1,234,567.89"},
		{"-1234.50", "-1,234.50"},
	}
	for _, tt := range tests {
		if got := groupThousands(tt.in); got != tt.want {
			t.Errorf("groupThousands(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
