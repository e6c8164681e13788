// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package charts

import (
	"fmt"
	"sort"
	"time"

	"github.com/insano70/bcos-sub005/internal/models"
)

// defaultPalette colors series without an explicit or provider color.
var defaultPalette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

func paletteColor(i int) string {
	return defaultPalette[i%len(defaultPalette)]
}

// labelForDate renders an axis label for the configured frequency.
func labelForDate(t time.Time, frequency string) string {
	switch frequency {
	case "weekly":
		return t.Format("Jan 02")
	case "quarterly":
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	case "yearly":
		return t.Format("2006")
	default:
		return t.Format("Jan 2006")
	}
}

// sortedDates returns the distinct row dates ascending.
func sortedDates(rows []models.AnalyticsRow) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, r := range rows {
		if !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// sumByDate aggregates measure values per date.
func sumByDate(rows []models.AnalyticsRow) map[time.Time]float64 {
	sums := make(map[time.Time]float64)
	for _, r := range rows {
		sums[r.Date] += r.MeasureValue
	}
	return sums
}

// transformStandardSeries builds a single-dataset chart from rows: labels
// are the distinct dates ascending, values the per-date sums.
func transformStandardSeries(rows []models.AnalyticsRow, cfg *models.ChartConfig, kind models.ChartKind, fill bool) *models.ChartData {
	dates := sortedDates(rows)
	sums := sumByDate(rows)

	data := &models.ChartData{
		Labels:   make([]string, len(dates)),
		Datasets: []models.ChartDataset{},
	}
	values := make([]float64, len(dates))
	for i, d := range dates {
		data.Labels[i] = labelForDate(d, cfg.Frequency)
		values[i] = sums[d]
	}

	label := cfg.MeasureName
	if label == "" {
		label = "Value"
	}
	data.Datasets = append(data.Datasets, models.ChartDataset{
		Label: label,
		Data:  values,
		Color: paletteColor(0),
		Fill:  fill,
		Kind:  kind,
	})
	return data
}

// transformMultipleSeries builds one dataset per configured series from
// rows tagged with the series' measure name. All datasets share the union
// label axis; missing points are zero-filled.
func transformMultipleSeries(rows []models.AnalyticsRow, cfg *models.ChartConfig, kind models.ChartKind, fill bool) *models.ChartData {
	dates := sortedDates(rows)

	data := &models.ChartData{Labels: make([]string, len(dates))}
	dateIndex := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		data.Labels[i] = labelForDate(d, cfg.Frequency)
		dateIndex[d] = i
	}

	for i, series := range cfg.MultipleSeries {
		values := make([]float64, len(dates))
		for _, r := range rows {
			if r.SeriesID == series.MeasureName {
				values[dateIndex[r.Date]] += r.MeasureValue
			}
		}

		label := series.Label
		if label == "" {
			label = series.MeasureName
		}
		color := series.Color
		if color == "" {
			color = paletteColor(i)
		}
		data.Datasets = append(data.Datasets, models.ChartDataset{
			Label:    label,
			Data:     values,
			SeriesID: series.MeasureName,
			Color:    color,
			Fill:     fill,
			Kind:     kind,
		})
	}
	return data
}

// transformPeriodComparison builds aligned current and comparison datasets.
// Labels come from the current window; the comparison series aligns by
// month offset, so January current pairs with January-a-year-ago.
func transformPeriodComparison(rows []models.AnalyticsRow, cfg *models.ChartConfig, kind models.ChartKind, fill bool) *models.ChartData {
	var current, comparison []models.AnalyticsRow
	for _, r := range rows {
		switch r.SeriesID {
		case models.SeriesComparison:
			comparison = append(comparison, r)
		default:
			current = append(current, r)
		}
	}

	currentDates := sortedDates(current)
	comparisonDates := sortedDates(comparison)
	currentSums := sumByDate(current)
	comparisonSums := sumByDate(comparison)

	n := len(currentDates)
	if len(comparisonDates) > n {
		n = len(comparisonDates)
	}

	data := &models.ChartData{Labels: make([]string, 0, n)}
	currentValues := make([]float64, n)
	comparisonValues := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(currentDates):
			data.Labels = append(data.Labels, labelForDate(currentDates[i], cfg.Frequency))
		case i < len(comparisonDates):
			data.Labels = append(data.Labels, labelForDate(comparisonDates[i], cfg.Frequency))
		}
		if i < len(currentDates) {
			currentValues[i] = currentSums[currentDates[i]]
		}
		if i < len(comparisonDates) {
			comparisonValues[i] = comparisonSums[comparisonDates[i]]
		}
	}

	data.Datasets = []models.ChartDataset{
		{
			Label:    "Current",
			Data:     currentValues,
			SeriesID: models.SeriesCurrent,
			Color:    paletteColor(0),
			Fill:     fill,
			Kind:     kind,
		},
		{
			Label:    "Previous Period",
			Data:     comparisonValues,
			SeriesID: models.SeriesComparison,
			Color:    paletteColor(1),
			Fill:     fill,
			Kind:     kind,
		},
	}
	return data
}

// hasComparisonRows reports whether any row carries a comparison tag.
func hasComparisonRows(rows []models.AnalyticsRow) bool {
	for _, r := range rows {
		if r.SeriesID == models.SeriesCurrent || r.SeriesID == models.SeriesComparison {
			return true
		}
	}
	return false
}

// dispatchTimeSeriesTransform picks the transformation shared by the time
// series and bar families.
func dispatchTimeSeriesTransform(rows []models.AnalyticsRow, cfg *models.ChartConfig, kind models.ChartKind, fill bool) *models.ChartData {
	switch {
	case len(cfg.MultipleSeries) > 0:
		return transformMultipleSeries(rows, cfg, kind, fill)
	case hasComparisonRows(rows):
		return transformPeriodComparison(rows, cfg, kind, fill)
	default:
		return transformStandardSeries(rows, cfg, kind, fill)
	}
}

// groupTotals sums measure values per group value in deterministic order.
func groupTotals(rows []models.AnalyticsRow) ([]string, map[string]float64) {
	totals := make(map[string]float64)
	var order []string
	for _, r := range rows {
		group := r.GroupValue
		if group == "" {
			group = "Total"
		}
		if _, seen := totals[group]; !seen {
			order = append(order, group)
		}
		totals[group] += r.MeasureValue
	}
	sort.Strings(order)
	return order, totals
}
