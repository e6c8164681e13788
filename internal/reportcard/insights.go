// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insano70/bcos-sub005/internal/models"
)

// BuildInsights produces the ordered insight list for one report card:
// the top-performing measure, the weakest measure when it ranks below the
// median, then the improving and declining measure lists. Output is
// deterministic for identical inputs; ties break on measure name.
func BuildInsights(scores map[string]models.MeasureScore, measures map[string]models.MeasureConfig) []string {
	if len(scores) == 0 {
		return []string{}
	}

	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	label := func(name string) string {
		if m, ok := measures[name]; ok {
			return m.Label()
		}
		return name
	}

	best, worst := names[0], names[0]
	for _, name := range names[1:] {
		if scores[name].Score > scores[best].Score {
			best = name
		}
		if scores[name].Score < scores[worst].Score {
			worst = name
		}
	}

	insights := make([]string, 0, 4)

	if p := scores[best].Percentile; p != nil {
		insights = append(insights,
			fmt.Sprintf("Strongest measure: %s (%.0fth percentile)", label(best), *p))
	} else {
		insights = append(insights, fmt.Sprintf("Strongest measure: %s", label(best)))
	}

	// Flag the weakest measure only when it actually trails the peer median.
	if worst != best {
		if p := scores[worst].Percentile; p != nil && *p < 50 {
			insights = append(insights,
				fmt.Sprintf("Needs attention: %s (%.0fth percentile)", label(worst), *p))
		}
	}

	var improving, declining []string
	for _, name := range names {
		switch scores[name].Trend {
		case models.TrendImproving:
			improving = append(improving, label(name))
		case models.TrendDeclining:
			declining = append(declining, label(name))
		}
	}
	if len(improving) > 0 {
		insights = append(insights, "Improving: "+strings.Join(improving, ", "))
	}
	if len(declining) > 0 {
		insights = append(insights, "Declining: "+strings.Join(declining, ", "))
	}
	return insights
}
