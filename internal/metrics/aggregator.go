// Package metrics reduces a week of log entries to quantitative numbers.
package metrics

import (
	"sort"

	"github.com/murmur-hq/murmur/internal/core"
)

// topKeywordLimit caps how many ranked keywords a summary carries.
const topKeywordLimit = 10

// Aggregate reduces entries to a MetricsSummary. Pure: the same input always
// produces the same output, and an empty input produces the all-zero summary
// rather than an error ("no activity this week" is a valid, representable
// state).
func Aggregate(entries []core.LogEntry) core.MetricsSummary {
	summary := core.MetricsSummary{
		TotalLogs:      len(entries),
		CategoryCounts: make(map[core.Category]int),
		TopKeywords:    []string{},
	}
	if len(entries) == 0 {
		return summary
	}

	totalDuration := 0
	for _, entry := range entries {
		category := entry.Category
		if category == "" {
			category = core.CategoryUncategorized
		}
		summary.CategoryCounts[category]++

		// Every entry lands in exactly one sentiment bucket; unset
		// sentiment counts as neutral.
		switch entry.Sentiment {
		case core.SentimentPositive:
			summary.SentimentBreakdown.Positive++
		case core.SentimentNegative:
			summary.SentimentBreakdown.Negative++
		case core.SentimentMixed:
			summary.SentimentBreakdown.Mixed++
		default:
			summary.SentimentBreakdown.Neutral++
		}

		// Entries with unknown duration add 0 here but still count in the
		// average's denominator.
		totalDuration += entry.DurationSeconds
	}

	summary.AverageDurationSeconds = float64(totalDuration) / float64(len(entries))
	summary.TopKeywords = topKeywords(entries)

	return summary
}

// keywordStat tracks one keyword's frequency and where it first appeared in
// the flattened keyword sequence.
type keywordStat struct {
	keyword   string
	count     int
	firstSeen int
}

// topKeywords flattens all keyword lists in entry order, ranks by frequency
// descending with ties broken by first appearance, and truncates to the
// keyword limit.
func topKeywords(entries []core.LogEntry) []string {
	stats := make(map[string]*keywordStat)
	position := 0
	for _, entry := range entries {
		for _, kw := range entry.Keywords {
			if s, ok := stats[kw]; ok {
				s.count++
			} else {
				stats[kw] = &keywordStat{keyword: kw, count: 1, firstSeen: position}
			}
			position++
		}
	}

	ranked := make([]*keywordStat, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].firstSeen < ranked[j].firstSeen
	})

	if len(ranked) > topKeywordLimit {
		ranked = ranked[:topKeywordLimit]
	}

	keywords := make([]string, len(ranked))
	for i, s := range ranked {
		keywords[i] = s.keyword
	}
	return keywords
}
