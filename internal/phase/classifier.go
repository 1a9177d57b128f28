// Package phase derives the coarse behavioral label for a user's week.
package phase

import (
	"math"

	"github.com/murmur-hq/murmur/internal/core"
)

// Result contains the classification decision.
type Result struct {
	Phase      core.Phase `json:"phase"`
	Confidence int        `json:"confidence"` // 0-100
}

// rule is one step of the cascade. The first rule whose predicate matches
// decides the phase, and its confidence formula runs on the positive ratio.
type rule struct {
	match      func(m core.MetricsSummary, ratio float64) bool
	phase      core.Phase
	confidence func(ratio float64) int
}

// cascade is evaluated top to bottom, first match wins. The order is part of
// the contract: a week can satisfy several predicates and only the earliest
// one counts.
var cascade = []rule{
	{
		match: func(m core.MetricsSummary, ratio float64) bool {
			_, hasWork := m.CategoryCounts[core.CategoryWork]
			return ratio > 0.7 && hasWork
		},
		phase:      core.PhaseBuilder,
		confidence: func(ratio float64) int { return round(ratio * 100) },
	},
	{
		match: func(m core.MetricsSummary, ratio float64) bool {
			_, hasLearning := m.CategoryCounts[core.CategoryLearning]
			return hasLearning
		},
		phase:      core.PhaseExplorer,
		confidence: func(ratio float64) int { return round((ratio + 0.3) * 70) },
	},
	{
		match:      func(_ core.MetricsSummary, ratio float64) bool { return ratio > 0.5 },
		phase:      core.PhaseOptimizer,
		confidence: func(ratio float64) int { return round(ratio * 90) },
	},
	{
		match:      func(_ core.MetricsSummary, ratio float64) bool { return ratio > 0.3 },
		phase:      core.PhaseReflector,
		confidence: func(ratio float64) int { return round((1 - ratio) * 60) },
	},
	{
		// Quiet or low-signal weeks read as exploration.
		match:      func(core.MetricsSummary, float64) bool { return true },
		phase:      core.PhaseExplorer,
		confidence: func(float64) int { return 60 },
	},
}

// Classify maps a metrics summary to a phase and confidence by running the
// cascade. Deterministic: equal summaries always classify identically.
func Classify(m core.MetricsSummary) Result {
	ratio := positiveRatio(m)
	for _, r := range cascade {
		if r.match(m, ratio) {
			return Result{Phase: r.phase, Confidence: clamp(r.confidence(ratio))}
		}
	}
	// Unreachable, the final rule always matches.
	return Result{Phase: core.PhaseExplorer, Confidence: 60}
}

// positiveRatio is the share of positive entries across all sentiment
// buckets, 0 for an empty week.
func positiveRatio(m core.MetricsSummary) float64 {
	total := m.SentimentBreakdown.Total()
	if total == 0 {
		return 0
	}
	return float64(m.SentimentBreakdown.Positive) / float64(total)
}

func round(f float64) int {
	return int(math.Round(f))
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
