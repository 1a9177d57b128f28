// Package digest renders weekly summaries as shareable text or markdown.
package digest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/week"
)

// Format selects the digest output format
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a query value to a render format. Empty input defaults
// to plain text.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown digest format %q: %w", s, core.ErrInvalidInput)
}

// Render returns the summary rendered in the requested format
func Render(summary *core.Summary, format Format) string {
	if format == FormatMarkdown {
		return RenderMarkdown(summary)
	}
	return RenderText(summary)
}

// RenderText renders the summary as plain text
func RenderText(s *core.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Weekly Reflection - %s\n", week.Of(s.WeekStart)))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString(fmt.Sprintf("%s to %s\n", s.WeekStart.Format("Monday, January 2"), s.WeekEnd.Format("Monday, January 2, 2006")))
	if !s.IsComplete {
		sb.WriteString("This week is still in progress.\n")
	}
	sb.WriteString("\n")

	if s.Metrics.TotalLogs == 0 {
		sb.WriteString("No entries were logged this week.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Phase: %s (%d%% confidence)\n\n", phaseLabel(s.Phase), s.PhaseConfidence))

	sb.WriteString("ACTIVITY\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	sb.WriteString(fmt.Sprintf("Entries: %d\n", s.Metrics.TotalLogs))
	sb.WriteString(fmt.Sprintf("Average length: %s\n", formatDuration(s.Metrics.AverageDurationSeconds)))
	if len(s.Metrics.TopKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Top keywords: %s\n", strings.Join(s.Metrics.TopKeywords, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("SENTIMENT\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	sb.WriteString(fmt.Sprintf("Positive: %d | Negative: %d | Neutral: %d | Mixed: %d\n\n",
		s.Metrics.SentimentBreakdown.Positive, s.Metrics.SentimentBreakdown.Negative,
		s.Metrics.SentimentBreakdown.Neutral, s.Metrics.SentimentBreakdown.Mixed))

	sb.WriteString("CATEGORIES\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	for _, c := range sortedCategories(s.Metrics.CategoryCounts) {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", c.name, c.count))
	}

	return sb.String()
}

// RenderMarkdown renders the summary as markdown
func RenderMarkdown(s *core.Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Weekly Reflection - %s\n\n", week.Of(s.WeekStart)))
	sb.WriteString(fmt.Sprintf("%s to %s", s.WeekStart.Format("Monday, January 2"), s.WeekEnd.Format("Monday, January 2, 2006")))
	if !s.IsComplete {
		sb.WriteString(" (in progress)")
	}
	sb.WriteString("\n\n")

	if s.Metrics.TotalLogs == 0 {
		sb.WriteString("No entries were logged this week.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("> **%s** phase, %d%% confidence\n\n", phaseLabel(s.Phase), s.PhaseConfidence))

	sb.WriteString("## Activity\n\n")
	sb.WriteString(fmt.Sprintf("- Entries: %d\n", s.Metrics.TotalLogs))
	sb.WriteString(fmt.Sprintf("- Average length: %s\n", formatDuration(s.Metrics.AverageDurationSeconds)))
	if len(s.Metrics.TopKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("- Top keywords: %s\n", strings.Join(s.Metrics.TopKeywords, ", ")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Sentiment\n\n")
	sb.WriteString("| Sentiment | Count |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Positive | %d |\n", s.Metrics.SentimentBreakdown.Positive))
	sb.WriteString(fmt.Sprintf("| Negative | %d |\n", s.Metrics.SentimentBreakdown.Negative))
	sb.WriteString(fmt.Sprintf("| Neutral | %d |\n", s.Metrics.SentimentBreakdown.Neutral))
	sb.WriteString(fmt.Sprintf("| Mixed | %d |\n", s.Metrics.SentimentBreakdown.Mixed))
	sb.WriteString("\n")

	sb.WriteString("## Categories\n\n")
	for _, c := range sortedCategories(s.Metrics.CategoryCounts) {
		sb.WriteString(fmt.Sprintf("- **%s**: %d\n", c.name, c.count))
	}

	return sb.String()
}

type categoryCount struct {
	name  core.Category
	count int
}

// sortedCategories orders categories by count descending, then name, so
// renders are deterministic.
func sortedCategories(counts map[core.Category]int) []categoryCount {
	out := make([]categoryCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, categoryCount{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func phaseLabel(p core.Phase) string {
	if p == "" {
		return "Unknown"
	}
	return string(p)
}

func formatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
