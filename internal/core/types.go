// Package core defines the fundamental types for Murmur.
// Every other package speaks in terms of these.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// USER - The journaler
// -----------------------------------------------------------------------------

// UserID is a type-safe identifier for users
type UserID string

// User represents one journaler plus the streak state that rides on the
// account record. Streak is mutated only by the streak tracker.
type User struct {
	ID        UserID    `json:"id"` // UUID, never changes
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// API token credentials (argon2id). Never serialized.
	TokenSalt string `json:"-"`
	TokenHash string `json:"-"`

	Streak StreakState `json:"streak"`
}

// -----------------------------------------------------------------------------
// CATEGORY & SENTIMENT - Closed vocabularies for entry attributes
// -----------------------------------------------------------------------------

// Category classifies which part of life an entry touches.
type Category string

const (
	CategoryHealth   Category = "health"
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryFamily   Category = "family"
	CategorySocial   Category = "social"
	CategoryFinance  Category = "finance"
	CategoryLearning Category = "learning"
	CategoryOther    Category = "other"

	// CategoryUncategorized is the sentinel bucket for entries the upstream
	// classifier left blank. Counted, never dropped.
	CategoryUncategorized Category = "uncategorized"
)

// ParseCategory validates a category string at the ingestion boundary.
// An empty string maps to CategoryUncategorized rather than an error.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryUncategorized, nil
	}
	c := Category(s)
	switch c {
	case CategoryHealth, CategoryWork, CategoryPersonal, CategoryFamily,
		CategorySocial, CategoryFinance, CategoryLearning, CategoryOther,
		CategoryUncategorized:
		return c, nil
	}
	return "", ErrInvalidCategory
}

// Sentiment is the emotional tone the upstream pipeline assigned to an entry.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// ParseSentiment validates a sentiment string at the ingestion boundary.
// An empty string maps to SentimentNeutral rather than an error.
func ParseSentiment(s string) (Sentiment, error) {
	if s == "" {
		return SentimentNeutral, nil
	}
	v := Sentiment(s)
	switch v {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return v, nil
	}
	return "", ErrInvalidSentiment
}

// -----------------------------------------------------------------------------
// LOG ENTRY - One captured journal moment
// -----------------------------------------------------------------------------

// EntryID is a type-safe identifier for log entries
type EntryID string

// LogEntry is a single journal log. The audio pipeline upstream owns
// transcription and attribute extraction; by the time an entry reaches this
// system its category, sentiment and keywords are already computed and the
// entry is immutable input.
type LogEntry struct {
	ID     EntryID `json:"id"`
	UserID UserID  `json:"user_id"`

	// When the moment was logged, UTC.
	Timestamp time.Time `json:"timestamp"`

	// Content
	Transcript      string `json:"transcript,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"` // Audio length; 0 when unknown

	// Upstream-computed attributes, validated at ingestion
	Category  Category  `json:"category"`
	Sentiment Sentiment `json:"sentiment"`
	Keywords  []string  `json:"keywords,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// METRICS - Aggregated weekly numbers
// -----------------------------------------------------------------------------

// SentimentBreakdown counts entries per sentiment bucket. The four buckets
// always sum to the TotalLogs of the summary they belong to.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Mixed    int `json:"mixed"`
}

// Total returns the sum of all four buckets.
func (b SentimentBreakdown) Total() int {
	return b.Positive + b.Negative + b.Neutral + b.Mixed
}

// MetricsSummary is the aggregated statistical snapshot of one user-week.
// A derived value: recomputed on each aggregation, never patched in place.
type MetricsSummary struct {
	TotalLogs              int                `json:"total_logs"`
	CategoryCounts         map[Category]int   `json:"category_counts"`
	SentimentBreakdown     SentimentBreakdown `json:"sentiment_breakdown"`
	AverageDurationSeconds float64            `json:"average_duration_seconds"`
	TopKeywords            []string           `json:"top_keywords"` // At most 10, frequency desc
}

// -----------------------------------------------------------------------------
// PHASE - Coarse behavioral label for a week
// -----------------------------------------------------------------------------

// Phase labels the overall character of a user's week. Values are the
// user-facing labels, capitalized as displayed.
type Phase string

const (
	PhaseBuilder   Phase = "Builder"
	PhaseExplorer  Phase = "Explorer"
	PhaseOptimizer Phase = "Optimizer"
	PhaseReflector Phase = "Reflector"
)

// -----------------------------------------------------------------------------
// SUMMARY - The persisted weekly reflection
// -----------------------------------------------------------------------------

// SummaryID is a type-safe identifier for summaries
type SummaryID string

// Summary is the persisted weekly reflection. Exactly one exists per
// (UserID, WeekStart); regeneration overwrites in place.
type Summary struct {
	ID     SummaryID `json:"id"`
	UserID UserID    `json:"user_id"`

	// Week bounds, UTC. Start is Monday 00:00:00.000, End is Sunday
	// 23:59:59.999 of the same ISO week.
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`

	Metrics         MetricsSummary `json:"metrics"`
	Phase           Phase          `json:"phase"`
	PhaseConfidence int            `json:"phase_confidence"` // 0-100

	GeneratedAt time.Time `json:"generated_at"`
	IsComplete  bool      `json:"is_complete"` // Week had fully elapsed at generation time
}

// -----------------------------------------------------------------------------
// STREAK - Consecutive-day logging state
// -----------------------------------------------------------------------------

// StreakState tracks consecutive logging days for one user.
// Invariant: LongestStreak >= StreakCount after every update.
type StreakState struct {
	StreakCount int `json:"streak_count"`

	// Midnight UTC of the most recent counted day. Nil until the first log.
	LastLogDate *time.Time `json:"last_log_date,omitempty"`

	LongestStreak int `json:"longest_streak"`
}
