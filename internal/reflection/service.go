// Package reflection turns a week of journal entries into a stored summary.
// It coordinates the metrics aggregation, phase classification, and summary
// persistence behind a single get-or-generate entry point.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/metrics"
	"github.com/murmur-hq/murmur/internal/phase"
	"github.com/murmur-hq/murmur/internal/week"
)

// EntrySource loads the entries that feed a weekly summary
type EntrySource interface {
	ListByUserAndRange(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.LogEntry, error)
}

// SummaryStore persists generated summaries
type SummaryStore interface {
	Upsert(ctx context.Context, summary *core.Summary) error
	GetByUserAndWeek(ctx context.Context, userID core.UserID, weekStart time.Time) (*core.Summary, error)
	ListByUser(ctx context.Context, userID core.UserID, limit int) ([]core.Summary, error)
}

// Service generates weekly reflection summaries
type Service struct {
	entries   EntrySource
	summaries SummaryStore
	now       func() time.Time
}

// NewService creates a reflection service
func NewService(entries EntrySource, summaries SummaryStore) *Service {
	return &Service{
		entries:   entries,
		summaries: summaries,
		now:       time.Now,
	}
}

// GetOrGenerate returns the stored summary for the given week, generating and
// storing one when none exists. With regenerate set, the week is recomputed
// from its entries and the stored summary overwritten. Weeks that have not
// started yet are refused.
func (s *Service) GetOrGenerate(ctx context.Context, userID core.UserID, id week.Identifier, regenerate bool) (*core.Summary, error) {
	now := s.now().UTC()
	weekStart := id.Start()

	if weekStart.After(now) {
		return nil, fmt.Errorf("week %s has not started: %w", id, core.ErrSummaryNotReady)
	}

	if !regenerate {
		existing, err := s.summaries.GetByUserAndWeek(ctx, userID, weekStart)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, core.ErrSummaryNotFound) {
			return nil, fmt.Errorf("load summary for %s: %w", id, err)
		}
	}

	return s.generate(ctx, userID, id, now)
}

// List returns the user's stored summaries, newest week first
func (s *Service) List(ctx context.Context, userID core.UserID, limit int) ([]core.Summary, error) {
	if limit <= 0 {
		limit = 52 // A year of weeks
	}
	return s.summaries.ListByUser(ctx, userID, limit)
}

func (s *Service) generate(ctx context.Context, userID core.UserID, id week.Identifier, now time.Time) (*core.Summary, error) {
	weekStart := id.Start()

	// The window is half-open: everything from Monday 00:00:00 up to but not
	// including the next Monday 00:00:00.
	entries, err := s.entries.ListByUserAndRange(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("load entries for %s: %w", id, err)
	}

	summarized := metrics.Aggregate(entries)
	classified := phase.Classify(summarized)

	summary := &core.Summary{
		ID:              core.SummaryID(uuid.New().String()),
		UserID:          userID,
		WeekStart:       weekStart,
		WeekEnd:         id.End(),
		Metrics:         summarized,
		Phase:           classified.Phase,
		PhaseConfidence: classified.Confidence,
		GeneratedAt:     now,
		IsComplete:      id.End().Before(now),
	}

	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return nil, fmt.Errorf("store summary for %s: %w", id, err)
	}

	return summary, nil
}
