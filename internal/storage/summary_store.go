// Package storage provides persistence for Murmur.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
)

// summaryKeyTolerance widens the summary read path by one day on each side,
// absorbing week-start drift from callers that computed boundaries outside
// UTC. Writes always normalize to UTC Mondays, so the window stays dormant
// in practice.
const summaryKeyTolerance = 24 * time.Hour

// SummaryStore handles weekly summary persistence
type SummaryStore struct {
	db *DB
}

// NewSummaryStore creates a new summary store
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Upsert inserts the summary or overwrites the existing row for the same
// (user, week start) pair. The unique index keeps one summary per user-week.
func (s *SummaryStore) Upsert(ctx context.Context, summary *core.Summary) error {
	metrics, err := json.Marshal(summary.Metrics)
	if err != nil {
		return err
	}

	_, err = s.db.conn.ExecContext(ctx, `
		INSERT INTO summaries (
		    id, user_id, week_start, week_end, metrics,
		    phase, phase_confidence, generated_at, is_complete
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
		    id = excluded.id,
		    week_end = excluded.week_end,
		    metrics = excluded.metrics,
		    phase = excluded.phase,
		    phase_confidence = excluded.phase_confidence,
		    generated_at = excluded.generated_at,
		    is_complete = excluded.is_complete
	`,
		summary.ID, summary.UserID, summary.WeekStart, summary.WeekEnd,
		string(metrics), summary.Phase, summary.PhaseConfidence,
		summary.GeneratedAt, summary.IsComplete,
	)

	return err
}

// GetByUserAndWeek returns the summary keyed by (user, week start). An exact
// key match is tried first; a miss falls back to the tolerance window, where
// at most one row can live because adjacent week starts are seven days apart.
func (s *SummaryStore) GetByUserAndWeek(ctx context.Context, userID core.UserID, weekStart time.Time) (*core.Summary, error) {
	summary, err := s.querySummary(ctx, `
		SELECT id, user_id, week_start, week_end, metrics,
		       phase, phase_confidence, generated_at, is_complete
		FROM summaries
		WHERE user_id = ? AND week_start = ?
	`, userID, weekStart)
	if err != core.ErrSummaryNotFound {
		return summary, err
	}

	return s.querySummary(ctx, `
		SELECT id, user_id, week_start, week_end, metrics,
		       phase, phase_confidence, generated_at, is_complete
		FROM summaries
		WHERE user_id = ? AND week_start BETWEEN ? AND ?
		LIMIT 1
	`, userID, weekStart.Add(-summaryKeyTolerance), weekStart.Add(summaryKeyTolerance))
}

// ListByUser returns stored summaries, newest week first
func (s *SummaryStore) ListByUser(ctx context.Context, userID core.UserID, limit int) ([]core.Summary, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, week_start, week_end, metrics,
		       phase, phase_confidence, generated_at, is_complete
		FROM summaries
		WHERE user_id = ?
		ORDER BY week_start DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []core.Summary
	for rows.Next() {
		var summary core.Summary
		var metrics string

		err := rows.Scan(
			&summary.ID, &summary.UserID, &summary.WeekStart, &summary.WeekEnd,
			&metrics, &summary.Phase, &summary.PhaseConfidence,
			&summary.GeneratedAt, &summary.IsComplete,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metrics), &summary.Metrics); err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// CountByUser returns the user's total summary count
func (s *SummaryStore) CountByUser(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM summaries WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

func (s *SummaryStore) querySummary(ctx context.Context, query string, args ...interface{}) (*core.Summary, error) {
	summary := &core.Summary{}
	var metrics string

	err := s.db.conn.QueryRowContext(ctx, query, args...).Scan(
		&summary.ID, &summary.UserID, &summary.WeekStart, &summary.WeekEnd,
		&metrics, &summary.Phase, &summary.PhaseConfidence,
		&summary.GeneratedAt, &summary.IsComplete,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrSummaryNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metrics), &summary.Metrics); err != nil {
		return nil, err
	}

	return summary, nil
}
