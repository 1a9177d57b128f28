// Package streak maintains the per-user consecutive-day logging counter.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
)

// Store is the slice of user persistence the tracker needs.
type Store interface {
	GetStreak(ctx context.Context, userID core.UserID) (core.StreakState, error)
	UpdateStreak(ctx context.Context, userID core.UserID, state core.StreakState) error
}

// Tracker advances streak state, once per successful log creation.
type Tracker struct {
	store Store
}

// NewTracker creates a streak tracker backed by the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// RecordLog runs one transition for the user at instant at and persists the
// result. The returned bool reports whether the streak advanced; a same-day
// repeat is a complete no-op: nothing is compared, nothing is written.
// Persistence failures propagate to the caller so a lost streak update is
// never silent.
func (t *Tracker) RecordLog(ctx context.Context, userID core.UserID, at time.Time) (core.StreakState, bool, error) {
	state, err := t.store.GetStreak(ctx, userID)
	if err != nil {
		return core.StreakState{}, false, fmt.Errorf("load streak: %w", err)
	}

	next, changed := Advance(state, at)
	if !changed {
		return state, false, nil
	}

	if err := t.store.UpdateStreak(ctx, userID, next); err != nil {
		return core.StreakState{}, false, fmt.Errorf("save streak: %w", err)
	}
	return next, true, nil
}

// Advance computes the streak transition for a log at instant at. The
// returned bool reports whether the state changed; a same-day repeat returns
// the input state untouched, skipping the longest-streak compare and the
// last-log-date write.
//
// Day comparison happens on midnight-truncated UTC dates: the first log ever
// starts a streak of 1, a log on the following calendar day increments, and
// any longer gap resets to 1 while LongestStreak keeps its high-water mark.
func Advance(state core.StreakState, at time.Time) (core.StreakState, bool) {
	day := dayOf(at)

	if state.LastLogDate == nil {
		state.StreakCount = 1
	} else {
		switch daysBetween(*state.LastLogDate, at) {
		case 0:
			return state, false
		case 1:
			state.StreakCount++
		default:
			state.StreakCount = 1
		}
	}

	if state.StreakCount > state.LongestStreak {
		state.LongestStreak = state.StreakCount
	}
	state.LastLogDate = &day
	return state, true
}

// milestones are the streak lengths that earn a celebration notification.
var milestones = [...]int{7, 30, 100, 365}

// IsMilestone reports whether n is a celebrated streak length.
func IsMilestone(n int) bool {
	for _, m := range milestones {
		if n == m {
			return true
		}
	}
	return false
}

// dayOf truncates an instant to midnight UTC.
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b, truncating both to
// midnight UTC first.
func daysBetween(a, b time.Time) int {
	return int(dayOf(b).Sub(dayOf(a)).Hours() / 24)
}
