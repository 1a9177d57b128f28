// Package notifications implements the notification feed for Murmur users.
package notifications

import (
	"time"

	"github.com/murmur-hq/murmur/internal/core"
)

// Kind represents the kind of notification
type Kind string

const (
	KindReflectionReady Kind = "reflection.ready"
	KindStreakMilestone Kind = "streak.milestone"
	KindSystem          Kind = "system"
)

// Notification represents a message surfaced to a single user
type Notification struct {
	ID        string      `json:"id"`
	UserID    core.UserID `json:"user_id"`
	Kind      Kind        `json:"kind"`
	Title     string      `json:"title"`
	Body      string      `json:"body,omitempty"`
	Read      bool        `json:"read"`
	CreatedAt time.Time   `json:"created_at"`
}

// Filter for querying a user's notifications
type Filter struct {
	Kind       Kind
	UnreadOnly bool
	Limit      int
}
