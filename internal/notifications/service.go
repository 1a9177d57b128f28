// Package notifications implements the notification feed for Murmur users.
package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/storage"
)

// Subscriber receives a user's notifications in real-time
type Subscriber interface {
	Notify(notification Notification)
	UserID() core.UserID
	ID() string
}

// Service manages notifications
type Service struct {
	db          *storage.DB
	subscribers map[string]Subscriber
	mu          sync.RWMutex
}

// NewService creates a new notification service
func NewService(db *storage.DB) *Service {
	return &Service{
		db:          db,
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe adds a subscriber for real-time notifications
func (s *Service) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ID()] = sub
}

// Unsubscribe removes a subscriber
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// Create persists a notification and pushes it to the user's subscribers
func (s *Service) Create(ctx context.Context, userID core.UserID, kind Kind, title, body string) (*Notification, error) {
	notification := &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, notification.ID, notification.UserID, notification.Kind, notification.Title,
		notification.Body, notification.Read, notification.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save notification: %w", err)
	}

	s.broadcast(*notification)

	return notification, nil
}

// broadcast sends the notification to subscribers belonging to its user
func (s *Service) broadcast(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if sub.UserID() != n.UserID {
			continue
		}
		go func(subscriber Subscriber) {
			subscriber.Notify(n)
		}(sub)
	}
}

// List retrieves a user's notifications, newest first
func (s *Service) List(ctx context.Context, userID core.UserID, filter Filter) ([]*Notification, error) {
	query := `SELECT id, user_id, kind, title, body, is_read, created_at FROM notifications WHERE user_id = ?`
	args := []interface{}{userID}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.UnreadOnly {
		query += " AND is_read = FALSE"
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 50"
	}

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID core.UserID, id string) error {
	result, err := s.db.Conn().ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read
func (s *Service) MarkAllRead(ctx context.Context, userID core.UserID) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE
	`, userID)
	return err
}

// UnreadCount returns the count of the user's unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE
	`, userID).Scan(&count)
	return count, err
}

// Cleanup removes read notifications older than the given age
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Conn().ExecContext(ctx, `
		DELETE FROM notifications WHERE created_at < ? AND is_read = TRUE
	`, cutoff)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}

// SendReflectionReady notifies the user that a weekly summary is available
func (s *Service) SendReflectionReady(ctx context.Context, userID core.UserID, weekLabel string, phase core.Phase) (*Notification, error) {
	return s.Create(ctx, userID, KindReflectionReady,
		"Your weekly reflection is ready",
		fmt.Sprintf("Week %s wrapped up in the %s phase.", weekLabel, phase))
}

// SendStreakMilestone notifies the user about a streak milestone
func (s *Service) SendStreakMilestone(ctx context.Context, userID core.UserID, days int) (*Notification, error) {
	return s.Create(ctx, userID, KindStreakMilestone,
		fmt.Sprintf("%d day streak!", days),
		fmt.Sprintf("You have logged a murmur every day for %d days straight.", days))
}
