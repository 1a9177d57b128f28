// Package storage provides persistence for Murmur.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
)

// EntryStore handles log entry persistence
type EntryStore struct {
	db *DB
}

// NewEntryStore creates a new entry store
func NewEntryStore(db *DB) *EntryStore {
	return &EntryStore{db: db}
}

// Create persists a new log entry
func (s *EntryStore) Create(ctx context.Context, entry *core.LogEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	keywords, _ := json.Marshal(entry.Keywords)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO entries (
		    id, user_id, entry_timestamp, transcript, duration_seconds,
		    category, sentiment, keywords, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.UserID, entry.Timestamp, entry.Transcript,
		entry.DurationSeconds, entry.Category, entry.Sentiment,
		string(keywords), entry.CreatedAt, entry.UpdatedAt,
	)

	return err
}

// GetByID returns an entry by ID
func (s *EntryStore) GetByID(ctx context.Context, id core.EntryID) (*core.LogEntry, error) {
	entry := &core.LogEntry{}
	var transcript sql.NullString
	var keywords string

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, entry_timestamp, transcript, duration_seconds,
		       category, sentiment, keywords, created_at, updated_at
		FROM entries WHERE id = ?
	`, id).Scan(
		&entry.ID, &entry.UserID, &entry.Timestamp, &transcript,
		&entry.DurationSeconds, &entry.Category, &entry.Sentiment,
		&keywords, &entry.CreatedAt, &entry.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Transcript = transcript.String
	json.Unmarshal([]byte(keywords), &entry.Keywords)

	return entry, nil
}

// ListByUserAndRange returns the user's entries with timestamp in [from, to),
// ordered ascending so downstream keyword ranking sees a deterministic
// sequence.
func (s *EntryStore) ListByUserAndRange(ctx context.Context, userID core.UserID, from, to time.Time) ([]core.LogEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, entry_timestamp, transcript, duration_seconds,
		       category, sentiment, keywords, created_at, updated_at
		FROM entries
		WHERE user_id = ? AND entry_timestamp >= ? AND entry_timestamp < ?
		ORDER BY entry_timestamp ASC
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// ListRecent returns the user's newest entries
func (s *EntryStore) ListRecent(ctx context.Context, userID core.UserID, limit int) ([]core.LogEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, user_id, entry_timestamp, transcript, duration_seconds,
		       category, sentiment, keywords, created_at, updated_at
		FROM entries
		WHERE user_id = ?
		ORDER BY entry_timestamp DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// Delete removes an entry
func (s *EntryStore) Delete(ctx context.Context, id core.EntryID) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrEntryNotFound
	}
	return nil
}

// CountByUser returns the user's total entry count
func (s *EntryStore) CountByUser(ctx context.Context, userID core.UserID) (int, error) {
	var count int
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

func (s *EntryStore) scanEntries(rows *sql.Rows) ([]core.LogEntry, error) {
	var entries []core.LogEntry

	for rows.Next() {
		var entry core.LogEntry
		var transcript sql.NullString
		var keywords string

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Timestamp, &transcript,
			&entry.DurationSeconds, &entry.Category, &entry.Sentiment,
			&keywords, &entry.CreatedAt, &entry.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Transcript = transcript.String
		json.Unmarshal([]byte(keywords), &entry.Keywords)

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
