// Package storage provides persistence for Murmur.
package storage

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/murmur-hq/murmur/internal/core"
)

// Argon2id parameters for API token hashing
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// UserStore handles user persistence and API token verification
type UserStore struct {
	db *DB
}

// NewUserStore creates a new user store
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// hashToken derives the storable hash of a token secret
func hashToken(secret string, salt []byte) string {
	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.StdEncoding.EncodeToString(key)
}

// Create persists a new user. The token secret is hashed with a fresh salt,
// the plaintext is never stored.
func (s *UserStore) Create(ctx context.Context, user *core.User, tokenSecret string) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	user.TokenSalt = base64.StdEncoding.EncodeToString(salt)
	user.TokenHash = hashToken(tokenSecret, salt)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (
		    id, name, token_salt, token_hash,
		    streak_count, last_log_date, longest_streak,
		    created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID, user.Name, user.TokenSalt, user.TokenHash,
		user.Streak.StreakCount, user.Streak.LastLogDate, user.Streak.LongestStreak,
		user.CreatedAt, user.UpdatedAt,
	)

	return err
}

// GetByID returns a user with streak state populated
func (s *UserStore) GetByID(ctx context.Context, id core.UserID) (*core.User, error) {
	user := &core.User{}
	var lastLog sql.NullTime

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, name, token_salt, token_hash,
		       streak_count, last_log_date, longest_streak,
		       created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID, &user.Name, &user.TokenSalt, &user.TokenHash,
		&user.Streak.StreakCount, &lastLog, &user.Streak.LongestStreak,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastLog.Valid {
		t := lastLog.Time.UTC()
		user.Streak.LastLogDate = &t
	}

	return user, nil
}

// GetAll returns every user, oldest first
func (s *UserStore) GetAll(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, name, token_salt, token_hash,
		       streak_count, last_log_date, longest_streak,
		       created_at, updated_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var user core.User
		var lastLog sql.NullTime

		err := rows.Scan(
			&user.ID, &user.Name, &user.TokenSalt, &user.TokenHash,
			&user.Streak.StreakCount, &lastLog, &user.Streak.LongestStreak,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if lastLog.Valid {
			t := lastLog.Time.UTC()
			user.Streak.LastLogDate = &t
		}

		users = append(users, user)
	}

	return users, rows.Err()
}

// VerifyToken checks a presented token secret against the stored hash.
// Unknown users and bad secrets both come back as ErrUnauthorized so the
// response does not reveal which part failed.
func (s *UserStore) VerifyToken(ctx context.Context, id core.UserID, secret string) (*core.User, error) {
	user, err := s.GetByID(ctx, id)
	if err == core.ErrUserNotFound {
		return nil, core.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(user.TokenSalt)
	if err != nil {
		return nil, fmt.Errorf("corrupt token salt: %w", err)
	}
	stored, err := base64.StdEncoding.DecodeString(user.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("corrupt token hash: %w", err)
	}

	presented := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	if subtle.ConstantTimeCompare(presented, stored) != 1 {
		return nil, core.ErrUnauthorized
	}

	return user, nil
}

// GetStreak reads just the user's streak state
func (s *UserStore) GetStreak(ctx context.Context, id core.UserID) (core.StreakState, error) {
	var state core.StreakState
	var lastLog sql.NullTime

	err := s.db.conn.QueryRowContext(ctx, `
		SELECT streak_count, last_log_date, longest_streak
		FROM users WHERE id = ?
	`, id).Scan(&state.StreakCount, &lastLog, &state.LongestStreak)

	if err == sql.ErrNoRows {
		return core.StreakState{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.StreakState{}, err
	}

	if lastLog.Valid {
		t := lastLog.Time.UTC()
		state.LastLogDate = &t
	}

	return state, nil
}

// UpdateStreak writes the user's streak state
func (s *UserStore) UpdateStreak(ctx context.Context, id core.UserID, state core.StreakState) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE users SET
		    streak_count = ?, last_log_date = ?, longest_streak = ?, updated_at = ?
		WHERE id = ?
	`, state.StreakCount, state.LastLogDate, state.LongestStreak, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// Delete removes a user; entries, summaries and notifications cascade
func (s *UserStore) Delete(ctx context.Context, id core.UserID) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrUserNotFound
	}
	return nil
}
