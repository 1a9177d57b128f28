package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/storage"
)

// RandomID generates a random ID for testing.
func RandomID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// SeedUser creates a user with the given ID and the token secret
// "test-secret".
func SeedUser(t *testing.T, db *storage.DB, id core.UserID) *core.User {
	t.Helper()

	user := &core.User{ID: id, Name: string(id)}
	if err := storage.NewUserStore(db).Create(context.Background(), user, "test-secret"); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

// SeedEntry inserts a journal entry with sensible defaults.
func SeedEntry(t *testing.T, db *storage.DB, userID core.UserID, ts time.Time, category core.Category, sentiment core.Sentiment) *core.LogEntry {
	t.Helper()

	entry := &core.LogEntry{
		ID:              core.EntryID(uuid.New().String()),
		UserID:          userID,
		Timestamp:       ts,
		Transcript:      "seeded murmur",
		DurationSeconds: 60,
		Category:        category,
		Sentiment:       sentiment,
		Keywords:        []string{"seeded"},
	}
	if err := storage.NewEntryStore(db).Create(context.Background(), entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}
