package reflection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/storage"
	"github.com/murmur-hq/murmur/internal/week"
)

// Week 11 of 2025 runs Monday March 10 through Sunday March 16.
var (
	week11    = week.Identifier{Year: 2025, Week: 11}
	week11Mon = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	afterW11  = time.Date(2025, 3, 19, 9, 0, 0, 0, time.UTC)
)

func testService(t *testing.T) (*Service, *storage.EntryStore) {
	t.Helper()
	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	user := &core.User{ID: "ada", Name: "Ada"}
	if err := storage.NewUserStore(db).Create(context.Background(), user, "secret"); err != nil {
		t.Fatalf("create test user: %v", err)
	}

	entries := storage.NewEntryStore(db)
	svc := NewService(entries, storage.NewSummaryStore(db))
	svc.now = func() time.Time { return afterW11 }
	return svc, entries
}

func seedEntry(t *testing.T, entries *storage.EntryStore, id core.EntryID, at time.Time, category core.Category, sentiment core.Sentiment, duration int, keywords ...string) {
	t.Helper()
	err := entries.Create(context.Background(), &core.LogEntry{
		ID:              id,
		UserID:          "ada",
		Timestamp:       at,
		Transcript:      "test transcript",
		DurationSeconds: duration,
		Category:        category,
		Sentiment:       sentiment,
		Keywords:        keywords,
	})
	if err != nil {
		t.Fatalf("seed entry %s: %v", id, err)
	}
}

func TestService_GetOrGenerate_GeneratesAndStores(t *testing.T) {
	svc, entries := testService(t)
	ctx := context.Background()

	seedEntry(t, entries, "e1", week11Mon.Add(9*time.Hour), core.CategoryWork, core.SentimentPositive, 60, "standup", "shipping")
	seedEntry(t, entries, "e2", week11Mon.Add(26*time.Hour), core.CategoryWork, core.SentimentPositive, 30, "shipping")
	seedEntry(t, entries, "e3", week11Mon.Add(50*time.Hour), core.CategoryHealth, core.SentimentPositive, 0, "running")

	summary, err := svc.GetOrGenerate(ctx, "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}

	if summary.ID == "" {
		t.Error("summary should get a generated id")
	}
	if !summary.WeekStart.Equal(week11Mon) {
		t.Errorf("WeekStart = %v, want %v", summary.WeekStart, week11Mon)
	}
	if !summary.WeekEnd.Equal(week11.End()) {
		t.Errorf("WeekEnd = %v, want %v", summary.WeekEnd, week11.End())
	}
	if !summary.IsComplete {
		t.Error("a fully elapsed week should be marked complete")
	}
	if summary.Metrics.TotalLogs != 3 {
		t.Errorf("TotalLogs = %d, want 3", summary.Metrics.TotalLogs)
	}
	if summary.Metrics.CategoryCounts[core.CategoryWork] != 2 {
		t.Errorf("CategoryCounts[work] = %d, want 2", summary.Metrics.CategoryCounts[core.CategoryWork])
	}
	if summary.Metrics.SentimentBreakdown.Positive != 3 {
		t.Errorf("Positive = %d, want 3", summary.Metrics.SentimentBreakdown.Positive)
	}
	if summary.Metrics.AverageDurationSeconds != 30 {
		t.Errorf("AverageDurationSeconds = %v, want 30", summary.Metrics.AverageDurationSeconds)
	}
	if len(summary.Metrics.TopKeywords) == 0 || summary.Metrics.TopKeywords[0] != "shipping" {
		t.Errorf("TopKeywords = %v, want shipping first", summary.Metrics.TopKeywords)
	}

	// All positive with work entries present classifies as Builder
	if summary.Phase != core.PhaseBuilder {
		t.Errorf("Phase = %v, want %v", summary.Phase, core.PhaseBuilder)
	}
	if summary.PhaseConfidence != 100 {
		t.Errorf("PhaseConfidence = %d, want 100", summary.PhaseConfidence)
	}

	// The summary must have been persisted
	stored, err := svc.GetOrGenerate(ctx, "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() second call error = %v", err)
	}
	if stored.ID != summary.ID {
		t.Errorf("second call ID = %v, want stored %v", stored.ID, summary.ID)
	}
}

func TestService_GetOrGenerate_ReturnsExisting(t *testing.T) {
	svc, entries := testService(t)
	ctx := context.Background()

	seedEntry(t, entries, "e1", week11Mon.Add(9*time.Hour), core.CategoryWork, core.SentimentPositive, 60)

	first, err := svc.GetOrGenerate(ctx, "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}

	// Advance the clock; without regenerate the stored summary wins and
	// GeneratedAt stays put.
	svc.now = func() time.Time { return afterW11.Add(48 * time.Hour) }
	seedEntry(t, entries, "e2", week11Mon.Add(30*time.Hour), core.CategoryWork, core.SentimentPositive, 60)

	second, err := svc.GetOrGenerate(ctx, "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID = %v, want %v", second.ID, first.ID)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want unchanged %v", second.GeneratedAt, first.GeneratedAt)
	}
	if second.Metrics.TotalLogs != 1 {
		t.Errorf("TotalLogs = %d, want stale 1 without regenerate", second.Metrics.TotalLogs)
	}
}

func TestService_GetOrGenerate_Regenerate(t *testing.T) {
	svc, entries := testService(t)
	ctx := context.Background()

	seedEntry(t, entries, "e1", week11Mon.Add(9*time.Hour), core.CategoryWork, core.SentimentPositive, 60)

	first, err := svc.GetOrGenerate(ctx, "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}

	seedEntry(t, entries, "e2", week11Mon.Add(30*time.Hour), core.CategoryLearning, core.SentimentPositive, 60)
	later := afterW11.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }

	second, err := svc.GetOrGenerate(ctx, "ada", week11, true)
	if err != nil {
		t.Fatalf("GetOrGenerate(regenerate) error = %v", err)
	}
	if second.Metrics.TotalLogs != 2 {
		t.Errorf("TotalLogs = %d, want 2 after regenerate", second.Metrics.TotalLogs)
	}
	if second.ID == first.ID {
		t.Error("regenerate should mint a fresh summary id")
	}
	if !second.GeneratedAt.Equal(later) {
		t.Errorf("GeneratedAt = %v, want %v", second.GeneratedAt, later)
	}

	// Regeneration overwrites, never duplicates
	all, err := svc.List(ctx, "ada", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() returned %d summaries, want 1", len(all))
	}
}

func TestService_GetOrGenerate_FutureWeek(t *testing.T) {
	svc, _ := testService(t)

	// Clock sits in week 12; week 13 has not started.
	_, err := svc.GetOrGenerate(context.Background(), "ada", week.Identifier{Year: 2025, Week: 13}, false)
	if !errors.Is(err, core.ErrSummaryNotReady) {
		t.Errorf("GetOrGenerate() error = %v, want %v", err, core.ErrSummaryNotReady)
	}
}

func TestService_GetOrGenerate_CurrentWeekIncomplete(t *testing.T) {
	svc, entries := testService(t)

	// Clock is Wednesday of week 12, so week 12 is in progress.
	week12 := week.Identifier{Year: 2025, Week: 12}
	seedEntry(t, entries, "e1", week12.Start().Add(10*time.Hour), core.CategoryPersonal, core.SentimentNeutral, 30)

	summary, err := svc.GetOrGenerate(context.Background(), "ada", week12, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}
	if summary.IsComplete {
		t.Error("an in-progress week must not be marked complete")
	}
	if summary.Metrics.TotalLogs != 1 {
		t.Errorf("TotalLogs = %d, want 1", summary.Metrics.TotalLogs)
	}
}

func TestService_GetOrGenerate_EmptyWeek(t *testing.T) {
	svc, _ := testService(t)

	summary, err := svc.GetOrGenerate(context.Background(), "ada", week.Identifier{Year: 2025, Week: 10}, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}

	if summary.Metrics.TotalLogs != 0 {
		t.Errorf("TotalLogs = %d, want 0", summary.Metrics.TotalLogs)
	}
	if len(summary.Metrics.CategoryCounts) != 0 {
		t.Errorf("CategoryCounts = %v, want empty", summary.Metrics.CategoryCounts)
	}
	if summary.Metrics.AverageDurationSeconds != 0 {
		t.Errorf("AverageDurationSeconds = %v, want 0", summary.Metrics.AverageDurationSeconds)
	}
	if summary.Phase != core.PhaseExplorer || summary.PhaseConfidence != 60 {
		t.Errorf("phase = %v/%d, want %v/60", summary.Phase, summary.PhaseConfidence, core.PhaseExplorer)
	}
}

func TestService_GetOrGenerate_WeekWindow(t *testing.T) {
	svc, entries := testService(t)

	// Sunday 23:59:59 belongs to the week, next Monday 00:00:00 does not.
	seedEntry(t, entries, "sunday", week11Mon.AddDate(0, 0, 6).Add(23*time.Hour+59*time.Minute+59*time.Second), core.CategoryPersonal, core.SentimentNeutral, 10)
	seedEntry(t, entries, "next-monday", week11Mon.AddDate(0, 0, 7), core.CategoryPersonal, core.SentimentNeutral, 10)

	summary, err := svc.GetOrGenerate(context.Background(), "ada", week11, false)
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}
	if summary.Metrics.TotalLogs != 1 {
		t.Errorf("TotalLogs = %d, want 1 (window is half-open)", summary.Metrics.TotalLogs)
	}
}

func TestService_List(t *testing.T) {
	svc, entries := testService(t)
	ctx := context.Background()

	week10 := week.Identifier{Year: 2025, Week: 10}
	seedEntry(t, entries, "e1", week10.Start().Add(8*time.Hour), core.CategoryWork, core.SentimentPositive, 60)
	seedEntry(t, entries, "e2", week11Mon.Add(8*time.Hour), core.CategoryWork, core.SentimentPositive, 60)

	if _, err := svc.GetOrGenerate(ctx, "ada", week10, false); err != nil {
		t.Fatalf("GetOrGenerate(week10) error = %v", err)
	}
	if _, err := svc.GetOrGenerate(ctx, "ada", week11, false); err != nil {
		t.Fatalf("GetOrGenerate(week11) error = %v", err)
	}

	summaries, err := svc.List(ctx, "ada", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List() returned %d summaries, want 2", len(summaries))
	}
	if !summaries[0].WeekStart.Equal(week11Mon) {
		t.Errorf("List() first summary week = %v, want newest %v", summaries[0].WeekStart, week11Mon)
	}
}
