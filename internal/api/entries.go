package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/streak"
	"github.com/murmur-hq/murmur/internal/week"
)

// handleGetEntries returns the user's entries, either the newest ones or
// everything inside one ISO week.
func (s *Server) handleGetEntries(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if label := r.URL.Query().Get("week"); label != "" {
		id, err := week.Parse(label)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries, err := s.entries.ListByUserAndRange(r.Context(), user.ID, id.Start(), id.Start().AddDate(0, 0, 7))
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"entries": entries,
			"count":   len(entries),
			"week":    id.String(),
		})
		return
	}

	limit := 50 // Default
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
		if limit < 1 {
			limit = 50
		}
	}

	entries, err := s.entries.ListRecent(r.Context(), user.ID, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleCreateEntry ingests one journal entry. Category and sentiment come
// pre-computed from the capture pipeline and are validated here, at the
// boundary.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var input struct {
		Timestamp       *time.Time `json:"timestamp"`
		Transcript      string     `json:"transcript"`
		DurationSeconds int        `json:"duration_seconds"`
		Category        string     `json:"category"`
		Sentiment       string     `json:"sentiment"`
		Keywords        []string   `json:"keywords"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	category, err := core.ParseCategory(input.Category)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sentiment, err := core.ParseSentiment(input.Sentiment)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.DurationSeconds < 0 {
		s.respondError(w, http.StatusBadRequest, "duration_seconds must not be negative")
		return
	}

	timestamp := time.Now().UTC()
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	now := time.Now().UTC()
	entry := &core.LogEntry{
		ID:              core.EntryID(uuid.New().String()),
		UserID:          user.ID,
		Timestamp:       timestamp,
		Transcript:      input.Transcript,
		DurationSeconds: input.DurationSeconds,
		Category:        category,
		Sentiment:       sentiment,
		Keywords:        input.Keywords,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.entries.Create(r.Context(), entry); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	state, advanced, err := s.tracker.RecordLog(r.Context(), user.ID, entry.Timestamp)
	if err != nil {
		// The entry row is already committed, so log and keep going
		s.log.Error("record streak for %s: %v", user.ID, err)
		state = user.Streak
	}

	if advanced {
		s.SendToUser(user.ID, "streak.updated", state)
		if streak.IsMilestone(state.StreakCount) {
			if _, err := s.notifications.SendStreakMilestone(r.Context(), user.ID, state.StreakCount); err != nil {
				s.log.Error("send streak milestone: %v", err)
			}
		}
	}

	s.SendToUser(user.ID, "entry.created", entry)

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"entry":  entry,
		"streak": state,
	})
}

// handleGetEntry returns a single entry
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	entryID := chi.URLParam(r, "entryID")

	entry, err := s.entries.GetByID(r.Context(), core.EntryID(entryID))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if entry.UserID != user.ID {
		// Same response as a missing entry so IDs cannot be probed
		s.respondError(w, http.StatusNotFound, core.ErrEntryNotFound.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, entry)
}

// handleDeleteEntry deletes a single entry
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	entryID := chi.URLParam(r, "entryID")

	entry, err := s.entries.GetByID(r.Context(), core.EntryID(entryID))
	if err != nil || entry.UserID != user.ID {
		s.respondError(w, http.StatusNotFound, core.ErrEntryNotFound.Error())
		return
	}

	if err := s.entries.Delete(r.Context(), entry.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// handleGetStreak returns the user's current streak state
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	state, err := s.users.GetStreak(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, state)
}
