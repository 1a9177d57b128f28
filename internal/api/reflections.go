package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/digest"
	"github.com/murmur-hq/murmur/internal/week"
)

// weekParam parses the {week} URL parameter ("2025-W11")
func weekParam(r *http.Request) (week.Identifier, error) {
	return week.Parse(chi.URLParam(r, "week"))
}

func (s *Server) respondSummaryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrSummaryNotReady), errors.Is(err, core.ErrSummaryNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleGetReflections returns the user's stored summaries, newest first
func (s *Server) handleGetReflections(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	limit := 0 // Service default
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	summaries, err := s.reflections.List(r.Context(), user.ID, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"reflections": summaries,
		"count":       len(summaries),
	})
}

// handleGetReflection returns the summary for one ISO week, generating it on
// first access.
func (s *Server) handleGetReflection(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	id, err := weekParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.reflections.GetOrGenerate(r.Context(), user.ID, id, false)
	if err != nil {
		s.respondSummaryError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

// handleGenerateReflection recomputes the week from its entries and
// overwrites the stored summary.
func (s *Server) handleGenerateReflection(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	id, err := weekParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.reflections.GetOrGenerate(r.Context(), user.ID, id, true)
	if err != nil {
		s.respondSummaryError(w, err)
		return
	}

	s.SendToUser(user.ID, "reflection.generated", summary)

	s.respondJSON(w, http.StatusOK, summary)
}

// handleGetReflectionDigest renders the week's summary as text or markdown
func (s *Server) handleGetReflectionDigest(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	id, err := weekParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	format, err := digest.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.reflections.GetOrGenerate(r.Context(), user.ID, id, false)
	if err != nil {
		s.respondSummaryError(w, err)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == digest.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(digest.Render(summary, format)))
}
