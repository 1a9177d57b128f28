package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/notifications"
)

// handleGetNotifications returns the user's notifications with optional filters
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	filter := notifications.Filter{}
	if k := r.URL.Query().Get("kind"); k != "" {
		filter.Kind = notifications.Kind(k)
	}
	if u := r.URL.Query().Get("unread"); u != "" {
		filter.UnreadOnly = u == "true"
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}

	notifs, err := s.notifications.List(r.Context(), user.ID, filter)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifs,
		"count":         len(notifs),
	})
}

// handleGetUnreadCount returns how many notifications are unread
func (s *Server) handleGetUnreadCount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	count, err := s.notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// handleMarkNotificationRead marks one notification as read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	id := chi.URLParam(r, "id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := s.notifications.MarkRead(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, core.ErrNotificationNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "marked as read"})
}

// handleMarkAllNotificationsRead marks all of the user's notifications as read
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := s.notifications.MarkAllRead(r.Context(), user.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "all marked as read"})
}
