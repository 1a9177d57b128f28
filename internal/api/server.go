// Package api provides the HTTP API server for Murmur.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/logging"
	"github.com/murmur-hq/murmur/internal/notifications"
	"github.com/murmur-hq/murmur/internal/reflection"
	"github.com/murmur-hq/murmur/internal/storage"
	"github.com/murmur-hq/murmur/internal/streak"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	db    *storage.DB
	wsHub *WebSocketHub

	// Stores
	users     *storage.UserStore
	entries   *storage.EntryStore
	summaries *storage.SummaryStore

	// Services
	reflections   *reflection.Service
	tracker       *streak.Tracker
	notifications *notifications.Service

	log *logging.Logger
}

// Config for the server
type Config struct {
	Host string
	Port int
	DB   *storage.DB

	// Optional; built from DB when nil
	Reflections   *reflection.Service
	Tracker       *streak.Tracker
	Notifications *notifications.Service

	Logger *logging.Logger
}

// New creates a new API server
func New(cfg Config) *Server {
	users := storage.NewUserStore(cfg.DB)
	entries := storage.NewEntryStore(cfg.DB)
	summaries := storage.NewSummaryStore(cfg.DB)

	// Build the services the caller did not wire
	reflections := cfg.Reflections
	if reflections == nil {
		reflections = reflection.NewService(entries, summaries)
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = streak.NewTracker(users)
	}
	notifier := cfg.Notifications
	if notifier == nil {
		notifier = notifications.NewService(cfg.DB)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.WithField("component", "api")
	}

	s := &Server{
		db:            cfg.DB,
		users:         users,
		entries:       entries,
		summaries:     summaries,
		reflections:   reflections,
		tracker:       tracker,
		notifications: notifier,
		wsHub:         NewWebSocketHub(),
		log:           log,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Everything else needs a token
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/me", s.handleGetMe)
			r.Get("/stats", s.handleGetStats)

			// Entries
			r.Get("/entries", s.handleGetEntries)
			r.Post("/entries", s.handleCreateEntry)
			r.Get("/entries/{entryID}", s.handleGetEntry)
			r.Delete("/entries/{entryID}", s.handleDeleteEntry)

			// Weekly reflections
			r.Get("/reflections", s.handleGetReflections)
			r.Get("/reflections/{week}", s.handleGetReflection)
			r.Post("/reflections/{week}/generate", s.handleGenerateReflection)
			r.Get("/reflections/{week}/digest", s.handleGetReflectionDigest)

			// Streak
			r.Get("/streak", s.handleGetStreak)

			// Notifications
			r.Get("/notifications", s.handleGetNotifications)
			r.Get("/notifications/unread-count", s.handleGetUnreadCount)
			r.Post("/notifications/read-all", s.handleMarkAllNotificationsRead)
			r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		})
	})

	// WebSocket
	r.Get("/ws", s.handleWebSocket)

	s.router = r
}

// Router returns the configured handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Start WebSocket hub
	go s.wsHub.Run()

	s.log.Info("API server starting on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// SendToUser sends a message to all of one user's WebSocket connections
func (s *Server) SendToUser(userID core.UserID, msgType string, data interface{}) {
	s.wsHub.SendToUser(userID, WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.wsHub.ClientCount(),
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	entryCount, err := s.entries.CountByUser(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaryCount, err := s.summaries.CountByUser(r.Context(), user.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries":        entryCount,
		"reflections":    summaryCount,
		"streak_count":   user.Streak.StreakCount,
		"longest_streak": user.Streak.LongestStreak,
		"clients":        s.wsHub.ClientCount(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket dials, so the token may
	// arrive as a query parameter instead.
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}

	user, err := s.authenticateToken(r.Context(), token)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid or missing API token")
		return
	}

	conn, err := s.wsHub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		hub:    s.wsHub,
		conn:   conn,
		userID: user.ID,
		id:     uuid.New().String(),
		send:   make(chan WebSocketMessage, wsSendBuffer),
	}

	select {
	case s.wsHub.register <- client:
	case <-s.wsHub.done:
		conn.Close()
		return
	}
	s.notifications.Subscribe(client)

	go client.writePump()
	go client.readPump(s.notifications)
}
