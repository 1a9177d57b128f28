package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/logging"
	"github.com/murmur-hq/murmur/internal/notifications"
	"github.com/murmur-hq/murmur/internal/testutil"
)

// testServer creates a server backed by an in-memory database
func testServer(t *testing.T) *Server {
	t.Helper()

	srv := New(Config{
		DB:     testutil.TestDB(t),
		Logger: logging.New(logging.ERROR, io.Discard),
	})

	go srv.wsHub.Run()

	t.Cleanup(func() {
		srv.wsHub.Stop()
	})

	return srv
}

// testUser creates a user whose API secret is "test-secret"
func testUser(t *testing.T, srv *Server, id string) *core.User {
	t.Helper()

	now := time.Now().UTC()
	user := &core.User{
		ID:        core.UserID(id),
		Name:      "Test User",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := srv.users.Create(context.Background(), user, "test-secret"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user
}

// authedRequest builds a request that already passed requireAuth
func authedRequest(user *core.User, method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), userContextKey, user)
	return req.WithContext(ctx)
}

// ============================================================================
// Health & Auth
// ============================================================================

func TestAPI_Health(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", resp["status"])
	}
}

func TestAPI_Auth_MissingToken(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAPI_Auth_BadSecret(t *testing.T) {
	srv := testServer(t)
	user := testUser(t, srv, "ada")

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+string(user.ID)+".wrong-secret")
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestAPI_Auth_ValidToken(t *testing.T) {
	srv := testServer(t)
	user := testUser(t, srv, "ada")

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+string(user.ID)+".test-secret")
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["id"] != "ada" {
		t.Errorf("expected id 'ada', got %v", resp["id"])
	}
}

func TestAPI_Auth_MalformedToken(t *testing.T) {
	srv := testServer(t)
	testUser(t, srv, "ada")

	// No "." separator between user ID and secret
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer adatest-secret")
	rr := httptest.NewRecorder()

	srv.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

// ============================================================================
// Stats
// ============================================================================

func TestAPI_GetStats(t *testing.T) {
	srv := testServer(t)
	user := testUser(t, srv, "ada")

	seedEntry(t, srv, user.ID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), core.CategoryWork, core.SentimentPositive, 60, nil)
	seedEntry(t, srv, user.ID, time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), core.CategoryHealth, core.SentimentNeutral, 30, nil)

	req := authedRequest(user, "GET", "/stats", nil)
	rr := httptest.NewRecorder()

	srv.handleGetStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["entries"] != float64(2) {
		t.Errorf("expected 2 entries, got %v", resp["entries"])
	}
	if resp["reflections"] != float64(0) {
		t.Errorf("expected 0 reflections, got %v", resp["reflections"])
	}
}

// ============================================================================
// Response helpers
// ============================================================================

func TestAPI_RespondJSON(t *testing.T) {
	srv := testServer(t)

	rr := httptest.NewRecorder()
	srv.respondJSON(rr, http.StatusOK, map[string]string{"test": "value"})

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected Content-Type application/json")
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["test"] != "value" {
		t.Errorf("expected test='value', got %v", resp["test"])
	}
}

func TestAPI_RespondError(t *testing.T) {
	srv := testServer(t)

	rr := httptest.NewRecorder()
	srv.respondError(rr, http.StatusBadRequest, "test error")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)

	if resp["error"] != "test error" {
		t.Errorf("expected error='test error', got %v", resp["error"])
	}
}

// ============================================================================
// WebSocket hub
// ============================================================================

func TestAPI_Broadcast(t *testing.T) {
	srv := testServer(t)

	// Should not panic when broadcasting with no clients
	srv.Broadcast("test.event", map[string]string{"key": "value"})
}

func TestWebSocketHub_RunAndBroadcast(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	// Give hub time to start
	time.Sleep(10 * time.Millisecond)

	// Should not panic with no clients
	hub.Broadcast(WebSocketMessage{
		Type:      "test",
		Data:      "data",
		Timestamp: time.Now(),
	})
}

func TestWebSocketHub_SendToUser(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	ada := &wsClient{hub: hub, userID: "ada", id: "conn-1", send: make(chan WebSocketMessage, wsSendBuffer)}
	grace := &wsClient{hub: hub, userID: "grace", id: "conn-2", send: make(chan WebSocketMessage, wsSendBuffer)}
	hub.register <- ada
	hub.register <- grace

	hub.SendToUser("ada", WebSocketMessage{Type: "entry.created", Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	select {
	case msg := <-ada.send:
		if msg.Type != "entry.created" {
			t.Errorf("expected type 'entry.created', got %q", msg.Type)
		}
	default:
		t.Error("ada's connection should have received the message")
	}

	select {
	case msg := <-grace.send:
		t.Errorf("grace's connection should not receive ada's message, got %v", msg)
	default:
	}
}

func TestWebSocketHub_NotifyRoutesToOneConnection(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	first := &wsClient{hub: hub, userID: "ada", id: "conn-1", send: make(chan WebSocketMessage, wsSendBuffer)}
	second := &wsClient{hub: hub, userID: "ada", id: "conn-2", send: make(chan WebSocketMessage, wsSendBuffer)}
	hub.register <- first
	hub.register <- second

	first.Notify(notifications.Notification{ID: "n1", UserID: "ada", Title: "hello"})
	time.Sleep(50 * time.Millisecond)

	if len(first.send) != 1 {
		t.Errorf("first connection should hold 1 message, got %d", len(first.send))
	}
	if len(second.send) != 0 {
		t.Errorf("second connection should hold 0 messages, got %d", len(second.send))
	}
}

func TestWebSocketHub_ClientCount(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()

	client := &wsClient{hub: hub, userID: "ada", id: "conn-1", send: make(chan WebSocketMessage, wsSendBuffer)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if got := hub.ClientCount(); got != 1 {
		t.Errorf("ClientCount() = %d, want 1", got)
	}

	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() after Stop = %d, want 0", got)
	}
}
