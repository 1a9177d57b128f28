package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/murmur-hq/murmur/internal/core"
	"github.com/murmur-hq/murmur/internal/notifications"
)

const (
	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsPingInterval   = 54 * time.Second // Must be shorter than wsPongTimeout
	wsMaxMessageSize = 512
	wsSendBuffer     = 16
)

// WebSocketMessage is the envelope for all messages pushed to clients
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// targetedMessage addresses one specific connection rather than all of them
type targetedMessage struct {
	client *wsClient
	msg    WebSocketMessage
}

// userMessage addresses every connection belonging to one user
type userMessage struct {
	userID core.UserID
	msg    WebSocketMessage
}

// WebSocketHub manages client connections and message fan-out.
// The Run loop is the only goroutine that touches the clients map or
// closes a client's send channel.
type WebSocketHub struct {
	upgrader websocket.Upgrader

	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan WebSocketMessage
	direct     chan targetedMessage
	toUser     chan userMessage
	done       chan struct{}

	count int
	mu    sync.RWMutex
}

// NewWebSocketHub creates a new hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan WebSocketMessage, wsSendBuffer),
		direct:     make(chan targetedMessage, wsSendBuffer),
		toUser:     make(chan userMessage, wsSendBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until Stop is called
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer, cut it loose
					h.drop(client)
				}
			}

		case tm := <-h.direct:
			if _, ok := h.clients[tm.client]; !ok {
				continue
			}
			select {
			case tm.client.send <- tm.msg:
			default:
				h.drop(tm.client)
			}

		case um := <-h.toUser:
			for client := range h.clients {
				if client.userID != um.userID {
					continue
				}
				select {
				case client.send <- um.msg:
				default:
					h.drop(client)
				}
			}

		case <-h.done:
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*wsClient]bool)
			h.setCount(0)
			return
		}
	}
}

func (h *WebSocketHub) drop(client *wsClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

// Stop shuts down the hub and disconnects all clients
func (h *WebSocketHub) Stop() {
	close(h.done)
}

// Broadcast queues a message for every connected client
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *WebSocketHub) send(tm targetedMessage) {
	select {
	case h.direct <- tm:
	case <-h.done:
	}
}

// SendToUser queues a message for every connection belonging to one user
func (h *WebSocketHub) SendToUser(userID core.UserID, msg WebSocketMessage) {
	select {
	case h.toUser <- userMessage{userID: userID, msg: msg}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *WebSocketHub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// wsClient is one authenticated WebSocket connection. It doubles as a
// notifications.Subscriber so stored notifications reach the socket too.
type wsClient struct {
	hub    *WebSocketHub
	conn   *websocket.Conn
	userID core.UserID
	id     string
	send   chan WebSocketMessage
}

// ID returns the connection's session ID
func (c *wsClient) ID() string { return c.id }

// UserID returns the authenticated user behind this connection
func (c *wsClient) UserID() core.UserID { return c.userID }

// Notify delivers a stored notification to this connection. It routes
// through the hub so a connection that just closed is skipped instead of
// written to.
func (c *wsClient) Notify(n notifications.Notification) {
	c.hub.send(targetedMessage{
		client: c,
		msg: WebSocketMessage{
			Type:      "notification",
			Data:      n,
			Timestamp: time.Now(),
		},
	})
}

// readPump drains inbound frames. Clients do not send application
// messages; the read loop exists to process pongs and detect disconnects.
func (c *wsClient) readPump(notifier *notifications.Service) {
	defer func() {
		notifier.Unsubscribe(c.id)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes all writes to the connection
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
