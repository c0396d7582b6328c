package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

// Change event types published by the API.
const (
	EventTaskCreated        = "task.created"
	EventTaskUpdated        = "task.updated"
	EventTaskDeleted        = "task.deleted"
	EventSubtaskCreated     = "subtask.created"
	EventSubtaskUpdated     = "subtask.updated"
	EventSubtaskDeleted     = "subtask.deleted"
	EventPreferencesUpdated = "preferences.updated"
)

// Client is one websocket connection of a signed-in user.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// Message is the wire format of every websocket frame line.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type envelope struct {
	userID string
	data   []byte
}

type reply struct {
	client *Client
	data   []byte
}

// ReadPump reads client frames until the connection drops. Clients only
// ever send pings; anything else is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("ignoring malformed websocket message", "user_id", c.UserID, "error", err)
			continue
		}

		if msg.Type == "ping" {
			pong, err := json.Marshal(Message{
				Type: "pong",
				Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)},
			})
			if err == nil {
				c.Hub.reply(c, pong)
			}
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks connections per user and delivers each user's change events to
// all of that user's connections.
type Hub struct {
	clients    map[string]map[*Client]bool
	publish    chan envelope
	replies    chan reply
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		publish:    make(chan envelope, 64),
		replies:    make(chan reply),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for every connection of userID. It never blocks
// the caller on slow connections.
func (h *Hub) Publish(userID, eventType string, data any) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		slog.Error("failed to marshal websocket message", "type", eventType, "error", err)
		return
	}

	select {
	case h.publish <- envelope{userID: userID, data: payload}:
	case <-h.done:
	default:
		slog.Warn("hub publish queue full, dropping event", "type", eventType, "user_id", userID)
	}
}

// reply sends data to a single connection if it is still registered.
func (h *Hub) reply(client *Client, data []byte) {
	select {
	case h.replies <- reply{client: client, data: data}:
	case <-h.done:
	}
}

// Run owns the connection map until ctx is done, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, conns := range h.clients {
			for client := range conns {
				close(client.Send)
			}
		}
		h.clients = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			conns := h.clients[client.UserID]
			if conns == nil {
				conns = make(map[*Client]bool)
				h.clients[client.UserID] = conns
			}
			conns[client] = true
			slog.Debug("websocket client connected", "user_id", client.UserID, "connections", len(conns))
		case client := <-h.unregister:
			h.remove(client)
		case r := <-h.replies:
			if h.clients[r.client.UserID][r.client] {
				select {
				case r.client.Send <- r.data:
				default:
				}
			}
		case env := <-h.publish:
			for client := range h.clients[env.userID] {
				select {
				case client.Send <- env.data:
				default:
					slog.Warn("client send buffer full, removing client", "user_id", client.UserID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns := h.clients[client.UserID]
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.Send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	slog.Debug("websocket client disconnected", "user_id", client.UserID)
}
