package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/CrowderSoup/taskflow-pro/services"
)

// RealtimeHandler upgrades authenticated requests to change-stream websockets.
type RealtimeHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeHandler allows browser origins listed in allowedOrigins; "*"
// allows any.
func NewRealtimeHandler(hub *services.Hub, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *RealtimeHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: id.UserID,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
