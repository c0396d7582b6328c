package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Event is a change notification for the signed-in identity.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Subscribe streams change events to fn until ctx is done or the connection
// drops. It returns nil when ctx ends the stream.
func (c *Client) Subscribe(ctx context.Context, fn func(Event)) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	u, err := url.Parse(c.cfg.URL + "/api/ws")
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("apikey", c.cfg.AnonKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		// The server batches queued messages into one frame, newline separated.
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				continue
			}
			fn(ev)
		}
	}
}
