package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kalambet/deskmate/internal/assistant"
)

// Message types on /ws.
const (
	wsAsk      = "ask"
	wsThinking = "thinking"
	wsReply    = "reply"
	wsBusy     = "busy"
	wsError    = "error"
)

const wsWriteTimeout = 10 * time.Second

// wsMessage is the envelope for both directions.
type wsMessage struct {
	Type  string           `json:"type"`
	Text  string           `json:"text,omitempty"`
	Reply *assistant.Reply `json:"reply,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The server only listens on 127.0.0.1 and requires the token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket drives one widget connection. The client sends
// {"type":"ask","text":"..."}; the server answers with a "thinking" marker
// and later exactly one "reply". While a reply is pending further asks
// are refused with "busy", mirroring a widget that hides its input.
func handleWebSocket(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}
		c := &wsConn{conn: conn}
		defer conn.Close()

		var wg sync.WaitGroup
		defer wg.Wait()

		// Pending questions are abandoned once the widget disconnects.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Debug("websocket read ended", "error", err)
				}
				return
			}

			if msg.Type != wsAsk || strings.TrimSpace(msg.Text) == "" {
				c.send(wsMessage{Type: wsError, Text: "expected {\"type\":\"ask\",\"text\":\"...\"}"})
				continue
			}
			if !c.tryBegin() {
				c.send(wsMessage{Type: wsBusy, Text: "a question is already pending"})
				continue
			}

			c.send(wsMessage{Type: wsThinking, Text: assistant.ThinkingText})
			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				reply := deps.Assistant.Handle(ctx, text)
				c.finish(wsMessage{Type: wsReply, Reply: &reply})
			}(msg.Text)
		}
	}
}

// wsConn serializes writes and tracks the single pending question.
type wsConn struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending bool
}

func (c *wsConn) tryBegin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return false
	}
	c.pending = true
	return true
}

// finish delivers the reply and accepts new questions again, in one step
// so a new "thinking" can never overtake the reply.
func (c *wsConn) finish(m wsMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	c.write(m)
}

func (c *wsConn) send(m wsMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(m)
}

func (c *wsConn) write(m wsMessage) {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteJSON(m); err != nil {
		slog.Debug("websocket write failed", "error", err)
	}
}
