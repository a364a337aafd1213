package stream

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/crev/internal/review"
)

const writeWait = 10 * time.Second

// Message is the WebSocket envelope in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WebSocket writes each event as a {"type": kind, "data": event} text
// message. Close sends {"type":"done"} and a normal-closure close frame; the
// connection itself stays owned by the caller.
type WebSocket struct {
	conn   *websocket.Conn
	closed bool
}

// NewWebSocket wraps an upgraded connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

func (s *WebSocket) Send(ev review.Event) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return s.write(Message{Type: string(ev.Kind), Data: data})
}

func (s *WebSocket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.write(Message{Type: DoneEvent}); err != nil {
		return err
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "review complete")
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (s *WebSocket) write(msg Message) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}
