package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sprite-ai/crev/internal/stream"
	"github.com/sprite-ai/crev/internal/submission"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// closeGrace is how long to wait for the client's close reply.
const closeGrace = 5 * time.Second

// WebSocket message types from client.
const wsMsgReview = "review"

// WebSocket message types to client, besides the review event kinds.
const wsMsgError = "error"

// handleWebSocket waits for one review message, streams that review's
// events, then closes the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.bodyLimit())

	for {
		var msg stream.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case wsMsgReview:
			var req submission.Request
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid review data")
				continue
			}
			s.streamWSReview(r.Context(), conn, req)
			return
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

// streamWSReview runs the review while a reader goroutine watches for the
// client going away, which cancels the review.
func (s *Server) streamWSReview(ctx context.Context, conn *websocket.Conn, req submission.Request) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err := stream.Pump(ctx, s.reviews.Submit(ctx, req), stream.NewWebSocket(conn))
	if err != nil && ctx.Err() == nil {
		s.log.Warn("websocket stream ended early", zap.Error(err))
	}

	// The reader exits on the client's close reply or when the connection
	// is closed below.
	select {
	case <-readerDone:
	case <-ctx.Done():
	case <-time.After(closeGrace):
	}
	conn.Close()
	<-readerDone
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	data, _ := json.Marshal(map[string]string{"message": errMsg})
	if err := conn.WriteJSON(stream.Message{Type: wsMsgError, Data: data}); err != nil {
		s.log.Warn("ws write", zap.Error(err))
	}
}
