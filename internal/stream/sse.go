package stream

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sprite-ai/crev/internal/review"
)

// ErrStreamingUnsupported is returned when the response cannot be flushed.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// SSE writes events as server-sent events:
//
//	event: <kind>
//	data: <json>
//
// and ends with "event: done" carrying an empty object.
type SSE struct {
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

// NewSSE prepares w for event streaming and writes the response headers.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSE{w: w, flusher: flusher}, nil
}

func (s *SSE) Send(ev review.Event) error {
	data, err := encode(ev)
	if err != nil {
		return err
	}
	return s.write(string(ev.Kind), data)
}

func (s *SSE) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.write(DoneEvent, []byte("{}"))
}

func (s *SSE) write(event string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
