// Package stream delivers review events to remote callers, one message per
// event, followed by a terminal sentinel.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sprite-ai/crev/internal/review"
)

// DoneEvent names the sentinel that tells a caller no more events follow.
const DoneEvent = "done"

// Sink is a transport for review events.
type Sink interface {
	// Send delivers one event and flushes it.
	Send(ev review.Event) error
	// Close writes the terminal sentinel. Calls after the first are no-ops.
	Close() error
}

// Pump forwards events to sink in order until the channel closes, then
// closes the sink. A send error stops the pump and is returned; the caller is
// expected to cancel the review. If ctx ends first, Pump returns ctx.Err()
// without writing the sentinel.
func Pump(ctx context.Context, events <-chan review.Event, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return sink.Close()
			}
			if err := sink.Send(ev); err != nil {
				return fmt.Errorf("sending %s event: %w", ev.Kind, err)
			}
		}
	}
}

func encode(ev review.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	return data, nil
}
