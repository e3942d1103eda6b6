// Package transport is the WebSocket gateway: it upgrades connections,
// decodes the tagged wire events into commands, dispatches them to the
// chat service and pumps outbound events back to the client.
package transport

import (
	"context"
	"fmt"

	"chat-hub/domain/event"
)

// Sink bridges the fanout to one connection. Consume is called by the
// broadcaster and redirects the event through the connection's buffered
// channel; the write pump drains it from there. A full buffer drops the
// event instead of blocking the broadcast.
type Sink struct {
	events chan event.DomainEvent
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize)}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("subscriber buffer full, event %s dropped", e.Name())
	}
}

func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
