package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-hub/domain/event"
)

func TestSink_Buffers_Events(t *testing.T) {
	req := require.New(t)
	sink := NewSink(2)

	// When two events are consumed
	req.NoError(sink.Consume(context.Background(), event.UserLeft{User: "u1", Room: "r1"}))
	req.NoError(sink.Consume(context.Background(), event.UserLeft{User: "u2", Room: "r1"}))

	// Then the write pump can drain them in order
	first := <-sink.Events()
	req.Equal(event.UserLeft{User: "u1", Room: "r1"}, first)
}

func TestSink_Full_Buffer_Drops_Instead_Of_Blocking(t *testing.T) {
	req := require.New(t)
	sink := NewSink(1)

	req.NoError(sink.Consume(context.Background(), event.UserLeft{User: "u1", Room: "r1"}))

	// When the buffer is full
	err := sink.Consume(context.Background(), event.UserLeft{User: "u2", Room: "r1"})

	// Then the event is refused immediately
	req.Error(err)
}
