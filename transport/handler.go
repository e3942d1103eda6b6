package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"chat-hub/domain"
	"chat-hub/services"
)

// Handler serves the WebSocket endpoint. One goroutine per connection
// reads and dispatches inbound commands synchronously, so an in-flight
// durable write always completes before disconnect cleanup runs; a second
// goroutine pumps the connection's sink out to the peer.
type Handler struct {
	chat       services.IChatService
	bufferSize int
	log        *slog.Logger
}

func NewHandler(chat services.IChatService, bufferSize int, log *slog.Logger) *Handler {
	return &Handler{
		chat:       chat,
		bufferSize: bufferSize,
		log:        log.With("component", "ws"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	connID := domain.NewConnID()
	log := h.log.With("conn_id", connID)
	log.Info("Connection established")

	sink := NewSink(h.bufferSize)
	h.chat.Connect(connID, sink)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writePump(ctx, conn, sink, log)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			log.Info("Connection gone", "reason", err)
			break
		}
		if typ != websocket.MessageText {
			continue
		}
		h.dispatch(ctx, connID, data, log)
	}

	// Cleanup broadcasts must reach the remaining subscribers even though
	// this request's context is ending, hence the fresh context.
	h.chat.Disconnect(context.Background(), connID)
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) dispatch(ctx context.Context, connID domain.ConnID, data []byte, log *slog.Logger) {
	cmd, err := DecodeCommand(data)
	if err != nil {
		log.Warn("Rejected inbound event", "error", err)
		return
	}

	switch c := cmd.(type) {
	case domain.JoinRoomCommand:
		h.chat.JoinRoom(ctx, connID, domain.RoomID(c.Room), domain.UserID(c.User))
	case domain.LeaveRoomCommand:
		h.chat.LeaveRoom(ctx, connID, domain.RoomID(c.Room), domain.UserID(c.User))
	case domain.SendMessageCommand:
		h.chat.SendMessage(ctx, domain.UserID(c.User), domain.RoomID(c.Room), c.Text)
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, sink *Sink, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-sink.Events():
			data, err := EncodeEvent(e)
			if err != nil {
				log.Error("Failed to encode outbound event", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				log.Warn("Outbound write failed", "error", err)
				return
			}
		}
	}
}
