package transport

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

// The wire contract is six tagged JSON events: joinRoom, leaveRoom and
// sendMessage inbound; userJoined, userLeft and newMessage outbound.
// Both directions are handled exhaustively here so a malformed or unknown
// frame never reaches the core.

var validate = validator.New()

// DecodeCommand sniffs the "type" tag of an inbound frame and decodes it
// into the matching command, validated before dispatch.
func DecodeCommand(data []byte) (domain.Command, error) {
	switch typ := gjson.GetBytes(data, "type").String(); typ {
	case "joinRoom":
		var cmd domain.JoinRoomCommand
		return decodeInto(data, &cmd)
	case "leaveRoom":
		var cmd domain.LeaveRoomCommand
		return decodeInto(data, &cmd)
	case "sendMessage":
		var cmd domain.SendMessageCommand
		return decodeInto(data, &cmd)
	default:
		return nil, fmt.Errorf("unknown event type %q", typ)
	}
}

func decodeInto[T domain.Command](data []byte, cmd *T) (domain.Command, error) {
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("malformed event payload: %w", err)
	}
	if err := validate.Struct(*cmd); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return *cmd, nil
}

// EncodeEvent wraps an outbound event in its tagged envelope.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.UserJoined:
		return json.Marshal(struct {
			Type string `json:"type"`
			event.UserJoined
		}{Type: evt.Name(), UserJoined: evt})
	case event.UserLeft:
		return json.Marshal(struct {
			Type string `json:"type"`
			event.UserLeft
		}{Type: evt.Name(), UserLeft: evt})
	case event.NewMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			event.NewMessage
		}{Type: evt.Name(), NewMessage: evt})
	default:
		return nil, fmt.Errorf("unsupported event type %T", e)
	}
}
