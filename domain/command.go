package domain

// Command is an inbound connection event. The three concrete commands
// mirror the wire contract one to one; the transport decodes a frame into
// exactly one of them and validates it before dispatch.
type Command interface {
	RoomID() RoomID
}

type JoinRoomCommand struct {
	Room string `json:"roomId" validate:"required,uuid4"`
	User string `json:"userId" validate:"required,uuid4"`
}

func (c JoinRoomCommand) RoomID() RoomID { return RoomID(c.Room) }

type LeaveRoomCommand struct {
	Room string `json:"roomId" validate:"required,uuid4"`
	User string `json:"userId" validate:"required,uuid4"`
}

func (c LeaveRoomCommand) RoomID() RoomID { return RoomID(c.Room) }

type SendMessageCommand struct {
	User string `json:"userId" validate:"required,uuid4"`
	Room string `json:"roomId" validate:"required,uuid4"`
	Text string `json:"text"`
}

func (c SendMessageCommand) RoomID() RoomID { return RoomID(c.Room) }
