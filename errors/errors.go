package errors

import "fmt"

var (
	ErrNotFound    = fmt.Errorf("record not found")
	ErrUserExists  = fmt.Errorf("username already taken")
	ErrRoomExists  = fmt.Errorf("room name already taken")
	ErrWorkerPanic = fmt.Errorf("worker panic")
)
