package chat

import "time"

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// SessionInfo is a point-in-time view of one session.
type SessionInfo struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	RoomID      int       `json:"room_id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Errors carry a stable code that is also sent to clients in Error frames.
var (
	ErrSessionsFull    = errorString("sessions_full")
	ErrRoomsFull       = errorString("rooms_full")
	ErrRoomFull        = errorString("room_full")
	ErrRoomNotFound    = errorString("room_not_found")
	ErrAlreadyJoined   = errorString("already_joined")
	ErrNotInRoom       = errorString("not_in_room")
	ErrRoomNameInvalid = errorString("room_name_invalid")
	ErrUsernameInvalid = errorString("username_invalid")
	ErrFileTooLarge    = errorString("file_too_large")
	ErrSessionClosed   = errorString("session_closed")
)

type errorString string

func (e errorString) Error() string { return string(e) }
