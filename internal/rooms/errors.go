package rooms

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExpired     = errors.New("room has expired")
	ErrInvalidPassword = errors.New("invalid password")
	ErrNicknameTaken   = errors.New("nickname is already in use in this room")
	ErrInvalidNickname = errors.New("nickname must not be empty")
	ErrNotMember       = errors.New("not a member of this room")
)
