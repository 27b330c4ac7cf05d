package dto

import (
	"time"

	"github.com/veilchat/veil/internal/rooms"
	"github.com/veilchat/veil/internal/websocket"
)

type CreateRoomRequest struct {
	ExpirationMinutes Minutes `json:"expirationMinutes"`
	Password          string  `json:"password"`
	RoomName          string  `json:"roomName"`
}

type CreateRoomResponse struct {
	RoomID         string    `json:"roomId"`
	RoomName       string    `json:"roomName"`
	ExpirationTime time.Time `json:"expirationTime"`
}

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`

	// Ticket replaces the password when issued by the REST join endpoint.
	Ticket string `json:"ticket,omitempty"`
}

type JoinRoomSuccess struct {
	Success        bool                       `json:"success"`
	Messages       []websocket.MessagePayload `json:"messages"`
	Users          []rooms.Member             `json:"users"`
	RoomName       string                     `json:"roomName"`
	ExpirationTime time.Time                  `json:"expirationTime"`
}

type JoinRoomFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeleteRoomRequest struct {
	Password string `json:"password"`
}

type RoomInfoResponse struct {
	RoomID           string    `json:"roomId"`
	RoomName         string    `json:"roomName"`
	ExpirationTime   time.Time `json:"expirationTime"`
	ParticipantCount int       `json:"participantCount"`
}
