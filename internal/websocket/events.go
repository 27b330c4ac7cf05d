package websocket

import (
	"encoding/json"
	"time"

	"github.com/veilchat/veil/internal/models"
)

// EventType tags every frame on the wire.
type EventType string

const (
	// Keepalive
	EventPing EventType = "ping"
	EventPong EventType = "pong"

	// Client requests
	EventCreateRoom  EventType = "createRoom"
	EventJoinRoom    EventType = "joinRoom"
	EventSendMessage EventType = "sendMessage"
	EventLeaveRoom   EventType = "leaveRoom"

	// Correlated responses
	EventCreateRoomResult EventType = "createRoomResult"
	EventJoinRoomResult   EventType = "joinRoomResult"

	// Server pushes
	EventUserJoined  EventType = "userJoined"
	EventUserLeft    EventType = "userLeft"
	EventUserCount   EventType = "userCount"
	EventRoomExpired EventType = "roomExpired"
	EventMessage     EventType = "message"
	EventError       EventType = "error"
)

// Event is the JSON envelope exchanged over a connection. Responses echo the
// RequestID of the request that produced them; pushes carry none.
type Event struct {
	Type      EventType       `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessagePayload is the wire form of a chat message, pushed to every member
// of the room and returned in history backfills.
type MessagePayload struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"roomId"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Kind           string    `json:"kind"`
	AttachmentURL  string    `json:"attachmentUrl,omitempty"`
	AttachmentType string    `json:"attachmentType,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewMessagePayload(m *models.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID.String(),
		RoomID:         m.RoomID.String(),
		Sender:         m.Sender,
		Content:        m.Content,
		Kind:           m.Kind,
		AttachmentURL:  m.AttachmentURL,
		AttachmentType: m.AttachmentType,
		Timestamp:      m.CreatedAt,
	}
}
