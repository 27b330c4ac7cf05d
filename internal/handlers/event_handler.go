package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/chat"
	"github.com/veilchat/veil/internal/handlers/dto"
	"github.com/veilchat/veil/internal/rooms"
	ws "github.com/veilchat/veil/internal/websocket"
	"github.com/veilchat/veil/pkg/auth"
)

// EventHandler dispatches inbound websocket events to the room core.
type EventHandler struct {
	log      *slog.Logger
	registry *rooms.Registry
	relay    *chat.Relay
	hub      *ws.Hub
	tickets  *auth.TicketManager
}

func NewEventHandler(log *slog.Logger, registry *rooms.Registry, relay *chat.Relay, hub *ws.Hub, tickets *auth.TicketManager) *EventHandler {
	return &EventHandler{
		log:      log,
		registry: registry,
		relay:    relay,
		hub:      hub,
		tickets:  tickets,
	}
}

func (h *EventHandler) HandleEvent(client *ws.Client, ev *ws.Event) error {
	switch ev.Type {
	case ws.EventPing:
		return client.SendEvent(ws.EventPong, ev.RequestID, nil)

	case ws.EventCreateRoom:
		return h.handleCreateRoom(client, ev)

	case ws.EventJoinRoom:
		return h.handleJoinRoom(client, ev)

	case ws.EventSendMessage:
		return h.handleSendMessage(client, ev)

	case ws.EventLeaveRoom:
		return h.handleLeaveRoom(client, ev)

	default:
		h.log.Debug("unknown event type", "type", ev.Type, "client", client.ID)
		return ws.ErrInvalidEvent
	}
}

func (h *EventHandler) handleCreateRoom(client *ws.Client, ev *ws.Event) error {
	var req dto.CreateRoomRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	duration := time.Duration(req.ExpirationMinutes) * time.Minute
	room, err := h.registry.Create(context.Background(), duration, req.Password, req.RoomName)
	if err != nil {
		h.log.Error("create room", "err", err)
		return client.SendEvent(ws.EventCreateRoomResult, ev.RequestID, map[string]string{
			"error": "Failed to create room",
		})
	}

	return client.SendEvent(ws.EventCreateRoomResult, ev.RequestID, dto.CreateRoomResponse{
		RoomID:         room.ID.String(),
		RoomName:       room.Name,
		ExpirationTime: room.ExpiresAt,
	})
}

func (h *EventHandler) handleJoinRoom(client *ws.Client, ev *ws.Event) error {
	var req dto.JoinRoomRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	room, nickname, err := h.resolveJoin(&req)
	if err != nil {
		return h.joinFailure(client, ev.RequestID, err)
	}

	if _, err := h.hub.Bind(client, room, nickname); err != nil {
		return h.joinFailure(client, ev.RequestID, err)
	}

	history, err := h.relay.History(context.Background(), room.ID)
	if err != nil {
		h.log.Warn("history backfill failed", "room", room.ID, "err", err)
	}
	messages := make([]ws.MessagePayload, 0, len(history))
	for i := range history {
		messages = append(messages, ws.NewMessagePayload(&history[i]))
	}

	return client.SendEvent(ws.EventJoinRoomResult, ev.RequestID, dto.JoinRoomSuccess{
		Success:        true,
		Messages:       messages,
		Users:          room.Members(),
		RoomName:       room.Name,
		ExpirationTime: room.ExpiresAt,
	})
}

// resolveJoin validates access either through a ticket issued over REST or
// through the room password.
func (h *EventHandler) resolveJoin(req *dto.JoinRoomRequest) (*rooms.Room, string, error) {
	if req.Ticket != "" {
		claims, err := h.tickets.Verify(req.Ticket)
		if err != nil {
			return nil, "", rooms.ErrInvalidPassword
		}
		roomID, err := uuid.Parse(claims.RoomID)
		if err != nil {
			return nil, "", rooms.ErrRoomNotFound
		}
		room, ok := h.registry.Get(roomID)
		if !ok {
			return nil, "", rooms.ErrRoomNotFound
		}
		return room, claims.Nickname, nil
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return nil, "", rooms.ErrRoomNotFound
	}
	room, err := h.registry.VerifyAndFetch(roomID, req.Password)
	if err != nil {
		return nil, "", err
	}
	return room, req.Nickname, nil
}

func (h *EventHandler) joinFailure(client *ws.Client, requestID string, err error) error {
	return client.SendEvent(ws.EventJoinRoomResult, requestID, dto.JoinRoomFailure{
		Success: false,
		Message: userMessage(err),
	})
}

func (h *EventHandler) handleSendMessage(client *ws.Client, ev *ws.Event) error {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return rooms.ErrRoomNotFound
	}

	_, err = h.relay.Submit(context.Background(), roomID, client.ID, req.Content, req.AttachmentURL, req.AttachmentType)
	if err != nil {
		if isUserError(err) {
			return err
		}
		h.log.Error("submit message", "room", roomID, "client", client.ID, "err", err)
		return errors.New("failed to send message")
	}
	return nil
}

func (h *EventHandler) handleLeaveRoom(client *ws.Client, ev *ws.Event) error {
	var req dto.LeaveRoomRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		return ws.ErrInvalidEvent
	}

	binding, ok := client.Binding()
	if !ok || binding.RoomID.String() != req.RoomID {
		// Leaving a room the connection is not in is a no-op.
		return nil
	}
	h.hub.Unbind(client)
	return nil
}

// userMessage maps core errors to the stable texts clients display.
func userMessage(err error) string {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, rooms.ErrRoomExpired):
		return "Chat room has expired"
	case errors.Is(err, rooms.ErrInvalidPassword):
		return "Invalid password"
	case errors.Is(err, rooms.ErrNicknameTaken):
		return "This nickname is already in use in this room."
	case errors.Is(err, rooms.ErrInvalidNickname):
		return "Nickname must not be empty"
	case errors.Is(err, ws.ErrAlreadyBound):
		return "Already in a room"
	default:
		return "Something went wrong"
	}
}

func isUserError(err error) bool {
	return errors.Is(err, rooms.ErrRoomNotFound) ||
		errors.Is(err, rooms.ErrNotMember) ||
		errors.Is(err, chat.ErrEmptyMessage)
}
