package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/handlers/dto"
	"github.com/veilchat/veil/internal/rooms"
	"github.com/veilchat/veil/pkg/auth"
)

// RoomHandler is the REST surface over the room core. It never touches
// membership: joining a room for real happens over the websocket.
type RoomHandler struct {
	log      *slog.Logger
	registry *rooms.Registry
	tickets  *auth.TicketManager
}

func NewRoomHandler(log *slog.Logger, registry *rooms.Registry, tickets *auth.TicketManager) *RoomHandler {
	return &RoomHandler{log: log, registry: registry, tickets: tickets}
}

// CreateRoom creates a transient room and returns its id and expiry.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	duration := time.Duration(req.ExpirationMinutes) * time.Minute
	room, err := h.registry.Create(c.Request.Context(), duration, req.Password, req.RoomName)
	if err != nil {
		h.log.Error("create room", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"roomId":         room.ID.String(),
		"roomName":       room.Name,
		"expirationTime": room.ExpiresAt,
	})
}

// JoinRoom verifies the password and issues a ticket the websocket join can
// present instead of the password.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req dto.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Nickname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Nickname must not be empty"})
		return
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
		return
	}

	room, err := h.registry.VerifyAndFetch(roomID, req.Password)
	if err != nil {
		h.writeRoomError(c, err)
		return
	}

	ticket, err := h.tickets.Issue(room.ID, req.Nickname, room.ExpiresAt)
	if err != nil {
		h.log.Error("issue ticket", "room", room.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to join room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"ticket":         ticket,
		"roomName":       room.Name,
		"expirationTime": room.ExpiresAt,
	})
}

// GetRoom returns room metadata and the live participant count.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
		return
	}

	room, ok := h.registry.Get(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"room": dto.RoomInfoResponse{
			RoomID:           room.ID.String(),
			RoomName:         room.Name,
			ExpirationTime:   room.ExpiresAt,
			ParticipantCount: room.MemberCount(),
		},
	})
}

// DeleteRoom tears a room down early. The password is always re-verified.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	var req dto.DeleteRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
		return
	}

	if err := h.registry.Delete(c.Request.Context(), roomID, req.Password); err != nil {
		h.writeRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room deleted successfully"})
}

func (h *RoomHandler) writeRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Room not found"})
	case errors.Is(err, rooms.ErrRoomExpired):
		c.JSON(http.StatusGone, gin.H{"success": false, "error": "Chat room has expired"})
	case errors.Is(err, rooms.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid password"})
	default:
		h.log.Error("room operation", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal error"})
	}
}
