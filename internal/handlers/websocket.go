package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	ws "github.com/veilchat/veil/internal/websocket"
)

// WebSocketHandler upgrades connections and hands them to the hub.
type WebSocketHandler struct {
	log          *slog.Logger
	hub          *ws.Hub
	eventHandler *EventHandler
	upgrader     websocket.Upgrader
}

func NewWebSocketHandler(log *slog.Logger, hub *ws.Hub, eventHandler *EventHandler) *WebSocketHandler {
	return &WebSocketHandler{
		log:          log,
		hub:          hub,
		eventHandler: eventHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the frontend host is fixed
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "err", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.eventHandler)
}
