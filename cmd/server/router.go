package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/veilchat/veil/internal/config"
	"github.com/veilchat/veil/internal/handlers"
	"github.com/veilchat/veil/internal/middleware"
)

func APIEndpoints(r *gin.Engine, cfg config.Config, log *slog.Logger, rdb *redis.Client, roomH *handlers.RoomHandler, wsH *handlers.WebSocketHandler) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.GET("/ws", wsH.HandleWebSocket)

	api := r.Group("/api")
	if rdb != nil {
		api.Use(middleware.RateLimit(rdb, log, cfg.RateLimit, cfg.RateLimitWindow))
	}
	{
		api.POST("/rooms", roomH.CreateRoom)
		api.POST("/rooms/join", roomH.JoinRoom)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.DELETE("/rooms/:id", roomH.DeleteRoom)
	}
}
