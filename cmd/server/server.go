package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/veilchat/veil/internal/chat"
	"github.com/veilchat/veil/internal/config"
	"github.com/veilchat/veil/internal/database"
	"github.com/veilchat/veil/internal/handlers"
	"github.com/veilchat/veil/internal/password"
	"github.com/veilchat/veil/internal/rooms"
	ws "github.com/veilchat/veil/internal/websocket"
	"github.com/veilchat/veil/pkg/auth"
)

type Server struct {
	cfg      config.Config
	log      *slog.Logger
	router   *gin.Engine
	registry *rooms.Registry
	hub      *ws.Hub
}

func NewServer() (*Server, error) {
	cfg := config.Load()
	log := newLogger(cfg.Env)

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	registry := rooms.NewRegistry(log, store, password.NewBcryptVerifier(), rooms.Options{
		DefaultDuration: cfg.DefaultRoomDuration,
		MaxDuration:     cfg.MaxRoomDuration,
		StoreTimeout:    cfg.StoreTimeout,
	})

	hub := ws.NewHub(log, registry)
	registry.SetClosedHandler(hub.RoomClosed)

	relay := chat.NewRelay(log, store, registry, hub, chat.Options{
		HistoryLimit: cfg.HistoryLimit,
		StoreTimeout: cfg.StoreTimeout,
	})

	tickets := auth.NewTicketManager(cfg.JWTSecret, 10*time.Minute)

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	roomH := handlers.NewRoomHandler(log, registry, tickets)
	eventH := handlers.NewEventHandler(log, registry, relay, hub, tickets)
	wsH := handlers.NewWebSocketHandler(log, hub, eventH)

	APIEndpoints(router, cfg, log, rdb, roomH, wsH)

	return &Server{
		cfg:      cfg,
		log:      log,
		router:   router,
		registry: registry,
		hub:      hub,
	}, nil
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	err := srv.Shutdown(shutdownCtx)
	s.registry.Close()
	s.hub.Stop()
	s.log.Info("shutdown complete")
	return err
}

func openStore(cfg config.Config, log *slog.Logger) (database.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return database.NewMemory(), nil
	}
	return database.Open(cfg.DatabaseURL)
}

func newLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
