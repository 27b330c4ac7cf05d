// Package websocket owns the live connection layer: per-connection pumps,
// room session bindings, and best-effort presence fan-out.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
	"github.com/veilchat/veil/internal/rooms"
)

// Hub tracks every connected client and which room each one is bound to.
// Presence and message events fan out through it; delivery is at-most-once
// with no retry.
type Hub struct {
	log      *slog.Logger
	registry *rooms.Registry

	clients map[string]*Client
	rooms   map[uuid.UUID]map[string]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *slog.Logger, registry *rooms.Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		registry:   registry,
		clients:    make(map[string]*Client),
		rooms:      make(map[uuid.UUID]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes client registration until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop shuts down the hub and closes every connection.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.close()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[uuid.UUID]map[string]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("client connected", "client", client.ID, "total", total)
}

// unregisterClient runs the transport-disconnect path: unconditionally
// unbind, then drop the client.
func (h *Hub) unregisterClient(client *Client) {
	h.Unbind(client)

	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	total := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.log.Debug("client disconnected", "client", client.ID, "total", total)
}

// Bind joins a client to a room under a nickname: the session slot is
// reserved first, then the nickname is claimed atomically within the room.
// Remaining members are told about the join (except the joiner) and everyone
// gets the fresh member count.
func (h *Hub) Bind(client *Client, room *rooms.Room, nickname string) (rooms.Member, error) {
	if err := client.bind(Binding{RoomID: room.ID, Nickname: nickname}); err != nil {
		return rooms.Member{}, err
	}

	member, err := room.Join(client.ID, nickname)
	if err != nil {
		client.takeBinding()
		return rooms.Member{}, err
	}

	h.mu.Lock()
	set, ok := h.rooms[room.ID]
	if !ok {
		set = make(map[string]*Client)
		h.rooms[room.ID] = set
	}
	set[client.ID] = client
	h.mu.Unlock()

	h.pushToRoom(room.ID, client.ID, EventUserJoined, map[string]string{"nickname": nickname})
	h.pushToRoom(room.ID, "", EventUserCount, map[string]int{"count": room.MemberCount()})

	h.log.Info("user joined room", "room", room.ID, "nickname", nickname, "members", room.MemberCount())
	return member, nil
}

// Unbind releases the client's room session, if any. Idempotent: a second
// call, or a call for a never-bound connection, is a no-op and emits nothing.
func (h *Hub) Unbind(client *Client) (Binding, bool) {
	binding, ok := client.takeBinding()
	if !ok {
		return Binding{}, false
	}

	h.mu.Lock()
	if set, ok := h.rooms[binding.RoomID]; ok {
		delete(set, client.ID)
		if len(set) == 0 {
			delete(h.rooms, binding.RoomID)
		}
	}
	h.mu.Unlock()

	if room, ok := h.registry.Get(binding.RoomID); ok {
		if _, left := room.Leave(client.ID); left {
			h.pushToRoom(room.ID, "", EventUserLeft, map[string]string{"nickname": binding.Nickname})
			h.pushToRoom(room.ID, "", EventUserCount, map[string]int{"count": room.MemberCount()})
		}
		h.log.Info("user left room", "room", room.ID, "nickname", binding.Nickname, "members", room.MemberCount())
	}

	return binding, true
}

// RoomClosed tears down all sessions of a room that expired or was deleted.
// Members stay connected at the transport level; they only lose the room.
func (h *Hub) RoomClosed(room *rooms.Room) {
	h.mu.Lock()
	set := h.rooms[room.ID]
	delete(h.rooms, room.ID)
	h.mu.Unlock()

	for _, client := range set {
		client.takeBinding()
		client.SendEvent(EventRoomExpired, "", nil)
	}
	h.log.Info("room closed", "room", room.ID, "members", len(set))
}

// BroadcastMessage fans a stored chat message out to every member of the
// room, sender included, so all sessions observe one ordering.
func (h *Hub) BroadcastMessage(roomID uuid.UUID, msg *models.Message) {
	h.pushToRoom(roomID, "", EventMessage, NewMessagePayload(msg))
}

// pushToRoom delivers an event to each client bound to the room, skipping
// excludeID when set. Clients with a full queue are skipped, not retried.
func (h *Hub) pushToRoom(roomID uuid.UUID, excludeID string, evType EventType, data interface{}) {
	h.mu.RLock()
	set := h.rooms[roomID]
	targets := make([]*Client, 0, len(set))
	for _, client := range set {
		if client.ID != excludeID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.SendEvent(evType, "", data); err != nil {
			h.log.Debug("presence push dropped", "client", client.ID, "event", evType, "err", err)
		}
	}
}

// ClientCount reports connected clients, bound or not.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
