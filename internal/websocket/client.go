package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB, payloads may carry inline attachments
)

// Binding is the connection's room session: at most one per connection.
type Binding struct {
	RoomID   uuid.UUID
	Nickname string
}

// EventHandler processes inbound application events for a client.
type EventHandler interface {
	HandleEvent(client *Client, ev *Event) error
}

// Client is one live connection. Its session binding transitions
// Unbound -> Bound -> Unbound and is managed by the Hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	mu      sync.RWMutex
	binding *Binding
	closed  bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}
}

// Binding returns the current room session, if any.
func (c *Client) Binding() (Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.binding == nil {
		return Binding{}, false
	}
	return *c.binding, true
}

// bind reserves the session slot. Binding an already-bound connection is a
// caller bug and is surfaced, never silently overwritten.
func (c *Client) bind(b Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding != nil {
		return ErrAlreadyBound
	}
	c.binding = &b
	return nil
}

// takeBinding atomically clears and returns the binding, so concurrent
// unbind paths (explicit leave, disconnect, room teardown) act exactly once.
func (c *Client) takeBinding() (Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding == nil {
		return Binding{}, false
	}
	b := *c.binding
	c.binding = nil
	return b, true
}

// close shuts the send queue exactly once. It holds the same lock SendEvent
// sends under, so no send can race the channel close. Idempotent.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump reads events from the connection until it drops, then guarantees
// unbind cleanup through hub unregistration.
func (c *Client) ReadPump(handler EventHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev Event
		if err := c.Conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read", "client", c.ID, "err", err)
			}
			break
		}

		if ev.Type == EventPong {
			continue
		}

		if handler != nil {
			if err := handler.HandleEvent(c, &ev); err != nil {
				c.SendError(ev.RequestID, err.Error())
			}
		}
	}
}

// WritePump drains the send queue and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an event for delivery. Delivery is best effort: a full
// queue drops the event rather than blocking the caller.
func (c *Client) SendEvent(evType EventType, requestID string, data interface{}) error {
	ev := Event{
		Type:      evType,
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		ev.Data = raw
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	// The read lock excludes close(), so the queue cannot be closed between
	// the check and the send.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.Send <- frame:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(requestID, msg string) {
	c.SendEvent(EventError, requestID, map[string]string{"error": msg})
}
