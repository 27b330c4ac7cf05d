// Package chat relays messages between a room's members: membership check,
// durable persistence, then fan-out, in that order.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/database"
	"github.com/veilchat/veil/internal/models"
	"github.com/veilchat/veil/internal/rooms"
)

var ErrEmptyMessage = errors.New("message has no content")

// Broadcaster fans a stored message out to a room's connected members.
type Broadcaster interface {
	BroadcastMessage(roomID uuid.UUID, msg *models.Message)
}

// Options bound history size and store call latency.
type Options struct {
	HistoryLimit int
	StoreTimeout time.Duration
}

func (o *Options) fill() {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 200
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
}

type Relay struct {
	log      *slog.Logger
	store    database.Store
	registry *rooms.Registry
	caster   Broadcaster
	opts     Options
}

func NewRelay(log *slog.Logger, store database.Store, registry *rooms.Registry, caster Broadcaster, opts Options) *Relay {
	opts.fill()
	return &Relay{
		log:      log,
		store:    store,
		registry: registry,
		caster:   caster,
		opts:     opts,
	}
}

// Submit accepts a message from a connection bound to the room, persists it,
// and fans it out to every member including the sender. Persistence failure
// blocks the broadcast: a message that was not stored is never delivered.
// Content is opaque and may be ciphertext; the relay never inspects it.
func (r *Relay) Submit(ctx context.Context, roomID uuid.UUID, connID, content, attachmentURL, attachmentType string) (*models.Message, error) {
	room, ok := r.registry.Get(roomID)
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}

	member, ok := room.Member(connID)
	if !ok {
		return nil, rooms.ErrNotMember
	}

	if content == "" && attachmentURL == "" {
		return nil, ErrEmptyMessage
	}

	msg := &models.Message{
		ID:             uuid.New(),
		RoomID:         roomID,
		Sender:         member.Nickname,
		Content:        content,
		Kind:           deriveKind(attachmentURL, attachmentType),
		AttachmentURL:  attachmentURL,
		AttachmentType: attachmentType,
	}

	// Per-room pipeline lock: timestamp assignment, store write, and
	// broadcast stay in one order for this room while other rooms proceed.
	room.LockMessages()
	defer room.UnlockMessages()

	msg.CreatedAt = time.Now()

	storeCtx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()
	if err := r.store.InsertMessage(storeCtx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	r.caster.BroadcastMessage(roomID, msg)
	return msg, nil
}

// History returns the room's most recent messages, oldest first. The result
// is capped; older messages fall off rather than growing the backfill
// without bound.
func (r *Relay) History(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	storeCtx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	defer cancel()

	messages, err := r.store.FetchHistory(storeCtx, roomID, r.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return messages, nil
}

// deriveKind maps an attachment's MIME type to the message kind.
func deriveKind(attachmentURL, attachmentType string) string {
	if attachmentURL == "" {
		return models.KindText
	}
	switch {
	case strings.HasPrefix(attachmentType, "image/"):
		return models.KindImage
	case strings.HasPrefix(attachmentType, "video/"):
		return models.KindVideo
	default:
		return models.KindFile
	}
}
