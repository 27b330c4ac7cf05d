// Package rooms implements the room lifecycle core: creation with
// expiration, password verification, membership tracking, and expiry-driven
// teardown under concurrent access.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/database"
	"github.com/veilchat/veil/internal/password"
)

// Options bound room durations and store call latency.
type Options struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
	StoreTimeout    time.Duration
}

func (o *Options) fill() {
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = 60 * time.Minute
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 24 * time.Hour
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
}

// Registry owns every live room: it is the single authority that reconciles
// the in-memory map with the persistent store.
type Registry struct {
	log      *slog.Logger
	store    database.Store
	verifier password.Verifier
	opts     Options

	mu     sync.RWMutex
	rooms  map[uuid.UUID]*Room
	timers map[uuid.UUID]*time.Timer

	onClosed func(*Room)
}

func NewRegistry(log *slog.Logger, store database.Store, verifier password.Verifier, opts Options) *Registry {
	opts.fill()
	return &Registry{
		log:      log,
		store:    store,
		verifier: verifier,
		opts:     opts,
		rooms:    make(map[uuid.UUID]*Room),
		timers:   make(map[uuid.UUID]*time.Timer),
	}
}

// SetClosedHandler registers the callback fired exactly once when a room is
// torn down, whether by expiry or explicit deletion. Must be called before
// any room exists.
func (g *Registry) SetClosedHandler(fn func(*Room)) {
	g.onClosed = fn
}

// Create persists a new room and schedules its expiry. The duration is
// clamped to (0, MaxDuration]; a non-positive duration falls back to the
// default. A non-empty password is run through the one-way verifier before
// it is stored.
func (g *Registry) Create(ctx context.Context, duration time.Duration, pass, name string) (*Room, error) {
	if duration <= 0 {
		duration = g.opts.DefaultDuration
	}
	if duration > g.opts.MaxDuration {
		duration = g.opts.MaxDuration
	}

	var hash string
	if pass != "" {
		var err error
		hash, err = g.verifier.Hash(pass)
		if err != nil {
			return nil, fmt.Errorf("hash room password: %w", err)
		}
	}

	now := time.Now()
	room := newRoom(uuid.New(), name, hash, now, now.Add(duration))

	storeCtx, cancel := context.WithTimeout(ctx, g.opts.StoreTimeout)
	defer cancel()
	if err := g.store.InsertRoom(storeCtx, room.record()); err != nil {
		return nil, fmt.Errorf("persist room: %w", err)
	}

	g.mu.Lock()
	g.rooms[room.ID] = room
	g.scheduleExpiry(room)
	g.mu.Unlock()

	g.log.Info("room created", "room", room.ID, "name", name, "expires", room.ExpiresAt)
	return room, nil
}

// VerifyAndFetch resolves a room by id and checks the supplied password.
// A room past its expiry is purged and reported as expired, never as a
// password failure. A passwordless room accepts any supplied password.
func (g *Registry) VerifyAndFetch(roomID uuid.UUID, pass string) (*Room, error) {
	room, err := g.lookup(roomID)
	if err != nil {
		return nil, err
	}

	if room.HasPassword() && !g.verifier.Verify(pass, room.PasswordHash) {
		return nil, ErrInvalidPassword
	}
	return room, nil
}

// Get resolves a live room without a password check, for callers that have
// already established access.
func (g *Registry) Get(roomID uuid.UUID) (*Room, bool) {
	room, err := g.lookup(roomID)
	if err != nil {
		return nil, false
	}
	return room, true
}

// Delete tears a room down before its natural expiry. The password is
// re-verified even for sessions that already joined.
func (g *Registry) Delete(ctx context.Context, roomID uuid.UUID, pass string) error {
	room, err := g.lookup(roomID)
	if err != nil {
		return err
	}
	if room.HasPassword() && !g.verifier.Verify(pass, room.PasswordHash) {
		return ErrInvalidPassword
	}

	g.mu.Lock()
	removed := g.removeLocked(roomID)
	g.mu.Unlock()
	if removed == nil {
		// Lost the race with expiry; that path already notified.
		return ErrRoomNotFound
	}

	g.purge(ctx, roomID)
	g.log.Info("room deleted", "room", roomID)
	g.notifyClosed(removed)
	return nil
}

// Close stops all expiry timers. Used on shutdown; rooms are not notified.
func (g *Registry) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, t := range g.timers {
		t.Stop()
		delete(g.timers, id)
	}
}

// lookup returns the live room, reconciling with the store when the room is
// not cached, and purging it everywhere once expired.
func (g *Registry) lookup(roomID uuid.UUID) (*Room, error) {
	g.mu.RLock()
	room, ok := g.rooms[roomID]
	g.mu.RUnlock()

	if !ok {
		return g.reload(roomID)
	}

	if room.Expired(time.Now()) {
		g.mu.Lock()
		removed := g.removeLocked(roomID)
		g.mu.Unlock()
		g.purge(context.Background(), roomID)
		if removed != nil {
			g.notifyClosed(removed)
		}
		return nil, ErrRoomExpired
	}
	return room, nil
}

// reload repopulates a room from the store, e.g. after a restart.
func (g *Registry) reload(roomID uuid.UUID) (*Room, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.StoreTimeout)
	defer cancel()

	rec, err := g.store.FetchRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("fetch room: %w", err)
	}

	if !time.Now().Before(rec.ExpiresAt) {
		g.purge(context.Background(), roomID)
		return nil, ErrRoomExpired
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.rooms[roomID]; ok {
		// Someone else reloaded it first.
		return existing, nil
	}
	room := newRoom(rec.ID, rec.Name, rec.PasswordHash, rec.CreatedAt, rec.ExpiresAt)
	g.rooms[roomID] = room
	g.scheduleExpiry(room)
	return room, nil
}

// scheduleExpiry installs the expiry timer. Caller holds g.mu.
func (g *Registry) scheduleExpiry(room *Room) {
	id := room.ID
	g.timers[id] = time.AfterFunc(time.Until(room.ExpiresAt), func() {
		g.expire(id)
	})
}

// expire fires the scheduled teardown. The room may already be gone through
// an explicit delete, so existence is re-checked under the lock.
func (g *Registry) expire(roomID uuid.UUID) {
	g.mu.Lock()
	removed := g.removeLocked(roomID)
	g.mu.Unlock()
	if removed == nil {
		return
	}

	g.purge(context.Background(), roomID)
	g.log.Info("room expired", "room", roomID)
	g.notifyClosed(removed)
}

// removeLocked drops the room and its timer from the registry. Caller holds
// g.mu. Returns nil if the room was already gone.
func (g *Registry) removeLocked(roomID uuid.UUID) *Room {
	room, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	delete(g.rooms, roomID)
	if t, ok := g.timers[roomID]; ok {
		t.Stop()
		delete(g.timers, roomID)
	}
	return room
}

// purge deletes the room and its history from the store, best effort.
func (g *Registry) purge(ctx context.Context, roomID uuid.UUID) {
	storeCtx, cancel := context.WithTimeout(ctx, g.opts.StoreTimeout)
	defer cancel()
	if err := g.store.DeleteRoom(storeCtx, roomID); err != nil {
		g.log.Warn("purge room from store", "room", roomID, "err", err)
	}
}

func (g *Registry) notifyClosed(room *Room) {
	if g.onClosed != nil {
		g.onClosed(room)
	}
}
