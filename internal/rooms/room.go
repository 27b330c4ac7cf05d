package rooms

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
)

// Member is a nickname bound to a connection within one room.
type Member struct {
	ConnID   string    `json:"-"`
	Nickname string    `json:"nickname"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is a live, time-bounded messaging channel. The member set exists only
// in memory; the room row itself is persisted through the Store.
type Room struct {
	ID           uuid.UUID
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	ExpiresAt    time.Time

	mu      sync.Mutex
	members map[string]Member
	order   []string

	// msgMu serializes the persist-then-broadcast message pipeline for this
	// room without blocking any other room.
	msgMu sync.Mutex
}

func newRoom(id uuid.UUID, name, passwordHash string, createdAt, expiresAt time.Time) *Room {
	return &Room{
		ID:           id,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		members:      make(map[string]Member),
	}
}

func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

func (r *Room) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Join registers a connection under a nickname. Nicknames are unique within
// the room, case-sensitive; the check and the insert are atomic.
func (r *Room) Join(connID, nickname string) (Member, error) {
	if nickname == "" {
		return Member{}, ErrInvalidNickname
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.members {
		if m.Nickname == nickname {
			return Member{}, ErrNicknameTaken
		}
	}

	member := Member{ConnID: connID, Nickname: nickname, JoinedAt: time.Now()}
	r.members[connID] = member
	r.order = append(r.order, connID)
	return member, nil
}

// Leave removes a connection's membership. Idempotent: leaving a room the
// connection is not in reports false and changes nothing.
func (r *Room) Leave(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[connID]
	if !ok {
		return Member{}, false
	}

	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return member, true
}

func (r *Room) Member(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[connID]
	return m, ok
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Members returns a snapshot in join order.
func (r *Room) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id])
	}
	return out
}

// record converts the room to its persisted form.
func (r *Room) record() *models.Room {
	return &models.Room{
		ID:           r.ID,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
	}
}

// LockMessages and UnlockMessages bracket the room's message pipeline so a
// slow store write for one room never reorders or stalls another room.
func (r *Room) LockMessages()   { r.msgMu.Lock() }
func (r *Room) UnlockMessages() { r.msgMu.Unlock() }
