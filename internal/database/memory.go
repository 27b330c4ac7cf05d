package database

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
)

// Memory is an in-process Store for development without a database and for
// tests. Everything is lost on restart, which suits transient rooms.
type Memory struct {
	mu       sync.Mutex
	rooms    map[uuid.UUID]models.Room
	messages map[uuid.UUID][]models.Message
	seq      int64
}

func NewMemory() *Memory {
	return &Memory{
		rooms:    make(map[uuid.UUID]models.Room),
		messages: make(map[uuid.UUID][]models.Message),
	}
}

func (m *Memory) InsertRoom(_ context.Context, room *models.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = *room
	return nil
}

func (m *Memory) FetchRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (m *Memory) DeleteRoom(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	delete(m.messages, id)
	return nil
}

func (m *Memory) InsertMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg.Seq = m.seq
	m.messages[msg.RoomID] = append(m.messages[msg.RoomID], *msg)
	return nil
}

func (m *Memory) FetchHistory(_ context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.messages[roomID]
	out := make([]models.Message, len(stored))
	copy(out, stored)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
