// Package database holds the persistence collaborator for rooms and
// messages: a gorm-backed Postgres implementation and an in-memory one used
// for development and tests.
package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
)

var ErrNotFound = errors.New("record not found")

// Store is the external persistence interface. Implementations must be safe
// for concurrent use.
type Store interface {
	InsertRoom(ctx context.Context, room *models.Room) error
	FetchRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	DeleteRoom(ctx context.Context, id uuid.UUID) error

	InsertMessage(ctx context.Context, msg *models.Message) error
	// FetchHistory returns up to limit most recent messages for a room in
	// ascending (CreatedAt, Seq) order. limit <= 0 means no cap.
	FetchHistory(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}
