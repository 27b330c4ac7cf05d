package models

import (
	"github.com/google/uuid"
	"time"
)

type Room struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string

	// Empty hash means the room is passwordless.
	PasswordHash string

	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}
