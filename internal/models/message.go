package models

import (
	"github.com/google/uuid"
	"time"
)

// Message kinds. The kind is derived from the attachment MIME type on
// submission; content itself is opaque to the server and may be ciphertext.
const (
	KindText         = "text"
	KindNotification = "notification"
	KindImage        = "image"
	KindVideo        = "video"
	KindFile         = "file"
)

type Message struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID uuid.UUID `gorm:"type:uuid;index;not null"`
	Sender string    `gorm:"not null"`

	Content string
	Kind    string `gorm:"default:'text'"`

	AttachmentURL  string
	AttachmentType string

	// Seq breaks ties between messages sharing a timestamp; assigned by the
	// store on insert, monotonic per store.
	Seq       int64 `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt time.Time `gorm:"index"`
}
