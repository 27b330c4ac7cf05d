package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
	"gorm.io/gorm"
)

func (d *Database) InsertRoom(ctx context.Context, room *models.Room) error {
	return d.db.WithContext(ctx).Create(room).Error
}

func (d *Database) FetchRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes the room together with its message history.
func (d *Database) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Message{}, "room_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, "id = ?", id).Error
	})
}
