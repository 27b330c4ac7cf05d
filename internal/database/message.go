package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/models"
)

func (d *Database) InsertMessage(ctx context.Context, msg *models.Message) error {
	return d.db.WithContext(ctx).Create(msg).Error
}

func (d *Database) FetchHistory(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	// Flip to ascending so the oldest message comes first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
