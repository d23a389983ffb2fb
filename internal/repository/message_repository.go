package repository

import (
	"debate_live/internal/models"
	"debate_live/internal/storage"
)

type MessageRepository interface {
	Create(message *models.Message) error
	FindByRoomID(roomID uint) ([]models.Message, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByRoomID(roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("room_id = ?", roomID).Order("timestamp asc").Find(&messages).Error
	return messages, err
}
