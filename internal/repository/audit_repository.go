package repository

import (
	"debate_live/internal/models"
	"debate_live/internal/storage"
)

type AuditRepository interface {
	Create(action *models.StreamAction) error
	FindByRoomID(roomID uint) ([]models.StreamAction, error)
}

type auditRepository struct {
	db *storage.PostgresDB
}

func NewAuditRepository(db *storage.PostgresDB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(action *models.StreamAction) error {
	return r.db.Create(action).Error
}

// FindByRoomID 依時間順序取回一個房間的完整動作記錄
func (r *auditRepository) FindByRoomID(roomID uint) ([]models.StreamAction, error) {
	var actions []models.StreamAction
	err := r.db.Where("room_id = ?", roomID).Order("at asc").Find(&actions).Error
	return actions, err
}
