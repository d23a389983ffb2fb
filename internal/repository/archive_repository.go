package repository

import (
	"debate_live/internal/models"
	"debate_live/internal/storage"
)

type ArchiveRepository interface {
	Create(archive *models.DebateArchive) error
	FindByRoomID(roomID uint) ([]models.DebateArchive, error)
}

type archiveRepository struct {
	db *storage.PostgresDB
}

func NewArchiveRepository(db *storage.PostgresDB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) Create(archive *models.DebateArchive) error {
	return r.db.Create(archive).Error
}

func (r *archiveRepository) FindByRoomID(roomID uint) ([]models.DebateArchive, error) {
	var archives []models.DebateArchive
	err := r.db.Where("room_id = ?", roomID).Order("concluded_at desc").Find(&archives).Error
	return archives, err
}
