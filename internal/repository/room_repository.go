package repository

import (
	"debate_live/internal/models"
	"debate_live/internal/storage"
)

// RoomRepository 負責房間記錄的持久化
// 房間狀態由即時層驅動：建立後等待成員，辯論或直播結束時標記為已結束
// 已結束的房間保留下來供封存查詢，不提供刪除
type RoomRepository interface {
	Create(room *models.Room) error
	FindByID(id uint) (*models.Room, error)
	Update(room *models.Room) error
	FindAll() ([]models.Room, error)
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

// FindByID 查詢單一房間，找不到時回傳 gorm.ErrRecordNotFound
func (r *roomRepository) FindByID(id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Update(room *models.Room) error {
	return r.db.Save(room).Error
}

// FindAll 列出所有房間，最新建立的在前
func (r *roomRepository) FindAll() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Order("created_at desc").Find(&rooms).Error
	return rooms, err
}
