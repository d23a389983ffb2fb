package service

import (
	"errors"

	"debate_live/internal/models"
	"debate_live/internal/repository"
)

// RoomService 負責房間記錄的建立與查詢
// 房間的即時行為由 realtime 套件處理，這裡只管持久化的部分
type RoomService struct {
	roomRepo    repository.RoomRepository
	messageRepo repository.MessageRepository
	archiveRepo repository.ArchiveRepository
	auditRepo   repository.AuditRepository
}

func NewRoomService(repos *repository.Repositories) *RoomService {
	return &RoomService{
		roomRepo:    repos.Room,
		messageRepo: repos.Message,
		archiveRepo: repos.Archive,
		auditRepo:   repos.Audit,
	}
}

// CreateRoom 建立房間記錄，直播房間的建立者自動成為主持人
func (s *RoomService) CreateRoom(name, description string, kind models.RoomKind, creatorID uint) (*models.Room, error) {
	if !kind.Valid() {
		return nil, errors.New("無效的房間種類")
	}

	room := &models.Room{
		Name:        name,
		Description: description,
		Kind:        kind,
		Status:      models.RoomStatusWaiting,
		CreatorID:   creatorID,
	}
	if kind == models.RoomKindStream {
		room.ModeratorID = creatorID
	}

	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) GetRoom(roomID uint) (*models.Room, error) {
	return s.roomRepo.FindByID(roomID)
}

func (s *RoomService) ListRooms() ([]models.Room, error) {
	return s.roomRepo.FindAll()
}

// Messages 取回一個房間留存的聊天記錄
func (s *RoomService) Messages(roomID uint) ([]models.Message, error) {
	return s.messageRepo.FindByRoomID(roomID)
}

// Archives 取回一個房間的辯論歸檔
func (s *RoomService) Archives(roomID uint) ([]models.DebateArchive, error) {
	return s.archiveRepo.FindByRoomID(roomID)
}

// Actions 取回一個房間的主持動作稽核記錄
func (s *RoomService) Actions(roomID uint) ([]models.StreamAction, error) {
	return s.auditRepo.FindByRoomID(roomID)
}
