package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"debate_live/internal/models"
	"debate_live/internal/realtime"
	"debate_live/internal/repository"
)

// realtimeStores 以資料庫倉儲實作即時層的協作者介面
// 即時層在背景呼叫這些方法，失敗由即時層記錄日誌，不影響廣播
type realtimeStores struct {
	repos *repository.Repositories
}

// Lookup 查詢房間記錄供建房時推斷種類與主持人，不存在時回傳 (nil, nil)
func (s realtimeStores) Lookup(roomID uint) (*realtime.RoomInfo, error) {
	room, err := s.repos.Room.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	info := &realtime.RoomInfo{ModeratorID: room.ModeratorID}
	switch room.Kind {
	case models.RoomKindDebate:
		info.Kind = realtime.KindDebate
	case models.RoomKindStream:
		info.Kind = realtime.KindStream
	}
	return info, nil
}

func (s realtimeStores) SaveChat(roomID, userID uint, role, content string, at time.Time) error {
	return s.repos.Message.Create(&models.Message{
		RoomID:    roomID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
}

// SaveDebate 歸檔辯論結果，並把房間記錄收尾為 finished
func (s realtimeStores) SaveDebate(outcome realtime.DebateOutcome) error {
	archive := &models.DebateArchive{
		RoomID:         outcome.RoomID,
		ProponentID:    outcome.ProponentID,
		OpponentID:     outcome.OpponentID,
		ProponentTurns: outcome.ProponentTurns,
		OpponentTurns:  outcome.OpponentTurns,
		Continued:      outcome.Continued,
		Expired:        outcome.Expired,
		ConcludedAt:    time.Now(),
	}
	if b := outcome.ProponentBallot; b != nil {
		archive.ProponentLogic = b.Logic
		archive.ProponentPoliteness = b.Politeness
		archive.ProponentOpenness = b.Openness
		archive.ProponentContinue = b.Continue
	}
	if b := outcome.OpponentBallot; b != nil {
		archive.OpponentLogic = b.Logic
		archive.OpponentPoliteness = b.Politeness
		archive.OpponentOpenness = b.Openness
		archive.OpponentContinue = b.Continue
	}
	if err := s.repos.Archive.Create(archive); err != nil {
		return err
	}

	return s.finishRoom(outcome.RoomID, func(room *models.Room) {
		room.ProponentID = outcome.ProponentID
		room.OpponentID = outcome.OpponentID
	})
}

// Record 留存主持動作，直播結束時一併把房間記錄收尾
func (s realtimeStores) Record(roomID uint, action realtime.StreamAction, allowed bool, reason string) error {
	err := s.repos.Audit.Create(&models.StreamAction{
		RoomID:   roomID,
		ActionID: action.ID,
		Action:   string(action.Kind),
		ActorID:  action.ActorID,
		TargetID: action.TargetID,
		Allowed:  allowed,
		Reason:   reason,
		At:       action.At,
	})
	if err != nil {
		return err
	}

	if allowed && action.Kind == realtime.ActionEndStream {
		return s.finishRoom(roomID, nil)
	}
	return nil
}

// finishRoom 把房間記錄標為 finished；沒有記錄的臨時房間靜默跳過
func (s realtimeStores) finishRoom(roomID uint, mutate func(*models.Room)) error {
	room, err := s.repos.Room.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	room.Status = models.RoomStatusFinished
	if mutate != nil {
		mutate(room)
	}
	return s.repos.Room.Update(room)
}
