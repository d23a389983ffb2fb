package models

import (
	"gorm.io/gorm"
)

// Room 表示一個持久化的房間記錄
// 即時狀態（階段、回合數、在線人數）由即時層持有，這裡只記錄
// 建房時決定的屬性與收場後的最終狀態
type Room struct {
	gorm.Model
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Kind        RoomKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Status      RoomStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatorID   uint       `json:"creator_id"`
	ModeratorID uint       `json:"moderator_id"` // 直播房間的主持人，辯論房間為零
	ProponentID uint       `json:"proponent_id"` // 辯論房間收場時的正方
	OpponentID  uint       `json:"opponent_id"`  // 辯論房間收場時的反方
}

// RoomKind 定義房間種類，取值與即時層的信封欄位一致
type RoomKind string

const (
	RoomKindDebate RoomKind = "debate"
	RoomKindStream RoomKind = "stream"
)

// Valid 回報種類是否在目錄內
func (k RoomKind) Valid() bool {
	return k == RoomKindDebate || k == RoomKindStream
}

// RoomStatus 定義房間記錄的狀態
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"
	RoomStatusOngoing  RoomStatus = "ongoing"
	RoomStatusFinished RoomStatus = "finished"
)
