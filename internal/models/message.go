package models

import (
	"time"

	"gorm.io/gorm"
)

// Message 代表一則留存的聊天訊息
// 即時層廣播後非同步寫入，歷史查詢依房間取回
type Message struct {
	gorm.Model
	RoomID    uint      `gorm:"index" json:"room_id"`
	UserID    uint      `json:"user_id"`
	Role      string    `gorm:"type:varchar(20)" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
