package models

import (
	"time"

	"gorm.io/gorm"
)

// StreamAction 是主持動作的稽核記錄
// 未通過授權的嘗試也會入庫，Allowed 為 false 並附上拒絕原因
type StreamAction struct {
	gorm.Model
	RoomID   uint      `gorm:"index" json:"room_id"`
	ActionID string    `gorm:"type:varchar(26);uniqueIndex" json:"action_id"` // 即時層指派的 ULID
	Action   string    `gorm:"type:varchar(20)" json:"action"`
	ActorID  uint      `json:"actor_id"`
	TargetID uint      `json:"target_id"`
	Allowed  bool      `json:"allowed"`
	Reason   string    `gorm:"type:text" json:"reason,omitempty"`
	At       time.Time `json:"at"`
}
