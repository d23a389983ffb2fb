package models

import (
	"time"

	"gorm.io/gorm"
)

// DebateArchive 是辯論收場後的歸檔記錄
// 雙方的評分攤平成欄位存放，Expired 表示場次因閒置被強制收場
type DebateArchive struct {
	gorm.Model
	RoomID         uint `gorm:"index" json:"room_id"`
	ProponentID    uint `json:"proponent_id"`
	OpponentID     uint `json:"opponent_id"`
	ProponentTurns int  `json:"proponent_turns"`
	OpponentTurns  int  `json:"opponent_turns"`

	ProponentLogic      int  `json:"proponent_logic"`
	ProponentPoliteness int  `json:"proponent_politeness"`
	ProponentOpenness   int  `json:"proponent_openness"`
	ProponentContinue   bool `json:"proponent_continue"`

	OpponentLogic      int  `json:"opponent_logic"`
	OpponentPoliteness int  `json:"opponent_politeness"`
	OpponentOpenness   int  `json:"opponent_openness"`
	OpponentContinue   bool `json:"opponent_continue"`

	Continued   bool      `json:"continued"` // 雙方都同意，進入自由討論
	Expired     bool      `json:"expired"`
	ConcludedAt time.Time `json:"concluded_at"`
}
