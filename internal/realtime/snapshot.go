package realtime

import "time"

// RoomKind 區分房間承載的場次類型
type RoomKind string

const (
	KindDebate RoomKind = "debate"
	KindStream RoomKind = "stream"
)

// Valid 回報房間類型是否合法
func (k RoomKind) Valid() bool {
	return k == KindDebate || k == KindStream
}

// RoomSnapshot 是房間狀態的唯讀視圖
// 提供給排除在核心之外的 UI 與通知層輪詢，也作為 room_joined 的回覆內容
type RoomSnapshot struct {
	RoomID           uint      `json:"room_id"`
	Kind             RoomKind  `json:"kind"`
	ParticipantCount int       `json:"participant_count"`
	LastActivity     time.Time `json:"last_activity"`

	// debate 房間
	Phase          DebatePhase `json:"phase,omitempty"`
	ProponentID    uint        `json:"proponent_id,omitempty"`
	OpponentID     uint        `json:"opponent_id,omitempty"`
	ProponentTurns int         `json:"proponent_turns,omitempty"`
	OpponentTurns  int         `json:"opponent_turns,omitempty"`

	// stream 房間
	Status      StreamStatus `json:"status,omitempty"`
	ModeratorID uint         `json:"moderator_id,omitempty"`
	ViewerCount int          `json:"viewer_count,omitempty"`
}

// HubStats 是即時層的整體統計，供健康檢查端點回報
type HubStats struct {
	ActiveRooms       int   `json:"active_rooms"`
	ActiveConnections int   `json:"active_connections"`
	TotalMessages     int64 `json:"total_messages"`
}
