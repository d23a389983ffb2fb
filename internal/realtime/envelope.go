package realtime

import (
	"time"
)

// MessageType 是訊息信封的類型判別欄位
type MessageType string

const (
	// 客戶端 → 伺服器
	TypeJoinRoom        MessageType = "join_room"
	TypeLeaveRoom       MessageType = "leave_room"
	TypeChatMessage     MessageType = "chat_message"
	TypeLiveVote        MessageType = "live_vote"
	TypeCastVote        MessageType = "cast_vote"
	TypeModeratorAction MessageType = "moderator_action"

	// 伺服器 → 客戶端
	TypeRoomJoined   MessageType = "room_joined"
	TypeUserJoined   MessageType = "user_joined"
	TypeUserLeft     MessageType = "user_left"
	TypeVoteRequest  MessageType = "vote_request"
	TypePhaseChange  MessageType = "phase_change"
	TypeDebateResult MessageType = "debate_result"
	TypeStreamUpdate MessageType = "stream_update"
	TypeRoomState    MessageType = "room_state"
	TypeError        MessageType = "error"
)

// Valid 回報類型是否屬於訊息目錄
func (t MessageType) Valid() bool {
	switch t {
	case TypeJoinRoom, TypeLeaveRoom, TypeChatMessage, TypeLiveVote,
		TypeCastVote, TypeModeratorAction,
		TypeRoomJoined, TypeUserJoined, TypeUserLeft, TypeVoteRequest,
		TypePhaseChange, TypeDebateResult, TypeStreamUpdate, TypeRoomState,
		TypeError:
		return true
	}
	return false
}

// ClientOrigin 回報類型是否允許由客戶端送入
func (t MessageType) ClientOrigin() bool {
	switch t {
	case TypeJoinRoom, TypeLeaveRoom, TypeChatMessage, TypeLiveVote,
		TypeCastVote, TypeModeratorAction:
		return true
	}
	return false
}

// LiveVote 是輕量即席投票的值（與結束辯論的正式評分無關）
type LiveVote string

const (
	LiveVoteFor     LiveVote = "for"
	LiveVoteAgainst LiveVote = "against"
	LiveVoteNeutral LiveVote = "neutral"
)

// Valid 回報投票值是否合法
func (v LiveVote) Valid() bool {
	switch v {
	case LiveVoteFor, LiveVoteAgainst, LiveVoteNeutral:
		return true
	}
	return false
}

// 房間內的成員角色，沿用辯論室的正反方命名
const (
	RoleProponent = "proponent" // 正方（先加入的辯論者）
	RoleOpponent  = "opponent"  // 反方
	RoleModerator = "moderator" // 直播主持人
	RoleViewer    = "viewer"    // 直播觀眾
	RoleSystem    = "system"    // 系統訊息
)

// Envelope 是即時通道上所有訊息的統一信封
// 必填的 Type 判別欄位決定其餘欄位的意義，未用欄位在序列化時省略
type Envelope struct {
	ID        string      `json:"id,omitempty"` // 伺服器指派的 ULID，用於排序與審計
	Type      MessageType `json:"type"`
	RoomID    uint        `json:"room_id,omitempty"`
	UserID    uint        `json:"user_id,omitempty"`
	Role      string      `json:"role,omitempty"`
	Content   string      `json:"content,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitempty"`

	// join_room 專用
	Kind        RoomKind `json:"kind,omitempty"`
	IsModerator bool     `json:"is_moderator,omitempty"`

	// live_vote / cast_vote 專用
	Vote   LiveVote `json:"vote,omitempty"`
	Ballot *Ballot  `json:"ballot,omitempty"`

	// moderator_action 專用
	Action   ActionKind `json:"action,omitempty"`
	TargetID uint       `json:"target_id,omitempty"`

	// 伺服器狀態通知
	Phase            DebatePhase    `json:"phase,omitempty"`
	Status           StreamStatus   `json:"status,omitempty"`
	ParticipantCount int            `json:"participant_count,omitempty"`
	Result           *DebateResult  `json:"result,omitempty"`
	State            *RoomSnapshot  `json:"state,omitempty"`
	Actions          []StreamAction `json:"actions,omitempty"` // 給晚加入者的動作重播

	// error 專用
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// NewChatEnvelope 建立一則聊天訊息的廣播信封
func NewChatEnvelope(roomID, userID uint, role, content string) *Envelope {
	return &Envelope{
		Type:      TypeChatMessage,
		RoomID:    roomID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewErrorEnvelope 建立一則只回給發送者的拒絕信封
func NewErrorEnvelope(roomID uint, err error) *Envelope {
	code, msg := CodeOf(err)
	return &Envelope{
		Type:      TypeError,
		RoomID:    roomID,
		Code:      code,
		Message:   msg,
		Timestamp: time.Now(),
	}
}

// NewPhaseEnvelope 建立辯論階段變更的廣播信封
func NewPhaseEnvelope(roomID uint, phase DebatePhase, notice string) *Envelope {
	return &Envelope{
		Type:      TypePhaseChange,
		RoomID:    roomID,
		Phase:     phase,
		Message:   notice,
		Timestamp: time.Now(),
	}
}

// NewStreamUpdateEnvelope 建立直播狀態變更的廣播信封
func NewStreamUpdateEnvelope(roomID uint, status StreamStatus) *Envelope {
	return &Envelope{
		Type:      TypeStreamUpdate,
		RoomID:    roomID,
		Status:    status,
		Timestamp: time.Now(),
	}
}
