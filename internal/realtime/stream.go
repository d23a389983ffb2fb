package realtime

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// StreamStatus 定義直播狀態的類型
type StreamStatus string

const (
	StreamLive   StreamStatus = "live"
	StreamPaused StreamStatus = "paused"
	StreamEnded  StreamStatus = "ended" // 終態，之後所有主持人指令都被拒絕
)

// ActionKind 是主持人指令的種類
type ActionKind string

const (
	ActionMute         ActionKind = "mute"
	ActionUnmute       ActionKind = "unmute"
	ActionKick         ActionKind = "kick"
	ActionPauseStream  ActionKind = "pause_stream"
	ActionResumeStream ActionKind = "resume_stream"
	ActionEndStream    ActionKind = "end_stream"
)

// Valid 回報指令種類是否合法
func (k ActionKind) Valid() bool {
	switch k {
	case ActionMute, ActionUnmute, ActionKick,
		ActionPauseStream, ActionResumeStream, ActionEndStream:
		return true
	}
	return false
}

// targeted 回報指令是否需要目標使用者
func (k ActionKind) targeted() bool {
	switch k {
	case ActionMute, ActionUnmute, ActionKick:
		return true
	}
	return false
}

// StreamAction 是動作日誌中的一筆記錄
// ULID 具單調字典序，日誌天然按時間排序，可直接重播給晚加入者
type StreamAction struct {
	ID       string     `json:"id"`
	Kind     ActionKind `json:"action"`
	ActorID  uint       `json:"actor_id"`
	TargetID uint       `json:"target_id,omitempty"`
	At       time.Time  `json:"timestamp"`
}

// StreamSession 是一場直播的即時狀態，與 stream 房間一對一
// 所有欄位只由房間工作迴圈讀寫，因此不需要鎖
type StreamSession struct {
	roomID      uint
	moderatorID uint
	status      StreamStatus
	muted       map[uint]bool
	log         []StreamAction // 只增不減的動作日誌
}

func newStreamSession(roomID, moderatorID uint) *StreamSession {
	return &StreamSession{
		roomID:      roomID,
		moderatorID: moderatorID,
		status:      StreamLive,
		muted:       make(map[uint]bool),
	}
}

// authorize 驗證一道主持人指令而不執行
// 授權檢查先於其他拒絕條件，非主持人永遠收到 not_moderator
func (s *StreamSession) authorize(actorID uint, kind ActionKind, targetID uint) error {
	if actorID != s.moderatorID {
		return ErrNotModerator
	}
	if s.status == StreamEnded {
		return ErrStreamEnded
	}
	if !kind.Valid() {
		return ErrBadEnvelope
	}
	if kind.targeted() && targetID == 0 {
		return ErrBadEnvelope
	}
	switch kind {
	case ActionPauseStream:
		if s.status != StreamLive {
			return ErrOutOfPhase
		}
	case ActionResumeStream:
		if s.status != StreamPaused {
			return ErrOutOfPhase
		}
	}
	return nil
}

// apply 驗證並執行一道主持人指令
// 通過驗證的指令先寫入動作日誌再交由呼叫端廣播；
// 被拒絕的指令不產生任何狀態變化，也不留在日誌裡
func (s *StreamSession) apply(actorID uint, kind ActionKind, targetID uint) (*StreamAction, error) {
	if err := s.authorize(actorID, kind, targetID); err != nil {
		return nil, err
	}

	switch kind {
	case ActionMute:
		s.muted[targetID] = true
	case ActionUnmute:
		delete(s.muted, targetID)
	case ActionKick:
		// 成員移除由房間工作迴圈接手
	case ActionPauseStream:
		s.status = StreamPaused
	case ActionResumeStream:
		s.status = StreamLive
	case ActionEndStream:
		s.status = StreamEnded
	}

	action := StreamAction{
		ID:       ulid.Make().String(),
		Kind:     kind,
		ActorID:  actorID,
		TargetID: targetID,
		At:       time.Now(),
	}
	s.log = append(s.log, action)
	return &action, nil
}

// canChat 檢查一位成員目前能否在直播聊天
func (s *StreamSession) canChat(userID uint) error {
	if s.status == StreamEnded {
		return ErrStreamEnded
	}
	if s.muted[userID] {
		return ErrMuted
	}
	return nil
}

func (s *StreamSession) roleOf(userID uint) string {
	if userID == s.moderatorID {
		return RoleModerator
	}
	return RoleViewer
}

// end 強制結束直播，用於閒置回收
func (s *StreamSession) end() {
	s.status = StreamEnded
}

func (s *StreamSession) terminal() bool {
	return s.status == StreamEnded
}

// replay 匯出動作日誌副本，提供晚加入者重播
func (s *StreamSession) replay() []StreamAction {
	if len(s.log) == 0 {
		return nil
	}
	out := make([]StreamAction, len(s.log))
	copy(out, s.log)
	return out
}

// viewerCount 由成員數推導觀眾數：主持人在場時扣除一席
func (s *StreamSession) viewerCount(members map[string]*member) int {
	count := 0
	for _, m := range members {
		if m.userID != s.moderatorID {
			count++
		}
	}
	return count
}

func (s *StreamSession) fillSnapshot(snap *RoomSnapshot, members map[string]*member) {
	snap.Status = s.status
	snap.ModeratorID = s.moderatorID
	snap.ViewerCount = s.viewerCount(members)
}
