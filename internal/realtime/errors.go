package realtime

import "errors"

// ErrorCode 是拒絕信封攜帶的錯誤代碼
type ErrorCode string

const (
	CodeBadEnvelope     ErrorCode = "bad_envelope"
	CodeRoomNotFound    ErrorCode = "room_not_found"
	CodeSessionNotFound ErrorCode = "session_not_found"
	CodeNotInRoom       ErrorCode = "not_in_room"
	CodeRoomFull        ErrorCode = "room_full"
	CodeTurnLimit       ErrorCode = "turn_limit_reached"
	CodeOutOfPhase      ErrorCode = "out_of_phase"
	CodeInvalidVote     ErrorCode = "invalid_vote"
	CodeNotModerator    ErrorCode = "not_moderator"
	CodeStreamEnded     ErrorCode = "stream_ended"
	CodeMuted           ErrorCode = "muted"
	CodeInternal        ErrorCode = "internal"
)

// SessionError 同時滿足 error 介面與拒絕信封的編碼需求
// 狀態類錯誤一律只回給發送者，不影響房間內其他成員
type SessionError struct {
	Code ErrorCode
	Text string
}

func (e *SessionError) Error() string {
	return string(e.Code) + ": " + e.Text
}

var (
	ErrBadEnvelope     = &SessionError{CodeBadEnvelope, "無法解析的訊息"}
	ErrRoomNotFound    = &SessionError{CodeRoomNotFound, "房間不存在"}
	ErrSessionNotFound = &SessionError{CodeSessionNotFound, "找不到對應的辯論或直播場次"}
	ErrNotInRoom       = &SessionError{CodeNotInRoom, "使用者不在房間內"}
	ErrRoomFull        = &SessionError{CodeRoomFull, "辯論房間已有兩位辯論者"}
	ErrTurnLimit       = &SessionError{CodeTurnLimit, "已達發言回合上限"}
	ErrOutOfPhase      = &SessionError{CodeOutOfPhase, "目前階段不允許此操作"}
	ErrInvalidVote     = &SessionError{CodeInvalidVote, "無效的投票內容"}
	ErrNotModerator    = &SessionError{CodeNotModerator, "只有主持人能執行此操作"}
	ErrStreamEnded     = &SessionError{CodeStreamEnded, "直播已結束"}
	ErrMuted           = &SessionError{CodeMuted, "使用者已被靜音"}
)

// CodeOf 取出錯誤對應的代碼與說明文字；非 SessionError 視為內部錯誤
func CodeOf(err error) (ErrorCode, string) {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code, se.Text
	}
	return CodeInternal, err.Error()
}
