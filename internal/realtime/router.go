package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// Router 負責把原始訊框解碼、驗證並分派給註冊表
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Route 處理一則來自客戶端的訊框
// 回傳非 nil 錯誤代表訊框連 JSON 都不是，傳輸層應視為毀損並斷線；
// 已知類型的業務拒絕只會變成 error 信封回給發送者，連線不中斷；
// 未知或不該由客戶端發出的類型則記錄後丟棄
func (rt *Router) Route(conn Conn, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	if !env.Type.Valid() || !env.Type.ClientOrigin() {
		log.Printf("realtime: dropping frame with unsupported type %q from connection %s", env.Type, conn.ID())
		return nil
	}
	if err := rt.dispatch(conn, &env); err != nil {
		rt.reject(conn, env.RoomID, err)
	}
	return nil
}

func (rt *Router) dispatch(conn Conn, env *Envelope) error {
	switch env.Type {
	case TypeJoinRoom:
		return rt.join(conn, env)
	case TypeLeaveRoom:
		return rt.reg.Leave(conn)
	case TypeChatMessage:
		if strings.TrimSpace(env.Content) == "" {
			return ErrBadEnvelope
		}
		return rt.reg.Deliver(conn, env)
	default:
		return rt.reg.Deliver(conn, env)
	}
}

// join 完成加入後依序回送 room_joined 確認與 room_state 全量快照
func (rt *Router) join(conn Conn, env *Envelope) error {
	if env.RoomID == 0 {
		return ErrBadEnvelope
	}
	snap, actions, err := rt.reg.Join(conn, env.RoomID, JoinOptions{
		Kind:      env.Kind,
		Moderator: env.IsModerator,
	})
	if err != nil {
		return err
	}

	conn.Enqueue(&Envelope{
		Type:             TypeRoomJoined,
		RoomID:           env.RoomID,
		Kind:             snap.Kind,
		ParticipantCount: snap.ParticipantCount,
		Phase:            snap.Phase,
		Status:           snap.Status,
		Actions:          actions,
		Timestamp:        time.Now(),
	})
	conn.Enqueue(&Envelope{
		Type:      TypeRoomState,
		RoomID:    env.RoomID,
		State:     snap,
		Timestamp: time.Now(),
	})
	return nil
}

func (rt *Router) reject(conn Conn, roomID uint, err error) {
	if !conn.Enqueue(NewErrorEnvelope(roomID, err)) {
		log.Printf("realtime: error reply to connection %s dropped: send queue full", conn.ID())
	}
}
