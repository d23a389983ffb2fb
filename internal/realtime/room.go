package realtime

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// Conn 是房間層眼中的一條客戶端連線
// 實作必須保證 Enqueue 不阻塞：佇列滿時回傳 false，由房間決定斷線
type Conn interface {
	ID() string
	UserID() uint
	Enqueue(env *Envelope) bool
	Close(code int, reason string)
}

// member 是房間成員：連線的弱引用加上場次角色
type member struct {
	conn   Conn
	userID uint
	role   string
}

// JoinOptions 攜帶 join_room 信封上的建房提示
type JoinOptions struct {
	Kind      RoomKind
	Moderator bool
}

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdLeave
	cmdDisconnect
	cmdEnvelope
	cmdSnapshot
	cmdReap
)

type roomCmd struct {
	kind  cmdKind
	conn  Conn
	opts  JoinOptions
	env   *Envelope
	now   time.Time
	reply chan roomReply
}

type roomReply struct {
	snap    *RoomSnapshot
	actions []StreamAction // room_joined 附帶的動作重播
	err     error
}

// Room 是一個即時頻道
// 所有狀態變更都經由 inbox 交給唯一的工作迴圈序列化處理，
// 因此場次欄位不需要細粒度鎖，回合數與投票寫入天然線性化
type Room struct {
	id        uint
	kind      RoomKind
	createdAt time.Time

	members map[string]*member // 連線 ID → 成員
	byUser  map[uint]string    // 使用者 ID → 最新連線 ID

	debate *DebateSession
	stream *StreamSession

	inbox        chan roomCmd // 無緩衝，確保退場時不遺留指令
	done         chan struct{}
	lastActivity time.Time
	reaped       bool

	reg *Registry
}

func newRoom(id uint, kind RoomKind, moderatorID uint, reg *Registry) *Room {
	r := &Room{
		id:        id,
		kind:      kind,
		createdAt: time.Now(),
		members:   make(map[string]*member),
		byUser:    make(map[uint]string),
		inbox:     make(chan roomCmd),
		done:      make(chan struct{}),
		reg:       reg,
	}
	r.lastActivity = r.createdAt
	switch kind {
	case KindStream:
		r.stream = newStreamSession(id, moderatorID)
	case KindDebate:
		// 辯論場次在第一位辯論者加入時建立
	}
	go r.run()
	return r
}

// run 是房間的工作迴圈，房間內所有訊息對成員的遞送順序即處理順序
func (r *Room) run() {
	for cmd := range r.inbox {
		reply := roomReply{}
		switch cmd.kind {
		case cmdJoin:
			reply.snap, reply.actions, reply.err = r.handleJoin(cmd.conn, cmd.opts)
		case cmdLeave:
			r.handleLeave(cmd.conn.ID())
		case cmdDisconnect:
			// 舊連線的遲到斷線通知不得移除重連後的新成員
			if m, ok := r.members[cmd.conn.ID()]; ok && m.conn == cmd.conn {
				r.handleLeave(cmd.conn.ID())
			}
		case cmdEnvelope:
			reply.err = r.handleEnvelope(cmd.conn, cmd.env)
		case cmdSnapshot:
			reply.snap = r.snapshot()
		case cmdReap:
			r.handleReap(cmd.now)
		}
		if cmd.kind != cmdSnapshot && cmd.kind != cmdReap {
			r.lastActivity = time.Now()
		}
		cmd.reply <- reply

		if len(r.members) == 0 && (r.terminal() || r.reaped) {
			r.reg.retire(r)
			close(r.done)
			return
		}
	}
}

func (r *Room) terminal() bool {
	switch r.kind {
	case KindDebate:
		return r.debate != nil && r.debate.terminal()
	case KindStream:
		return r.stream != nil && r.stream.terminal()
	}
	return false
}

// handleJoin 處理加入請求
// 同一連線重複加入是冪等操作；既有成員換新連線時重新掛接而不重播 user_joined；
// 辯論房間超過兩位不同身分時回傳容量錯誤
func (r *Room) handleJoin(conn Conn, opts JoinOptions) (*RoomSnapshot, []StreamAction, error) {
	uid := conn.UserID()

	if m, ok := r.members[conn.ID()]; ok && m.userID == uid {
		return r.snapshot(), r.replay(), nil
	}

	if oldID, ok := r.byUser[uid]; ok {
		old := r.members[oldID]
		delete(r.members, oldID)
		r.members[conn.ID()] = &member{conn: conn, userID: uid, role: old.role}
		r.byUser[uid] = conn.ID()
		if old.conn != conn {
			old.conn.Close(websocket.CloseNormalClosure, "connection superseded")
		}
		return r.snapshot(), r.replay(), nil
	}

	var role string
	switch r.kind {
	case KindDebate:
		if r.debate == nil {
			r.debate = newDebateSession(r.id, uid, r.reg.opts.MaxTurns)
		}
		var err error
		role, err = r.debate.admit(uid)
		if err != nil {
			return nil, nil, err
		}
	case KindStream:
		if r.stream.moderatorID == 0 && opts.Moderator {
			r.stream.moderatorID = uid
		}
		role = r.stream.roleOf(uid)
	}

	r.members[conn.ID()] = &member{conn: conn, userID: uid, role: role}
	r.byUser[uid] = conn.ID()

	r.broadcast(&Envelope{
		Type:             TypeUserJoined,
		RoomID:           r.id,
		UserID:           uid,
		Role:             role,
		ParticipantCount: len(r.members),
		Timestamp:        time.Now(),
	}, conn.ID())

	return r.snapshot(), r.replay(), nil
}

// handleLeave 移除成員並以更新後的人數廣播 user_left
// 場次不因房間清空而銷毀，未達終態前成員可以回來
func (r *Room) handleLeave(connID string) {
	m, ok := r.members[connID]
	if !ok {
		return
	}
	delete(r.members, connID)
	if r.byUser[m.userID] == connID {
		delete(r.byUser, m.userID)
	}

	r.broadcast(&Envelope{
		Type:             TypeUserLeft,
		RoomID:           r.id,
		UserID:           m.userID,
		Role:             m.role,
		ParticipantCount: len(r.members),
		Timestamp:        time.Now(),
	}, "")
}

// handleEnvelope 依類型把信封分派給辯論場次或直播場次
// 回傳的錯誤只會變成給發送者的拒絕信封，不影響房間其他成員
func (r *Room) handleEnvelope(conn Conn, env *Envelope) error {
	m, ok := r.members[conn.ID()]
	if !ok {
		return ErrNotInRoom
	}

	switch env.Type {
	case TypeChatMessage:
		return r.handleChat(m, env)
	case TypeLiveVote:
		return r.handleLiveVote(m, env)
	case TypeCastVote:
		return r.handleCastVote(m, env)
	case TypeModeratorAction:
		return r.handleModeratorAction(m, env)
	}
	return ErrBadEnvelope
}

func (r *Room) handleChat(m *member, env *Envelope) error {
	switch r.kind {
	case KindDebate:
		if r.debate == nil {
			return ErrSessionNotFound
		}
		_, toVoting, err := r.debate.acceptChat(m.userID)
		if err != nil {
			return err
		}
		r.relayChat(m, env.Content)
		if toVoting {
			r.broadcast(NewPhaseEnvelope(r.id, PhaseVoting, "雙方回合已用盡，請為對方評分"), "")
			r.broadcast(&Envelope{Type: TypeVoteRequest, RoomID: r.id, Timestamp: time.Now()}, "")
		}
	case KindStream:
		if err := r.stream.canChat(m.userID); err != nil {
			return err
		}
		r.relayChat(m, env.Content)
	}
	return nil
}

// relayChat 指派 ULID 與伺服器時間戳後廣播，並交給保存協作者留底
func (r *Room) relayChat(m *member, content string) {
	out := NewChatEnvelope(r.id, m.userID, m.role, content)
	out.ID = ulid.Make().String()
	r.broadcast(out, "")
	r.reg.persist("save chat", func() error {
		return r.reg.stores.History.SaveChat(r.id, m.userID, m.role, content, out.Timestamp)
	})
}

func (r *Room) handleLiveVote(m *member, env *Envelope) error {
	if r.kind != KindDebate || r.debate == nil {
		return ErrSessionNotFound
	}
	if err := r.debate.acceptLiveVote(m.userID, env.Vote); err != nil {
		return err
	}
	r.broadcast(&Envelope{
		ID:        ulid.Make().String(),
		Type:      TypeLiveVote,
		RoomID:    r.id,
		UserID:    m.userID,
		Role:      m.role,
		Vote:      env.Vote,
		Timestamp: time.Now(),
	}, "")
	return nil
}

func (r *Room) handleCastVote(m *member, env *Envelope) error {
	if r.kind != KindDebate || r.debate == nil {
		return ErrSessionNotFound
	}
	if env.Ballot == nil {
		return ErrBadEnvelope
	}
	result, err := r.debate.castBallot(m.userID, *env.Ballot)
	if err != nil {
		return err
	}
	if result == nil {
		// 等待另一方投票
		return nil
	}

	r.broadcast(&Envelope{
		Type:      TypeDebateResult,
		RoomID:    r.id,
		Result:    result,
		Timestamp: time.Now(),
	}, "")
	if result.Continued {
		r.broadcast(NewPhaseEnvelope(r.id, PhaseFreeform, "雙方同意繼續，進入自由討論"), "")
	} else {
		r.broadcast(NewPhaseEnvelope(r.id, PhaseConcluded, "辯論結束"), "")
		r.archiveDebate(false)
	}
	return nil
}

func (r *Room) handleModeratorAction(m *member, env *Envelope) error {
	if r.kind != KindStream || r.stream == nil {
		return ErrSessionNotFound
	}
	kind, targetID := env.Action, env.TargetID

	// 授權先於目標檢查，非主持人不論踢誰都收到授權錯誤
	err := r.stream.authorize(m.userID, kind, targetID)
	if err == nil && kind == ActionKick {
		if _, ok := r.byUser[targetID]; !ok {
			err = ErrNotInRoom
		}
	}
	if err != nil {
		// 被拒的嘗試不進動作日誌，但要進安全稽核
		r.auditAction(StreamAction{
			ID:       ulid.Make().String(),
			Kind:     kind,
			ActorID:  m.userID,
			TargetID: targetID,
			At:       time.Now(),
		}, false, err.Error())
		return err
	}

	action, err := r.stream.apply(m.userID, kind, targetID)
	if err != nil {
		return err
	}
	r.auditAction(*action, true, "")

	r.broadcast(&Envelope{
		ID:        action.ID,
		Type:      TypeModeratorAction,
		RoomID:    r.id,
		UserID:    action.ActorID,
		Action:    action.Kind,
		TargetID:  action.TargetID,
		Timestamp: action.At,
	}, "")

	switch kind {
	case ActionPauseStream, ActionResumeStream, ActionEndStream:
		r.broadcast(NewStreamUpdateEnvelope(r.id, r.stream.status), "")
	case ActionKick:
		if connID, ok := r.byUser[targetID]; ok {
			target := r.members[connID]
			r.handleLeave(connID)
			r.reg.dropLocation(connID)
			target.conn.Close(websocket.ClosePolicyViolation, "kicked by moderator")
		}
	}
	return nil
}

func (r *Room) auditAction(action StreamAction, allowed bool, reason string) {
	r.reg.persist("audit moderator action", func() error {
		return r.reg.stores.Audit.Record(r.id, action, allowed, reason)
	})
}

func (r *Room) archiveDebate(expired bool) {
	outcome := r.debate.outcome(expired)
	r.reg.persist("archive debate", func() error {
		return r.reg.stores.Archive.SaveDebate(outcome)
	})
}

// handleReap 處理閒置回收：長時間沒有任何成員的未終結場次會被強制收場
func (r *Room) handleReap(now time.Time) {
	if len(r.members) > 0 || r.terminal() {
		return
	}
	if now.Sub(r.lastActivity) < r.reg.opts.IdleRoomTTL {
		return
	}
	log.Printf("realtime: reaping idle room %d (%s)", r.id, r.kind)
	r.reaped = true
	switch r.kind {
	case KindDebate:
		if r.debate != nil {
			r.archiveDebate(true)
			r.debate.conclude()
		}
	case KindStream:
		r.stream.end()
	}
}

// broadcast 向所有成員做非阻塞遞送
// 某個成員的送出佇列滿時只斷開那一條連線，絕不回壓整個房間
func (r *Room) broadcast(env *Envelope, excludeConnID string) {
	var overflowed []*member
	for connID, m := range r.members {
		if connID == excludeConnID {
			continue
		}
		if !m.conn.Enqueue(env) {
			overflowed = append(overflowed, m)
		}
	}
	for _, m := range overflowed {
		connID := m.conn.ID()
		// user_left 的巢狀廣播可能已把同批超量的成員送走
		if cur, ok := r.members[connID]; !ok || cur != m {
			continue
		}
		log.Printf("realtime: dropping connection %s in room %d: send queue overflow", connID, r.id)
		r.handleLeave(connID)
		r.reg.dropLocation(connID)
		m.conn.Close(websocket.CloseTryAgainLater, "send queue overflow")
	}
	r.reg.messages.Add(1)
}

func (r *Room) snapshot() *RoomSnapshot {
	snap := &RoomSnapshot{
		RoomID:           r.id,
		Kind:             r.kind,
		ParticipantCount: len(r.members),
		LastActivity:     r.lastActivity,
	}
	switch r.kind {
	case KindDebate:
		if r.debate != nil {
			r.debate.fillSnapshot(snap)
		}
	case KindStream:
		r.stream.fillSnapshot(snap, r.members)
	}
	return snap
}

// replay 取出給晚加入者的直播動作重播；辯論房間沒有重播內容
func (r *Room) replay() []StreamAction {
	if r.kind != KindStream {
		return nil
	}
	return r.stream.replay()
}
