package realtime

// DebatePhase 定義辯論場次階段的類型
type DebatePhase string

const (
	PhaseOpening   DebatePhase = "opening"   // 等待正方開場
	PhaseTurns     DebatePhase = "turns"     // 回合發言中
	PhaseVoting    DebatePhase = "voting"    // 雙方互評中
	PhaseFreeform  DebatePhase = "freeform"  // 自由討論，不再計算回合
	PhaseConcluded DebatePhase = "concluded" // 終態，不再接受任何發言
)

// Ballot 是結束辯論時對對手的正式評分
// 三項分數都是 1 到 5 的整數，Continue 表示是否願意繼續交流
type Ballot struct {
	Logic      int  `json:"logic"`
	Politeness int  `json:"politeness"`
	Openness   int  `json:"openness"`
	Continue   bool `json:"continue"`
}

// Validate 檢查評分範圍
func (b Ballot) Validate() error {
	for _, score := range []int{b.Logic, b.Politeness, b.Openness} {
		if score < 1 || score > 5 {
			return ErrInvalidVote
		}
	}
	return nil
}

// DebateResult 是雙方評分都到齊後廣播給兩位辯論者的結果
type DebateResult struct {
	Continued       bool    `json:"continued"`
	ProponentBallot *Ballot `json:"proponent_ballot"`
	OpponentBallot  *Ballot `json:"opponent_ballot"`
}

// DebateOutcome 是場次抵達終態時交給保存協作者的歸檔內容
type DebateOutcome struct {
	RoomID          uint
	ProponentID     uint
	OpponentID      uint
	ProponentTurns  int
	OpponentTurns   int
	ProponentBallot *Ballot
	OpponentBallot  *Ballot
	Continued       bool
	Expired         bool // 由閒置回收器強制結束
}

// DebateSession 是一場辯論的即時狀態，與 debate 房間一對一
// 所有欄位只由房間工作迴圈讀寫，因此不需要鎖
type DebateSession struct {
	roomID    uint
	proponent uint // 正方，建立房間的第一位辯論者
	opponent  uint // 反方，第二位辯論者加入前為 0
	phase     DebatePhase
	turns     map[uint]int
	ballots   map[uint]*Ballot
	maxTurns  int
}

func newDebateSession(roomID, first uint, maxTurns int) *DebateSession {
	return &DebateSession{
		roomID:    roomID,
		proponent: first,
		phase:     PhaseOpening,
		turns:     make(map[uint]int),
		ballots:   make(map[uint]*Ballot),
		maxTurns:  maxTurns,
	}
}

// admit 替加入者決定場次角色
// 既有辯論者重回房間拿回原角色；第三個不同身分會被容量錯誤拒絕
func (d *DebateSession) admit(userID uint) (string, error) {
	switch userID {
	case d.proponent:
		return RoleProponent, nil
	case d.opponent:
		return RoleOpponent, nil
	}
	if d.opponent == 0 {
		d.opponent = userID
		return RoleOpponent, nil
	}
	return "", ErrRoomFull
}

func (d *DebateSession) participant(userID uint) bool {
	return userID != 0 && (userID == d.proponent || userID == d.opponent)
}

func (d *DebateSession) roleOf(userID uint) string {
	if userID == d.proponent {
		return RoleProponent
	}
	if userID == d.opponent {
		return RoleOpponent
	}
	return ""
}

// acceptChat 讓場次審核一則聊天訊息
// opening/turns 階段會把訊息計入發言者的回合數；回合數已滿者被拒絕。
// 回傳值 toVoting 表示這則訊息讓雙方都用完回合、場次轉入互評階段
func (d *DebateSession) acceptChat(userID uint) (counted, toVoting bool, err error) {
	if !d.participant(userID) {
		return false, false, ErrNotInRoom
	}

	switch d.phase {
	case PhaseConcluded:
		return false, false, ErrOutOfPhase
	case PhaseVoting:
		// 互評期間雙方回合皆已用盡
		return false, false, ErrTurnLimit
	case PhaseFreeform:
		// 自由討論不設限
		return false, false, nil
	}

	if d.turns[userID] >= d.maxTurns {
		return false, false, ErrTurnLimit
	}
	d.turns[userID]++
	if d.phase == PhaseOpening {
		d.phase = PhaseTurns
	}
	if d.opponent != 0 && d.turns[d.proponent] >= d.maxTurns && d.turns[d.opponent] >= d.maxTurns {
		d.phase = PhaseVoting
		return true, true, nil
	}
	return true, false, nil
}

// castBallot 收下一位辯論者的正式評分
// 對手投票前允許覆寫自己的評分；雙方都到齊後立即凍結並結算：
// 兩人都願意繼續才轉入 freeform，否則終結場次（必須雙方同意的收斂規則）
func (d *DebateSession) castBallot(userID uint, b Ballot) (*DebateResult, error) {
	if !d.participant(userID) {
		return nil, ErrNotInRoom
	}
	if d.phase != PhaseVoting {
		return nil, ErrOutOfPhase
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	d.ballots[userID] = &b
	pb, ok1 := d.ballots[d.proponent]
	ob, ok2 := d.ballots[d.opponent]
	if !ok1 || !ok2 {
		return nil, nil // 等待另一方
	}

	result := &DebateResult{
		Continued:       pb.Continue && ob.Continue,
		ProponentBallot: pb,
		OpponentBallot:  ob,
	}
	if result.Continued {
		d.phase = PhaseFreeform
	} else {
		d.phase = PhaseConcluded
	}
	return result, nil
}

// acceptLiveVote 審核一則即席投票
// 即席投票純屬參考性質，只做值與階段檢查，不參與任何計分
func (d *DebateSession) acceptLiveVote(userID uint, v LiveVote) error {
	if !d.participant(userID) {
		return ErrNotInRoom
	}
	if !v.Valid() {
		return ErrInvalidVote
	}
	if d.phase == PhaseConcluded {
		return ErrOutOfPhase
	}
	return nil
}

// conclude 把場次強制轉入終態，用於閒置回收
func (d *DebateSession) conclude() {
	d.phase = PhaseConcluded
}

func (d *DebateSession) terminal() bool {
	return d.phase == PhaseConcluded
}

// outcome 匯出歸檔內容
func (d *DebateSession) outcome(expired bool) DebateOutcome {
	out := DebateOutcome{
		RoomID:          d.roomID,
		ProponentID:     d.proponent,
		OpponentID:      d.opponent,
		ProponentTurns:  d.turns[d.proponent],
		OpponentTurns:   d.turns[d.opponent],
		ProponentBallot: d.ballots[d.proponent],
		OpponentBallot:  d.ballots[d.opponent],
		Expired:         expired,
	}
	if out.ProponentBallot != nil && out.OpponentBallot != nil {
		out.Continued = out.ProponentBallot.Continue && out.OpponentBallot.Continue
	}
	return out
}

func (d *DebateSession) fillSnapshot(s *RoomSnapshot) {
	s.Phase = d.phase
	s.ProponentID = d.proponent
	s.OpponentID = d.opponent
	s.ProponentTurns = d.turns[d.proponent]
	s.OpponentTurns = d.turns[d.opponent]
}
