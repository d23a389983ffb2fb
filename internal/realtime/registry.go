package realtime

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Options 是即時層的調校參數，零值欄位套用預設值
type Options struct {
	MaxTurns       int           // 辯論單方發言回合上限
	SendQueueSize  int           // 每條連線的送出佇列長度
	ReadLimit      int64         // 單一訊框的位元組上限
	WriteTimeout   time.Duration // 寫入逾時
	PongTimeout    time.Duration // 讀取與 pong 逾時
	PingInterval   time.Duration // 心跳間隔，必須小於 PongTimeout
	IdleRoomTTL    time.Duration // 空房間閒置多久後強制收場
	ReaperInterval time.Duration // 回收巡檢間隔
}

func (o Options) withDefaults() Options {
	if o.MaxTurns <= 0 {
		o.MaxTurns = 3
	}
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = 256
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 4096
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	if o.IdleRoomTTL <= 0 {
		o.IdleRoomTTL = 30 * time.Minute
	}
	if o.ReaperInterval <= 0 {
		o.ReaperInterval = time.Minute
	}
	return o
}

// RoomInfo 是持久層的房間記錄投影，供建房時推斷種類與主持人
type RoomInfo struct {
	Kind        RoomKind
	ModeratorID uint
}

// RoomStore 查詢持久化的房間記錄，不存在時回傳 (nil, nil)
type RoomStore interface {
	Lookup(roomID uint) (*RoomInfo, error)
}

// HistoryStore 保存聊天訊息供歷史查詢
type HistoryStore interface {
	SaveChat(roomID, userID uint, role, content string, at time.Time) error
}

// ArchiveStore 保存辯論收場結果
type ArchiveStore interface {
	SaveDebate(outcome DebateOutcome) error
}

// AuditLog 記錄主持動作，含未通過授權的嘗試
type AuditLog interface {
	Record(roomID uint, action StreamAction, allowed bool, reason string) error
}

// Stores 聚合即時層依賴的持久化協作者，nil 欄位以空實作代替
type Stores struct {
	Rooms   RoomStore
	History HistoryStore
	Archive ArchiveStore
	Audit   AuditLog
}

type nopStore struct{}

func (nopStore) Lookup(uint) (*RoomInfo, error)                       { return nil, nil }
func (nopStore) SaveChat(uint, uint, string, string, time.Time) error { return nil }
func (nopStore) SaveDebate(DebateOutcome) error                       { return nil }
func (nopStore) Record(uint, StreamAction, bool, string) error        { return nil }

func (s Stores) withFallbacks() Stores {
	if s.Rooms == nil {
		s.Rooms = nopStore{}
	}
	if s.History == nil {
		s.History = nopStore{}
	}
	if s.Archive == nil {
		s.Archive = nopStore{}
	}
	if s.Audit == nil {
		s.Audit = nopStore{}
	}
	return s
}

// errRoomClosed 表示指令送達前房間已被回收，呼叫端應重新查找
var errRoomClosed = errors.New("realtime: room closed")

// Registry 管理所有活躍房間
// 註冊表只負責查找與建立，房間內的狀態一律由各房間的工作迴圈處理
type Registry struct {
	mu       sync.RWMutex
	rooms    map[uint]*Room
	location map[string]uint // 連線 ID → 所在房間

	stores   Stores
	opts     Options
	messages atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(opts Options, stores Stores) *Registry {
	g := &Registry{
		rooms:    make(map[uint]*Room),
		location: make(map[string]uint),
		stores:   stores.withFallbacks(),
		opts:     opts.withDefaults(),
		stop:     make(chan struct{}),
	}
	go g.reaper()
	return g
}

// Close 停止閒置回收巡檢
func (g *Registry) Close() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// Join 讓連線加入房間，必要時先離開原房間再建立目標房間
// 回傳房間快照與給晚加入者的動作重播
func (g *Registry) Join(conn Conn, roomID uint, opts JoinOptions) (*RoomSnapshot, []StreamAction, error) {
	if roomID == 0 {
		return nil, nil, ErrRoomNotFound
	}
	if cur, ok := g.whereIs(conn.ID()); ok && cur != roomID {
		g.Leave(conn)
	}
	for {
		room, err := g.getOrCreate(roomID, opts)
		if err != nil {
			return nil, nil, err
		}
		reply := room.do(roomCmd{kind: cmdJoin, conn: conn, opts: opts, reply: make(chan roomReply, 1)})
		if errors.Is(reply.err, errRoomClosed) {
			continue
		}
		if reply.err == nil {
			g.setLocation(conn.ID(), roomID)
		}
		return reply.snap, reply.actions, reply.err
	}
}

// Leave 讓連線離開目前所在的房間
func (g *Registry) Leave(conn Conn) error {
	roomID, ok := g.takeLocation(conn.ID())
	if !ok {
		return ErrNotInRoom
	}
	if room := g.lookup(roomID); room != nil {
		room.do(roomCmd{kind: cmdLeave, conn: conn, reply: make(chan roomReply, 1)})
	}
	return nil
}

// Disconnect 處理傳輸層斷線，連線不在任何房間時靜默返回
// 與 Leave 不同之處在於：重連後的遲到斷線通知不會移除新連線
func (g *Registry) Disconnect(conn Conn) {
	roomID, ok := g.takeLocation(conn.ID())
	if !ok {
		return
	}
	if room := g.lookup(roomID); room != nil {
		room.do(roomCmd{kind: cmdDisconnect, conn: conn, reply: make(chan roomReply, 1)})
	}
}

// Deliver 把客戶端信封送進其所在房間的工作迴圈
func (g *Registry) Deliver(conn Conn, env *Envelope) error {
	roomID, ok := g.whereIs(conn.ID())
	if !ok {
		return ErrNotInRoom
	}
	if env.RoomID != 0 && env.RoomID != roomID {
		return ErrNotInRoom
	}
	room := g.lookup(roomID)
	if room == nil {
		return ErrRoomNotFound
	}
	reply := room.do(roomCmd{kind: cmdEnvelope, conn: conn, env: env, reply: make(chan roomReply, 1)})
	if errors.Is(reply.err, errRoomClosed) {
		return ErrRoomNotFound
	}
	return reply.err
}

// Snapshot 取得單一房間的即時快照
func (g *Registry) Snapshot(roomID uint) (*RoomSnapshot, error) {
	room := g.lookup(roomID)
	if room == nil {
		return nil, ErrRoomNotFound
	}
	reply := room.do(roomCmd{kind: cmdSnapshot, reply: make(chan roomReply, 1)})
	if reply.err != nil {
		return nil, ErrRoomNotFound
	}
	return reply.snap, nil
}

// Snapshots 取得所有活躍房間的快照，供監看介面輪詢
func (g *Registry) Snapshots() []*RoomSnapshot {
	snaps := make([]*RoomSnapshot, 0, g.RoomCount())
	for _, room := range g.roomList() {
		reply := room.do(roomCmd{kind: cmdSnapshot, reply: make(chan roomReply, 1)})
		if reply.err == nil && reply.snap != nil {
			snaps = append(snaps, reply.snap)
		}
	}
	return snaps
}

// Stats 回報註冊表層級的統計，連線總數由連線管理者補上
func (g *Registry) Stats() HubStats {
	return HubStats{
		ActiveRooms:   g.RoomCount(),
		TotalMessages: g.messages.Load(),
	}
}

func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// getOrCreate 查找房間，不存在時依持久層記錄或信封提示建立
// 持久層查詢失敗只記錄日誌並退回提示，加入流程不因資料庫抖動而中斷
func (g *Registry) getOrCreate(roomID uint, opts JoinOptions) (*Room, error) {
	if room := g.lookup(roomID); room != nil {
		return room, nil
	}

	kind := opts.Kind
	var moderatorID uint
	info, err := g.stores.Rooms.Lookup(roomID)
	switch {
	case err != nil:
		log.Printf("realtime: room %d lookup failed: %v", roomID, err)
	case info != nil:
		kind = info.Kind
		moderatorID = info.ModeratorID
	}
	if !kind.Valid() {
		return nil, ErrRoomNotFound
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[roomID]; ok {
		return room, nil
	}
	room := newRoom(roomID, kind, moderatorID, g)
	g.rooms[roomID] = room
	return room, nil
}

func (g *Registry) lookup(roomID uint) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[roomID]
}

func (g *Registry) roomList() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// retire 把退場的房間自註冊表移除，僅移除同一個房間實例
func (g *Registry) retire(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.rooms[r.id]; ok && cur == r {
		delete(g.rooms, r.id)
	}
}

func (g *Registry) whereIs(connID string) (uint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	roomID, ok := g.location[connID]
	return roomID, ok
}

func (g *Registry) setLocation(connID string, roomID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.location[connID] = roomID
}

func (g *Registry) takeLocation(connID string) (uint, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	roomID, ok := g.location[connID]
	if ok {
		delete(g.location, connID)
	}
	return roomID, ok
}

func (g *Registry) dropLocation(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.location, connID)
}

// persist 在背景執行持久化呼叫，失敗只記錄日誌，不回壓房間工作迴圈
func (g *Registry) persist(label string, fn func() error) {
	go func() {
		if err := fn(); err != nil {
			log.Printf("realtime: %s failed: %v", label, err)
		}
	}()
}

func (g *Registry) reaper() {
	ticker := time.NewTicker(g.opts.ReaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case now := <-ticker.C:
			g.sweep(now)
		}
	}
}

func (g *Registry) sweep(now time.Time) {
	for _, room := range g.roomList() {
		room.do(roomCmd{kind: cmdReap, now: now, reply: make(chan roomReply, 1)})
	}
}

// do 把指令交給房間工作迴圈並等待回覆
// 房間退場後送入的指令會得到 errRoomClosed，呼叫端自行決定重試
func (r *Room) do(cmd roomCmd) roomReply {
	select {
	case r.inbox <- cmd:
		return <-cmd.reply
	case <-r.done:
		return roomReply{err: errRoomClosed}
	}
}
