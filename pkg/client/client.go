// Package client 實作即時通道的客戶端側邏輯：
// 撥號與斷線重連（指數退避、次數上限）、斷線期間的加入請求暫存，
// 以及訊息目錄中各種客戶端信封的送出。
//
// 重連是客戶端的責任：非預期斷線後第 n 次嘗試會等待基礎間隔 × 2^(n−1)，
// 次數用盡轉入 error 狀態不再自動重試。收到正常關閉或政策違規的
// 關閉碼表示對端是有意收線，不會觸發重連。
package client

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"debate_live/internal/realtime"
)

// State 是客戶端連線的生命週期狀態
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed // 主動關閉，或收到終止性關閉碼
	StateError  // 重連次數用盡
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	// ErrNotConnected 表示通道目前不可寫，呼叫端可待重連後重試
	ErrNotConnected = errors.New("client: not connected")
	// ErrClosed 表示客戶端已終止，不會再有任何送收
	ErrClosed = errors.New("client: closed")
)

// Options 是客戶端的調校參數，零值欄位套用預設值
type Options struct {
	URL          string        // WebSocket 端點，例如 ws://localhost:8080/api/ws
	Token        string        // JWT，放進握手的 Authorization 標頭
	BaseInterval time.Duration // 重連退避的基礎間隔
	MaxAttempts  int           // 重連次數上限
	EventBuffer  int           // 收件通道的緩衝長度
	OnState      func(State)   // 狀態變更回呼，可為 nil
}

func (o Options) withDefaults() Options {
	if o.BaseInterval <= 0 {
		o.BaseInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

// Client 是一條通往即時層的客戶端連線
// 一個 Client 對應一條實體連線；房間成員身分是通道上的資料，
// 不同房間不需要各自的連線
type Client struct {
	opts Options

	mu          sync.Mutex
	ws          *websocket.Conn
	state       State
	pendingJoin *realtime.Envelope // 斷線期間最多保留一筆加入請求

	events    chan *realtime.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

const writeTimeout = 10 * time.Second

// Dial 建立連線；初次撥號失敗直接回傳錯誤，不進入重連
func Dial(opts Options) (*Client, error) {
	opts = opts.withDefaults()
	c := &Client{
		opts:   opts,
		state:  StateConnecting,
		events: make(chan *realtime.Envelope, opts.EventBuffer),
		done:   make(chan struct{}),
	}

	ws, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.adopt(ws)

	go c.run(ws)
	return c, nil
}

// Events 回傳收件通道，伺服器推送的信封依序出現在這裡
// 客戶端的本地狀態應以這些廣播為準，而不是樂觀地自行預測
func (c *Client) Events() <-chan *realtime.Envelope {
	return c.events
}

// State 回報目前的連線狀態
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close 主動收線，後續不會重連
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		ws := c.ws
		c.ws = nil
		changed := c.state != StateClosed
		c.state = StateClosed
		c.mu.Unlock()

		if ws != nil {
			deadline := time.Now().Add(writeTimeout)
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			ws.Close()
		}
		if changed {
			c.notify(StateClosed)
		}
	})
	return nil
}

// JoinRoom 送出加入房間的請求
// 斷線期間的請求會被暫存（只保留最新一筆），下次連線建立時立即送出
func (c *Client) JoinRoom(roomID uint, kind realtime.RoomKind, moderator bool) error {
	env := &realtime.Envelope{
		Type:        realtime.TypeJoinRoom,
		RoomID:      roomID,
		Kind:        kind,
		IsModerator: moderator,
	}

	c.mu.Lock()
	switch c.state {
	case StateClosed, StateError:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting:
		c.pendingJoin = env
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.write(env)
}

// LeaveRoom 送出離開房間的請求
func (c *Client) LeaveRoom() error {
	return c.write(&realtime.Envelope{Type: realtime.TypeLeaveRoom})
}

// SendChat 送出一則聊天訊息
func (c *Client) SendChat(roomID uint, content string) error {
	return c.write(&realtime.Envelope{
		Type:    realtime.TypeChatMessage,
		RoomID:  roomID,
		Content: content,
	})
}

// LiveVote 送出一則即席投票（參考性質的風向投票）
func (c *Client) LiveVote(roomID uint, vote realtime.LiveVote) error {
	return c.write(&realtime.Envelope{
		Type:   realtime.TypeLiveVote,
		RoomID: roomID,
		Vote:   vote,
	})
}

// CastVote 送出結束辯論的正式評分
func (c *Client) CastVote(roomID uint, ballot realtime.Ballot) error {
	return c.write(&realtime.Envelope{
		Type:   realtime.TypeCastVote,
		RoomID: roomID,
		Ballot: &ballot,
	})
}

// ModeratorAction 送出一道主持人指令
func (c *Client) ModeratorAction(roomID uint, action realtime.ActionKind, targetID uint) error {
	return c.write(&realtime.Envelope{
		Type:     realtime.TypeModeratorAction,
		RoomID:   roomID,
		Action:   action,
		TargetID: targetID,
	})
}

// write 在連線開啟時送出信封；gorilla 連線同一時間只允許一個寫入者
func (c *Client) write(env *realtime.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(env)
}

// connect 完成一次撥號
func (c *Client) connect() (*websocket.Conn, error) {
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, resp, err := dialer.Dial(c.opts.URL, header)
	if resp != nil && resp.Body != nil && err != nil {
		resp.Body.Close()
	}
	return ws, err
}

// adopt 把新連線設為現役連線並沖掉暫存的加入請求
func (c *Client) adopt(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.state = StateOpen
	pending := c.pendingJoin
	c.pendingJoin = nil
	c.mu.Unlock()

	c.notify(StateOpen)

	if pending != nil {
		if err := c.write(pending); err != nil {
			log.Printf("client: flush pending join failed: %v", err)
		}
	}
}

// run 擁有連線的生命週期：讀取、斷線判定與重連
func (c *Client) run(ws *websocket.Conn) {
	for {
		terminal := c.readLoop(ws)
		if terminal {
			c.shutdown(StateClosed)
			return
		}
		// 讀取出錯不會順手關閉底層連線，重連前先釋放舊的
		ws.Close()

		next, ok := c.reconnect()
		if !ok {
			// 主動關閉造成的中止以 closed 收場，次數用盡才是 error
			select {
			case <-c.done:
				c.shutdown(StateClosed)
			default:
				c.shutdown(StateError)
			}
			return
		}
		ws = next
	}
}

// readLoop 逐幀讀取直到連線中斷
// 回傳 true 表示這次中斷是終止性的（主動關閉或對端的有意收線）
func (c *Client) readLoop(ws *websocket.Conn) bool {
	for {
		var env realtime.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			select {
			case <-c.done:
				return true
			default:
			}
			// 正常關閉與政策違規代表有意或被拒的收線，不重連
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.ClosePolicyViolation) {
				log.Printf("client: connection closed by peer: %v", err)
				return true
			}
			log.Printf("client: connection lost: %v", err)
			return false
		}

		select {
		case c.events <- &env:
		case <-c.done:
			return true
		default:
			// 消費者跟不上時丟棄而不是卡住讀取迴圈
			log.Printf("client: event buffer full, dropping %s envelope", env.Type)
		}
	}
}

// reconnect 依退避排程嘗試重連
// 第 n 次嘗試前等待 BaseInterval × 2^(n−1)；次數用盡回傳 false
func (c *Client) reconnect() (*websocket.Conn, bool) {
	c.mu.Lock()
	c.ws = nil
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify(StateConnecting)

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		select {
		case <-time.After(backoffDelay(c.opts.BaseInterval, attempt)):
		case <-c.done:
			return nil, false
		}

		ws, err := c.connect()
		if err != nil {
			log.Printf("client: reconnect attempt %d/%d failed: %v", attempt, c.opts.MaxAttempts, err)
			continue
		}
		// 撥號期間被主動關閉的話放棄這條新連線
		select {
		case <-c.done:
			ws.Close()
			return nil, false
		default:
		}
		c.adopt(ws)
		return ws, true
	}
	return nil, false
}

// backoffDelay 計算第 attempt 次重連前的等待時間：base × 2^(attempt−1)
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << (attempt - 1)
}

// shutdown 進入終態並關閉收件通道
func (c *Client) shutdown(final State) {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	changed := c.state != final
	c.state = final
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
	if changed {
		c.notify(final)
	}
	close(c.events)
}

func (c *Client) notify(s State) {
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}
