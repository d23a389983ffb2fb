package realtime

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ConnState 描述連線生命週期
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection 包裝一條 WebSocket 連線
// 讀寫各自擁有一個 goroutine：讀取迴圈解碼並交給路由器，
// 寫入迴圈獨佔底層連線的寫入端並負責心跳
type Connection struct {
	id     string
	userID uint

	ws   *websocket.Conn
	send chan *Envelope

	done       chan struct{}
	closeOnce  sync.Once
	closeFrame []byte
	state      atomic.Int32

	mgr *Manager
}

func newConnection(ws *websocket.Conn, userID uint, mgr *Manager) *Connection {
	c := &Connection{
		id:     uuid.NewString(),
		userID: userID,
		ws:     ws,
		send:   make(chan *Envelope, mgr.opts.SendQueueSize),
		done:   make(chan struct{}),
		mgr:    mgr,
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) UserID() uint { return c.userID }

func (c *Connection) State() ConnState { return ConnState(c.state.Load()) }

// Enqueue 做非阻塞遞送，佇列滿或連線已關閉時回傳 false
// 慢速消費者由房間層處置，這裡絕不等待
func (c *Connection) Enqueue(env *Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- env:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close 以指定的關閉碼收線，重複呼叫只有第一次生效
func (c *Connection) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		c.closeFrame = websocket.FormatCloseMessage(code, reason)
		close(c.done)
	})
}

// readPump 逐幀讀取並交給路由器
// JSON 解碼失敗代表傳輸毀損，直接以 invalid payload 關閉碼收線
func (c *Connection) readPump() {
	defer func() {
		c.Close(websocket.CloseNormalClosure, "")
		c.mgr.drop(c)
	}()

	c.ws.SetReadLimit(c.mgr.opts.ReadLimit)
	c.ws.SetReadDeadline(time.Now().Add(c.mgr.opts.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.mgr.opts.PongTimeout))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("realtime: connection %s read error: %v", c.id, err)
			}
			return
		}
		if err := c.mgr.router.Route(c, raw); err != nil {
			log.Printf("realtime: connection %s sent malformed frame: %v", c.id, err)
			c.Close(websocket.CloseInvalidFramePayloadData, "malformed frame")
			return
		}
	}
}

// writePump 獨佔寫入端，送出信封與週期心跳
// 收線時先送出關閉控制幀再關閉底層連線，讓對端拿得到關閉碼
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.mgr.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.state.Store(int32(StateClosed))
	}()

	for {
		select {
		case env := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.mgr.opts.WriteTimeout))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.mgr.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.mgr.opts.WriteTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, c.closeFrame)
			return
		}
	}
}
