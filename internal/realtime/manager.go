package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Manager 負責連線的註冊與回收
// 升級後的連線在這裡取得識別碼並掛上讀寫迴圈，
// 斷線時先通知註冊表移除成員再從連線表移除
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	reg    *Registry
	router *Router
	opts   Options
}

func NewManager(reg *Registry, router *Router, opts Options) *Manager {
	return &Manager{
		conns:  make(map[string]*Connection),
		reg:    reg,
		router: router,
		opts:   opts.withDefaults(),
	}
}

// HandleConnection 接手一條完成升級的 WebSocket 連線
// 註冊後讀寫迴圈各自啟動，呼叫端不需要等待連線結束
func (m *Manager) HandleConnection(ws *websocket.Conn, userID uint) *Connection {
	c := newConnection(ws, userID, m)

	m.mu.Lock()
	m.conns[c.id] = c
	m.mu.Unlock()

	c.state.Store(int32(StateOpen))
	go c.writePump()
	go c.readPump()

	log.Printf("realtime: connection %s opened for user %d", c.id, userID)
	return c
}

// drop 在讀取迴圈結束後回收連線
func (m *Manager) drop(c *Connection) {
	m.reg.Disconnect(c)

	m.mu.Lock()
	delete(m.conns, c.id)
	m.mu.Unlock()

	log.Printf("realtime: connection %s closed for user %d", c.id, c.userID)
}

// Count 回報活躍連線數
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll 在伺服器關閉時通知所有連線收線
func (m *Manager) CloseAll() {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}
}
