package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"debate_live/internal/realtime"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連接
type WebSocketHandler struct {
	hub *realtime.Manager
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(hub *realtime.Manager) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket 把通過認證的 HTTP 連線升級為 WebSocket 並交給即時層
// 房間的加入與離開都透過通道上的 join_room / leave_room 信封完成，
// 這個端點只負責升級與身分的傳遞
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// 從上下文中獲取用戶 ID（認證中間件設置）
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// 升級 HTTP 連接為 WebSocket 連接
	// 升級失敗時 gorilla 已自行回覆 HTTP 錯誤
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	// 連線的生命週期從此由連線管理者負責
	h.hub.HandleConnection(conn, userID.(uint))
}
