package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"debate_live/internal/realtime"
)

// StateHandler 把即時層的房間快照暴露給排除在核心之外的 UI 與通知層
// 快照由各房間的工作迴圈產生，這裡只做轉發，不持有任何狀態
type StateHandler struct {
	registry *realtime.Registry
}

// NewStateHandler 創建一個新的 StateHandler 實例
func NewStateHandler(registry *realtime.Registry) *StateHandler {
	return &StateHandler{registry: registry}
}

// RoomState 回傳單一房間的即時快照（階段、回合數、在線人數）
func (h *StateHandler) RoomState(c *gin.Context) {
	roomID, err := parseRoomID(c)
	if err != nil {
		return
	}

	snap, err := h.registry.Snapshot(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間目前沒有進行中的場次"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// ActiveRooms 回傳所有活躍房間的快照，供外層輪詢
func (h *StateHandler) ActiveRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.registry.Snapshots()})
}
