package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"debate_live/internal/models"
	"debate_live/internal/service"
)

// RoomHandler 處理房間記錄的建立與查詢
// 房間的即時行為（加入、發言、投票、主持）走 WebSocket 通道，
// 這裡只負責持久化記錄與歷史資料的讀取
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoom 處理創建新房間的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Kind        string `json:"kind" binding:"required"` // debate 或 stream
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")

	room, err := h.roomService.CreateRoom(input.Name, input.Description, models.RoomKind(input.Kind), userID.(uint))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// ListRooms 處理獲取房間列表的請求
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得房間列表"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// GetRoom 處理獲取房間訊息的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := parseRoomID(c)
	if err != nil {
		return
	}

	room, err := h.roomService.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "房間不存在"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetMessages 取回一個房間留存的聊天記錄
func (h *RoomHandler) GetMessages(c *gin.Context) {
	roomID, err := parseRoomID(c)
	if err != nil {
		return
	}

	messages, err := h.roomService.Messages(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得聊天記錄"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetArchives 取回一個房間的辯論歸檔（雙方評分與結果）
func (h *RoomHandler) GetArchives(c *gin.Context) {
	roomID, err := parseRoomID(c)
	if err != nil {
		return
	}

	archives, err := h.roomService.Archives(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得辯論歸檔"})
		return
	}

	c.JSON(http.StatusOK, archives)
}

// GetActions 取回一個房間的主持動作稽核記錄
func (h *RoomHandler) GetActions(c *gin.Context) {
	roomID, err := parseRoomID(c)
	if err != nil {
		return
	}

	actions, err := h.roomService.Actions(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法取得稽核記錄"})
		return
	}

	c.JSON(http.StatusOK, actions)
}

// parseRoomID 解析路徑中的房間 ID，失敗時直接回覆 400
func parseRoomID(c *gin.Context) (uint, error) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的房間 ID"})
		return 0, err
	}
	return uint(roomID), nil
}
