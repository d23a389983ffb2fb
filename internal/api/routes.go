package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"debate_live/internal/api/handlers"
	"debate_live/internal/middleware"
	"debate_live/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room)
	wsHandler := handlers.NewWebSocketHandler(services.Hub)
	stateHandler := handlers.NewStateHandler(services.Registry)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 健康檢查，附上即時層統計
		api.GET("/health", func(c *gin.Context) {
			stats := services.Registry.Stats()
			stats.ActiveConnections = services.Hub.Count()
			c.JSON(http.StatusOK, gin.H{
				"status":   "ok",
				"realtime": stats,
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 房間記錄與歷史資料
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)                // 獲取房間列表
			rooms.POST("", roomHandler.CreateRoom)              // 創建房間
			rooms.GET("/:id", roomHandler.GetRoom)              // 獲取房間信息
			rooms.GET("/:id/messages", roomHandler.GetMessages) // 聊天記錄
			rooms.GET("/:id/archives", roomHandler.GetArchives) // 辯論歸檔
			rooms.GET("/:id/actions", roomHandler.GetActions)   // 主持動作稽核
			rooms.GET("/:id/state", stateHandler.RoomState)     // 即時快照
		}

		// 即時層監看
		authorized.GET("/realtime/rooms", stateHandler.ActiveRooms)

		// WebSocket 連接點；加入房間走通道上的 join_room 信封
		authorized.GET("/ws", wsHandler.HandleWebSocket)
	}
}
