package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"debate_live/internal/api"
	"debate_live/internal/config"
	"debate_live/internal/models"
	"debate_live/internal/repository"
	"debate_live/internal/service"
	"debate_live/internal/storage"
	"debate_live/internal/utils"
)

func main() {
	// 載入應用程式配置
	// 從配置文件中讀取設置，如數據庫連接信息、伺服器地址與即時層參數
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 注入 JWT 簽章設定
	utils.Configure(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	// 初始化資料庫連接
	// 使用配置中的信息建立到 PostgreSQL 數據庫的連接
	db, err := storage.NewPostgresDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	// 確保在程序結束時關閉數據庫連接
	defer db.Close()

	// 自動遷移資料庫結構
	// 根據定義的模型自動創建或更新數據庫表結構
	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Message{},
		&models.DebateArchive{},
		&models.StreamAction{},
	); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 初始化 repositories 與 services
	// services 內含即時層：連線管理、房間註冊表與訊息路由
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, cfg)
	defer services.Shutdown()

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services)

	// 啟動伺服器
	// 使用配置中指定的地址啟動 HTTP 服務器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
