package service

import (
	"debate_live/internal/config"
	"debate_live/internal/realtime"
	"debate_live/internal/repository"
)

// Services 聚合所有服務
// 即時層的三個元件（註冊表、路由器、連線管理）在這裡完成組裝，
// 倉儲透過 realtimeStores 介接成即時層的持久化協作者
type Services struct {
	User     *UserService
	Room     *RoomService
	Registry *realtime.Registry
	Hub      *realtime.Manager
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	stores := realtimeStores{repos: repos}
	opts := realtime.Options{
		MaxTurns:       cfg.Realtime.MaxTurns,
		SendQueueSize:  cfg.Realtime.SendQueueSize,
		ReadLimit:      cfg.Realtime.ReadLimit,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		PongTimeout:    cfg.Realtime.PongTimeout,
		PingInterval:   cfg.Realtime.PingInterval,
		IdleRoomTTL:    cfg.Realtime.IdleRoomTTL,
		ReaperInterval: cfg.Realtime.ReaperInterval,
	}

	registry := realtime.NewRegistry(opts, realtime.Stores{
		Rooms:   stores,
		History: stores,
		Archive: stores,
		Audit:   stores,
	})
	router := realtime.NewRouter(registry)
	hub := realtime.NewManager(registry, router, opts)

	return &Services{
		User:     NewUserService(repos.User),
		Room:     NewRoomService(repos),
		Registry: registry,
		Hub:      hub,
	}
}

// Shutdown 關閉即時層：停止閒置回收巡檢並通知所有連線收線
func (s *Services) Shutdown() {
	s.Registry.Close()
	s.Hub.CloseAll()
}
