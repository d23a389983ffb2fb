package repository

import "debate_live/internal/storage"

type Repositories struct {
	User    UserRepository
	Room    RoomRepository
	Message MessageRepository
	Archive ArchiveRepository
	Audit   AuditRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Room:    NewRoomRepository(db),
		Message: NewMessageRepository(db),
		Archive: NewArchiveRepository(db),
		Audit:   NewAuditRepository(db),
	}
}
