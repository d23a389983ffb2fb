package repository

import (
	"debate_live/internal/models"
	"debate_live/internal/storage"
)

// UserRepository 負責使用者帳號的持久化
type UserRepository interface {
	Create(user *models.User) error
	FindByUsername(username string) (*models.User, error)
}

type userRepository struct {
	db *storage.PostgresDB
}

func NewUserRepository(db *storage.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByUsername 以帳號名稱查詢使用者，找不到時回傳 gorm.ErrRecordNotFound
// 驗證層依這個約定把查無帳號與密碼錯誤合併成同一種回應
func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
