package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"debate_live/internal/models"
	"debate_live/internal/repository"
)

var (
	// ErrInvalidRole 表示註冊時帶了角色目錄以外的角色
	ErrInvalidRole = errors.New("無效的使用者角色")
	// ErrBadCredentials 表示帳號不存在或密碼不符，對外不區分兩者
	ErrBadCredentials = errors.New("帳號或密碼錯誤")
)

// UserService 負責使用者的註冊與驗證
// 密碼一律以 bcrypt 雜湊後入庫，明文不落地
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register 建立新使用者
// 角色省略時預設為辯論者；角色目錄外的值被拒絕
func (s *UserService) Register(username, password string, role models.UserRole) (*models.User, error) {
	if role == "" {
		role = models.RoleDebater
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 核對帳號密碼，成功時回傳使用者記錄
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}
