package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 指定用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken 用户名已被占用
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUsernameLength 用户名长度必须在 2-50 个字符之间
	ErrUsernameLength = errors.New("username length out of range")
	// ErrPasswordTooShort 密码长度至少 6 个字符
	ErrPasswordTooShort = errors.New("password too short")
	// ErrCannotDeleteSelf 禁止删除当前登录用户自身
	ErrCannotDeleteSelf = errors.New("cannot delete current user")
)

// UserService 负责后台的用户管理逻辑
// 每次调用由 handler 重新校验管理员身份，这里不缓存授权状态
type UserService struct {
	db *gorm.DB
}

// UserInput 定义创建用户时的字段
type UserInput struct {
	Username string
	Password string
	IsAdmin  bool
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// List 返回全部用户，按 ID 升序。
func (s *UserService) List() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create 新建用户。用户名先做存在性检查，竞争窗口内的重复插入
// 由唯一索引兜底并同样归为 ErrUsernameTaken。
func (s *UserService) Create(input UserInput) (*db.User, error) {
	username := strings.TrimSpace(input.Username)
	if count := utf8.RuneCountInString(username); count < 2 || count > 50 {
		return nil, ErrUsernameLength
	}
	if utf8.RuneCountInString(input.Password) < 6 {
		return nil, ErrPasswordTooShort
	}

	var existing db.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := db.User{Username: username, PasswordHash: hashed, IsAdmin: input.IsAdmin}
	if err := s.db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Delete 删除用户及其关联数据。actorID 为当前登录用户，禁止自删。
func (s *UserService) Delete(targetID, actorID uint) error {
	if targetID == actorID {
		return ErrCannotDeleteSelf
	}

	var user db.User
	if err := s.db.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", targetID).Delete(&db.Session{}).Error; err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", targetID).Delete(&db.TakeoffLog{}).Error; err != nil {
			return fmt.Errorf("delete takeoff logs: %w", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", targetID).Delete(&db.ReportViewed{}).Error; err != nil {
			return fmt.Errorf("delete report markers: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.User{}, targetID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

// ChangePassword 更新指定用户的密码哈希。
func (s *UserService) ChangePassword(targetID uint, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	result := s.db.Model(&db.User{}).Where("id = ?", targetID).Update("password_hash", hashed)
	if result.Error != nil {
		return fmt.Errorf("update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EnsureAdmin 存在性检查：若管理员账号不存在则创建，返回生成的初始密码。
// 已存在时返回空字符串。
func (s *UserService) EnsureAdmin(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		trimmed = "admin"
	}

	var existing db.User
	err := s.db.Where("username = ?", trimmed).First(&existing).Error
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check admin: %w", err)
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return "", err
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	admin := db.User{Username: trimmed, PasswordHash: hashed, IsAdmin: true}
	if err := s.db.Create(&admin).Error; err != nil {
		return "", fmt.Errorf("create admin: %w", err)
	}

	return password, nil
}

// Count 返回用户总数，用于初始化状态检查。
func (s *UserService) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&db.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
