package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// SessionCookieName 是承载会话 token 的 cookie 名称。
	SessionCookieName = "session_token"
	// SessionTTL 定义会话有效期
	SessionTTL = 7 * 24 * time.Hour

	sessionTokenLength = 64
	tokenAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordAlphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%"
)

// ErrInvalidCredentials 在用户名或密码不匹配时返回
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService 负责密码哈希与会话生命周期管理
type AuthService struct {
	db *gorm.DB
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// HashPassword 生成 bcrypt 哈希，成本因子固定使用默认值。
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword 校验明文密码与哈希是否匹配。
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateSessionToken 生成 64 位字母数字随机 token。
// 唯一性由 sessions.token 的唯一索引兜底，生成器本身不做去重。
func GenerateSessionToken() (string, error) {
	return randomString(tokenAlphabet, sessionTokenLength)
}

// GeneratePassword 生成指定长度的随机初始密码。
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	return randomString(passwordAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random string: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// Login 校验用户名密码并签发新的会话。
func (s *AuthService) Login(username, password string) (*db.User, *db.Session, error) {
	var user db.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, nil, err
	}

	session := db.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	return &user, &session, nil
}

// ValidateSession 按 token 查找未过期会话并返回所属用户。
// 任何查询失败、token 缺失或已过期都归结为"无用户"，不向上抛错。
func (s *AuthService) ValidateSession(token string) *db.User {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	var user db.User
	err := s.db.Model(&db.User{}).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token = ? AND sessions.expires_at > ? AND sessions.deleted_at IS NULL", token, time.Now()).
		First(&user).Error
	if err != nil {
		return nil
	}

	return &user
}

// GetCurrentUser 解析原始 Cookie 头，取出会话 token 并委托 ValidateSession。
func (s *AuthService) GetCurrentUser(cookieHeader string) *db.User {
	if cookieHeader == "" {
		return nil
	}

	token := ""
	for _, part := range strings.Split(cookieHeader, ";") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		if pair[0] == SessionCookieName {
			token = pair[1]
		}
	}

	if token == "" {
		return nil
	}

	return s.ValidateSession(token)
}

// Logout 删除该用户的全部会话，登出后旧 token 一律失效。
func (s *AuthService) Logout(userID uint) error {
	if err := s.db.Unscoped().Where("user_id = ?", userID).Delete(&db.Session{}).Error; err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
