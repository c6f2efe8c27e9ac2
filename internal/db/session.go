package db

import (
	"time"

	"gorm.io/gorm"
)

// Session 记录一次登录产生的会话
// Token 是唯一的持有者凭证，浏览器侧存放在 http-only cookie 中
// 唯一性由 token 的唯一索引保证，生成器不做去重
type Session struct {
	gorm.Model
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	Token     string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
