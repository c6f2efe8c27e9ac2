package db

import "gorm.io/gorm"

// User 定义了用户模型
// IsAdmin 控制后台用户管理与 AI 配置入口
type User struct {
	gorm.Model
	Username     string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsAdmin      bool   `gorm:"default:false"`
}
