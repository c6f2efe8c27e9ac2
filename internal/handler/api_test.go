package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb
	api := NewAPI(gdb, "admin", false)

	return api, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// seedUser 创建用户并签发一个有效会话，返回用户与 Cookie 头内容。
func seedUser(t *testing.T, username string, isAdmin bool) (*db.User, string) {
	t.Helper()

	hash, err := service.HashPassword("password1")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	user := db.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := service.GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken returned error: %v", err)
	}
	session := db.Session{UserID: user.ID, Token: token, ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.DB.Create(&session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return &user, fmt.Sprintf("%s=%s", service.SessionCookieName, token)
}
