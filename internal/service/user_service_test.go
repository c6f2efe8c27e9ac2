package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Session{}, &db.TakeoffLog{}, &db.ReportViewed{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestCreateUserValidation(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	if _, err := svc.Create(UserInput{Username: "a", Password: "password"}); !errors.Is(err, ErrUsernameLength) {
		t.Fatalf("expected ErrUsernameLength, got %v", err)
	}
	if _, err := svc.Create(UserInput{Username: "alice", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	user, err := svc.Create(UserInput{Username: "alice", Password: "password", IsAdmin: true})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.ID == 0 || !user.IsAdmin {
		t.Fatal("expected persisted admin user")
	}
	if user.PasswordHash == "password" {
		t.Fatal("expected password to be hashed")
	}

	if _, err := svc.Create(UserInput{Username: "alice", Password: "password2"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestCreateUserCountsRunes(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	// 两个汉字的用户名是合法的
	if _, err := svc.Create(UserInput{Username: "小明", Password: "password"}); err != nil {
		t.Fatalf("Create returned error for CJK username: %v", err)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	admin, err := svc.Create(UserInput{Username: "admin2", Password: "password", IsAdmin: true})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(admin.ID, admin.ID); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Fatalf("expected ErrCannotDeleteSelf, got %v", err)
	}
	if err := svc.Delete(9999, admin.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	admin, err := svc.Create(UserInput{Username: "root1", Password: "password", IsAdmin: true})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	target, err := svc.Create(UserInput{Username: "mallory", Password: "password"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	seed := []interface{}{
		&db.Session{UserID: target.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)},
		&db.TakeoffLog{UserID: target.ID, DateKey: "2026-01-01", Status: 3},
		&db.ReportViewed{UserID: target.ID, ReportType: ReportTypeWeek, PeriodKey: "2026-W01"},
	}
	for _, row := range seed {
		if err := db.DB.Create(row).Error; err != nil {
			t.Fatalf("failed to seed row: %v", err)
		}
	}

	if err := svc.Delete(target.ID, admin.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	var sessions, logs, markers int64
	db.DB.Model(&db.Session{}).Where("user_id = ?", target.ID).Count(&sessions)
	db.DB.Model(&db.TakeoffLog{}).Where("user_id = ?", target.ID).Count(&logs)
	db.DB.Model(&db.ReportViewed{}).Where("user_id = ?", target.ID).Count(&markers)
	if sessions != 0 || logs != 0 || markers != 0 {
		t.Fatalf("expected cascade delete, got sessions=%d logs=%d markers=%d", sessions, logs, markers)
	}

	var user db.User
	if err := db.DB.Unscoped().First(&user, target.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected user row to be hard deleted, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	user, err := svc.Create(UserInput{Username: "frank", Password: "password"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "12345"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.ChangePassword(9999, "newpassword"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := svc.ChangePassword(user.ID, "newpassword"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	var updated db.User
	if err := db.DB.First(&updated, user.ID).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !VerifyPassword("newpassword", updated.PasswordHash) {
		t.Fatal("expected new password to verify")
	}
	if VerifyPassword("password", updated.PasswordHash) {
		t.Fatal("expected old password to fail")
	}
}

func TestEnsureAdmin(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	password, err := svc.EnsureAdmin("admin")
	if err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}
	if len(password) != 16 {
		t.Fatalf("expected 16 character initial password, got %d", len(password))
	}

	var admin db.User
	if err := db.DB.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("failed to load admin: %v", err)
	}
	if !admin.IsAdmin {
		t.Fatal("expected created user to be admin")
	}
	if !VerifyPassword(password, admin.PasswordHash) {
		t.Fatal("expected returned password to verify")
	}

	// 第二次调用为空操作
	again, err := svc.EnsureAdmin("admin")
	if err != nil {
		t.Fatalf("EnsureAdmin returned error on second call: %v", err)
	}
	if again != "" {
		t.Fatal("expected empty password when admin already exists")
	}
}
