package service

import (
	"errors"
	"testing"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMigrationTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}); err != nil {
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

func createLegacyTable(t *testing.T) {
	t.Helper()
	if err := db.DB.Exec(`CREATE TABLE takeoff_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date_key TEXT NOT NULL UNIQUE,
		status INTEGER NOT NULL
	)`).Error; err != nil {
		t.Fatalf("failed to create legacy table: %v", err)
	}
}

func TestMigrationStatusLegacy(t *testing.T) {
	cleanup := setupMigrationTestDB(t)
	defer cleanup()

	createLegacyTable(t)

	svc := NewMigrationService(db.DB)
	status, err := svc.Status()
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.Migrated {
		t.Fatal("expected legacy table to report unmigrated")
	}
	if status.HasBackup {
		t.Fatal("expected no backup table yet")
	}
}

func TestMigrateCopiesRowsPerUser(t *testing.T) {
	cleanup := setupMigrationTestDB(t)
	defer cleanup()

	createLegacyTable(t)

	for _, name := range []string{"alice", "bob"} {
		if err := db.DB.Create(&db.User{Username: name, PasswordHash: "x"}).Error; err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}
	if err := db.DB.Exec(`INSERT INTO takeoff_logs (date_key, status) VALUES ('2026-01-01', 2), ('2026-01-02', 3)`).Error; err != nil {
		t.Fatalf("failed to seed legacy rows: %v", err)
	}

	svc := NewMigrationService(db.DB)
	logs, err := svc.Migrate()
	if err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected step logs")
	}

	status, err := svc.Status()
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Migrated || !status.HasBackup {
		t.Fatalf("expected migrated with backup, got %+v", status)
	}

	// 两个用户各得两条记录
	var count int64
	if err := db.DB.Table("takeoff_logs").Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 copied rows, got %d", count)
	}

	var backupCount int64
	if err := db.DB.Table("takeoff_logs_backup").Count(&backupCount).Error; err != nil {
		t.Fatalf("failed to count backup rows: %v", err)
	}
	if backupCount != 2 {
		t.Fatalf("expected legacy rows preserved in backup, got %d", backupCount)
	}

	// 迁移后新结构可直接被服务层使用
	logSvc := NewTakeoffLogService(db.DB)
	data, err := logSvc.MapForUser(1)
	if err != nil {
		t.Fatalf("MapForUser returned error: %v", err)
	}
	if data["2026-01-01"] != 2 || data["2026-01-02"] != 3 {
		t.Fatalf("unexpected migrated data: %+v", data)
	}
}

func TestMigrateTwiceFails(t *testing.T) {
	cleanup := setupMigrationTestDB(t)
	defer cleanup()

	if err := db.DB.AutoMigrate(&db.TakeoffLog{}); err != nil {
		t.Fatalf("failed to migrate new table: %v", err)
	}

	svc := NewMigrationService(db.DB)
	if _, err := svc.Migrate(); !errors.Is(err, ErrAlreadyMigrated) {
		t.Fatalf("expected ErrAlreadyMigrated, got %v", err)
	}
}
