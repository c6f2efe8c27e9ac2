package service

import (
	"errors"
	"fmt"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/gorm"
)

const legacyBackupTable = "takeoff_logs_backup"

// ErrAlreadyMigrated 表结构已包含 user_id 列，无需迁移
var ErrAlreadyMigrated = errors.New("takeoff logs already migrated")

// MigrationService 负责把遗留的单用户打卡表迁移到按用户隔离的新结构。
// 旧表保留为 takeoff_logs_backup 供人工核对，不直接删除。
type MigrationService struct {
	db *gorm.DB
}

// MigrationStatus 描述迁移进度。
type MigrationStatus struct {
	Migrated  bool
	HasBackup bool
}

// NewMigrationService 构造 MigrationService
func NewMigrationService(gdb *gorm.DB) *MigrationService {
	return &MigrationService{db: gdb}
}

// Status 检查 takeoff_logs 是否已包含 user_id 列以及备份表是否存在。
func (s *MigrationService) Status() (MigrationStatus, error) {
	migrator := s.db.Migrator()
	return MigrationStatus{
		Migrated:  migrator.HasColumn(&db.TakeoffLog{}, "user_id"),
		HasBackup: migrator.HasTable(legacyBackupTable),
	}, nil
}

// Migrate 执行一次性迁移：为每个现有用户复制全部遗留记录，
// 旧表重命名为备份表。返回分步日志供接口回显。
func (s *MigrationService) Migrate() ([]string, error) {
	if s.db.Migrator().HasColumn(&db.TakeoffLog{}, "user_id") {
		return nil, ErrAlreadyMigrated
	}

	logs := make([]string, 0, 5)
	var copied int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`CREATE TABLE takeoff_logs_new (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME,
			user_id INTEGER NOT NULL,
			date_key TEXT NOT NULL,
			status INTEGER NOT NULL,
			UNIQUE(user_id, date_key)
		)`).Error; err != nil {
			return fmt.Errorf("create new table: %w", err)
		}
		logs = append(logs, "[OK] 新表 takeoff_logs_new 创建成功")

		result := tx.Exec(`INSERT INTO takeoff_logs_new (user_id, date_key, status, created_at, updated_at)
			SELECT u.id, t.date_key, t.status, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
			FROM users u CROSS JOIN takeoff_logs t
			WHERE u.deleted_at IS NULL`)
		if result.Error != nil {
			return fmt.Errorf("copy legacy rows: %w", result.Error)
		}
		copied = result.RowsAffected
		logs = append(logs, fmt.Sprintf("[OK] 已为所有用户复制数据，共 %d 条记录", copied))

		if err := tx.Exec(`ALTER TABLE takeoff_logs RENAME TO takeoff_logs_backup`).Error; err != nil {
			return fmt.Errorf("rename legacy table: %w", err)
		}
		logs = append(logs, "[OK] 原表已备份为 takeoff_logs_backup")

		if err := tx.Exec(`ALTER TABLE takeoff_logs_new RENAME TO takeoff_logs`).Error; err != nil {
			return fmt.Errorf("rename new table: %w", err)
		}
		logs = append(logs, "[OK] 新表已重命名为 takeoff_logs")

		if err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_takeoff_logs_user_id ON takeoff_logs(user_id)`).Error; err != nil {
			return fmt.Errorf("create user index: %w", err)
		}
		if err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_takeoff_logs_date_key ON takeoff_logs(date_key)`).Error; err != nil {
			return fmt.Errorf("create date index: %w", err)
		}
		logs = append(logs, "[OK] 索引创建成功")

		return nil
	})
	if err != nil {
		return logs, err
	}

	return logs, nil
}
