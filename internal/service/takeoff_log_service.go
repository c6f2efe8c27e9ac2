package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateKeyLayout = "2006-01-02"

var (
	// ErrFutureDate 禁止对未来日期新增或修改记录（删除除外）
	ErrFutureDate = errors.New("future date not allowed")
	// ErrInvalidDateKey 日期格式必须为 YYYY-MM-DD
	ErrInvalidDateKey = errors.New("invalid date key")
	// ErrInvalidStatus 状态值必须为非负整数
	ErrInvalidStatus = errors.New("invalid status value")
)

// TakeoffLogService 负责按用户维度读写打卡记录
type TakeoffLogService struct {
	db *gorm.DB
}

// NewTakeoffLogService 构造 TakeoffLogService
func NewTakeoffLogService(gdb *gorm.DB) *TakeoffLogService {
	return &TakeoffLogService{db: gdb}
}

// SaveInput 定义一次打卡写入
type SaveInput struct {
	DateKey  string
	Status   int
	IsDelete bool
}

// MapForUser 返回指定用户的稀疏 日期->状态 映射。
func (s *TakeoffLogService) MapForUser(userID uint) (map[string]int, error) {
	var logs []db.TakeoffLog
	if err := s.db.Where("user_id = ?", userID).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list takeoff logs: %w", err)
	}

	data := make(map[string]int, len(logs))
	for _, entry := range logs {
		data[entry.DateKey] = entry.Status
	}
	return data, nil
}

// ListBetween 返回闭区间 [start, end] 内的记录，按日期升序。
func (s *TakeoffLogService) ListBetween(userID uint, start, end string) ([]db.TakeoffLog, error) {
	var logs []db.TakeoffLog
	if err := s.db.Where("user_id = ? AND date_key >= ? AND date_key <= ?", userID, start, end).
		Order("date_key ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list takeoff logs between: %w", err)
	}
	return logs, nil
}

// Save 写入或删除一条打卡记录。
// 未来日期（按服务端 UTC 当天判断）仅允许删除；写入采用 user_id+date_key 冲突合并，
// 并发写同一天时由存储层以后写覆盖解决。
func (s *TakeoffLogService) Save(userID uint, input SaveInput, now time.Time) error {
	if _, err := time.Parse(dateKeyLayout, input.DateKey); err != nil {
		return ErrInvalidDateKey
	}

	today := now.UTC().Format(dateKeyLayout)
	if input.DateKey > today && !input.IsDelete {
		return ErrFutureDate
	}

	if input.IsDelete {
		// 硬删除，避免软删除行占住唯一索引
		if err := s.db.Unscoped().
			Where("user_id = ? AND date_key = ?", userID, input.DateKey).
			Delete(&db.TakeoffLog{}).Error; err != nil {
			return fmt.Errorf("delete takeoff log: %w", err)
		}
		return nil
	}

	if input.Status < 0 {
		return ErrInvalidStatus
	}

	record := db.TakeoffLog{
		UserID:  userID,
		DateKey: input.DateKey,
		Status:  input.Status,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     input.Status,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert takeoff log: %w", err)
	}

	return nil
}
