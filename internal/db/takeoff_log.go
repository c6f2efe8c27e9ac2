package db

import "gorm.io/gorm"

// TakeoffLog 记录单个用户某一天的打卡状态
// UserID + DateKey 采用唯一索引，并发写入通过存储层 upsert 合并
// Status 0 表示当天明确记录为未完成，1-5 表示完成次数，缺行表示未记录
type TakeoffLog struct {
	gorm.Model
	UserID  uint   `gorm:"index;index:idx_takeoff_log_unique,unique;not null"`
	User    User   `gorm:"constraint:OnDelete:CASCADE"`
	DateKey string `gorm:"size:10;index;index:idx_takeoff_log_unique,unique;not null"`
	Status  int    `gorm:"not null"`
}

// TableName 重写确保唯一索引作用到 user_id + date_key
func (TakeoffLog) TableName() string {
	return "takeoff_logs"
}
