package db

import "gorm.io/gorm"

// ReportViewed 标记用户已查看某周期的报告
// UserID + ReportType + PeriodKey 唯一，重复标记通过 OnConflict 忽略
type ReportViewed struct {
	gorm.Model
	UserID     uint   `gorm:"index;index:idx_report_viewed_unique,unique;not null"`
	User       User   `gorm:"constraint:OnDelete:CASCADE"`
	ReportType string `gorm:"size:20;index:idx_report_viewed_unique,unique;not null"`
	PeriodKey  string `gorm:"size:20;index:idx_report_viewed_unique,unique;not null"`
}

// TableName 自定义表名以保持命名一致。
func (ReportViewed) TableName() string {
	return "report_viewed"
}
