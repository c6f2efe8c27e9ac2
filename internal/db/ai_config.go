package db

import "gorm.io/gorm"

// AIConfig 存储管理员可配置的 AI 接入键值对。
type AIConfig struct {
	gorm.Model
	ConfigKey   string `gorm:"size:100;uniqueIndex;not null"`
	ConfigValue string `gorm:"type:text;not null"`
	UpdatedBy   uint
}

// TableName 自定义表名以保持命名一致。
func (AIConfig) TableName() string {
	return "ai_config"
}

const (
	// ConfigKeyAIEndpoint 表示外部聊天补全服务地址。
	ConfigKeyAIEndpoint = "ai_endpoint"
	// ConfigKeyAIAPIKey 表示外部服务的 API Key。
	ConfigKeyAIAPIKey = "ai_api_key"
	// ConfigKeyAIModel 表示报告生成使用的模型名称。
	ConfigKeyAIModel = "ai_model"
)
