package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultAIModel 在未显式配置模型时使用。
const DefaultAIModel = "gpt-3.5-turbo"

// ErrAIEndpointRequired AI 端点地址不能为空
var ErrAIEndpointRequired = errors.New("ai endpoint is required")

// ReportConfig 描述报告生成所需的外部 AI 接入信息。
// 作为显式配置结构体注入 ReportService，不依赖全局状态。
type ReportConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Configured 仅当端点与 API Key 均已配置时报告功能可用。
func (c ReportConfig) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.APIKey) != ""
}

// APIKeyUpdate 是 API Key 更新的带标签可选值：保留现有值或替换为新值。
type APIKeyUpdate struct {
	replace bool
	value   string
}

// KeepAPIKey 表示本次更新不改动已存储的 API Key。
func KeepAPIKey() APIKeyUpdate {
	return APIKeyUpdate{}
}

// ReplaceAPIKey 表示用给定值覆盖已存储的 API Key。
func ReplaceAPIKey(value string) APIKeyUpdate {
	return APIKeyUpdate{replace: true, value: value}
}

// AIConfigInput 用于更新 AI 配置。
type AIConfigInput struct {
	Endpoint string
	Model    string
	APIKey   APIKeyUpdate
}

// AIConfigService 提供 AI 配置键值的读取与更新能力。
type AIConfigService struct {
	db *gorm.DB
}

// NewAIConfigService 构造 AIConfigService。
func NewAIConfigService(gdb *gorm.DB) *AIConfigService {
	return &AIConfigService{db: gdb}
}

var aiConfigKeys = []string{
	db.ConfigKeyAIEndpoint,
	db.ConfigKeyAIAPIKey,
	db.ConfigKeyAIModel,
}

// GetConfig 读取当前 AI 配置，未配置模型时回退默认值。
func (s *AIConfigService) GetConfig() (ReportConfig, error) {
	result := ReportConfig{Model: DefaultAIModel}

	var records []db.AIConfig
	if err := s.db.Where("config_key IN ?", aiConfigKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load ai config: %w", err)
	}

	for _, record := range records {
		switch record.ConfigKey {
		case db.ConfigKeyAIEndpoint:
			result.Endpoint = record.ConfigValue
		case db.ConfigKeyAIAPIKey:
			result.APIKey = record.ConfigValue
		case db.ConfigKeyAIModel:
			if strings.TrimSpace(record.ConfigValue) != "" {
				result.Model = record.ConfigValue
			}
		}
	}

	return result, nil
}

// UpdateConfig 保存 AI 配置。APIKey 为 KeepAPIKey 时不改动已存储的密钥。
func (s *AIConfigService) UpdateConfig(input AIConfigInput, updatedBy uint) error {
	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		return ErrAIEndpointRequired
	}

	model := strings.TrimSpace(input.Model)
	if model == "" {
		model = DefaultAIModel
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertAIConfig(tx, db.ConfigKeyAIEndpoint, endpoint, updatedBy); err != nil {
			return err
		}
		if err := upsertAIConfig(tx, db.ConfigKeyAIModel, model, updatedBy); err != nil {
			return err
		}
		if input.APIKey.replace {
			if err := upsertAIConfig(tx, db.ConfigKeyAIAPIKey, strings.TrimSpace(input.APIKey.value), updatedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update ai config: %w", err)
	}

	return nil
}

func upsertAIConfig(tx *gorm.DB, key, value string, updatedBy uint) error {
	record := db.AIConfig{ConfigKey: key, ConfigValue: value, UpdatedBy: updatedBy}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"config_value": value,
			"updated_by":   updatedBy,
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert ai config %s: %w", key, err)
	}
	return nil
}
