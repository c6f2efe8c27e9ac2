package handler

import (
	"errors"
	"net/http"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

// maskedAPIKey 是接口层约定的"保持现有 API Key 不变"占位符。
const maskedAPIKey = "******"

type aiConfigPayload struct {
	Endpoint string `json:"ai_endpoint"`
	APIKey   string `json:"ai_api_key"`
	Model    string `json:"ai_model"`
}

// GetAIConfig 返回 AI 配置。
// 非管理员只能看到是否已配置与模型名，密钥明文永不回显。
func (a *API) GetAIConfig(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	cfg, err := a.aiConfig.GetConfig()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取配置失败")
		return
	}

	if !user.IsAdmin {
		c.JSON(http.StatusOK, gin.H{
			"configured": cfg.Configured(),
			"model":      cfg.Model,
		})
		return
	}

	maskedKey := ""
	if cfg.APIKey != "" {
		maskedKey = maskedAPIKey
	}

	c.JSON(http.StatusOK, gin.H{
		"config": gin.H{
			"ai_endpoint": cfg.Endpoint,
			"ai_api_key":  maskedKey,
			"ai_model":    cfg.Model,
			"has_api_key": cfg.APIKey != "",
		},
	})
}

// UpdateAIConfig 更新 AI 配置（仅管理员）。
// 密钥传占位符表示保持不变，其余非空值覆盖已存储的密钥。
func (a *API) UpdateAIConfig(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil || !user.IsAdmin {
		respondError(c, http.StatusForbidden, "无权限")
		return
	}

	var payload aiConfigPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	keyUpdate := service.KeepAPIKey()
	if payload.APIKey != "" && payload.APIKey != maskedAPIKey {
		keyUpdate = service.ReplaceAPIKey(payload.APIKey)
	}

	err := a.aiConfig.UpdateConfig(service.AIConfigInput{
		Endpoint: payload.Endpoint,
		Model:    payload.Model,
		APIKey:   keyUpdate,
	}, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrAIEndpointRequired) {
			respondError(c, http.StatusBadRequest, "AI 端点地址不能为空")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存配置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "AI 配置已保存"})
}
