package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

type reportPayload struct {
	Type         string `json:"type"`
	MarkViewed   bool   `json:"markViewed"`
	PeriodOffset int    `json:"periodOffset"`
}

// GetReportStatus 返回尚未查看的上一周期报告列表及 AI 配置状态。
func (a *API) GetReportStatus(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	pending, configured, err := a.reports.PendingReports(user.ID, time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "检查失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pendingReports": pending,
		"aiConfigured":   configured,
	})
}

// GenerateReport 生成指定周期的 AI 报告。
func (a *API) GenerateReport(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	var payload reportPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	result, err := a.reports.Generate(c.Request.Context(), user.ID, service.ReportRequest{
		Type:         payload.Type,
		PeriodOffset: payload.PeriodOffset,
		MarkViewed:   payload.MarkViewed,
	}, time.Now())
	if err != nil {
		var upstream *service.UpstreamError
		switch {
		case errors.Is(err, service.ErrInvalidReportType):
			respondError(c, http.StatusBadRequest, "无效的报告类型")
		case errors.Is(err, service.ErrAINotConfigured):
			respondError(c, http.StatusBadRequest, "AI 未配置，请联系管理员")
		case errors.As(err, &upstream):
			// 上游错误原样透出，包含状态码与截断的响应体
			respondError(c, http.StatusInternalServerError, upstream.Error())
		default:
			respondError(c, http.StatusInternalServerError, "生成报告失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": result.Report,
		"period": result.Period,
		"stats":  result.Stats,
	})
}
