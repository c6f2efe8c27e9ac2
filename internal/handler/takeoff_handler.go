package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

type savePayload struct {
	Date     string `json:"date"`
	Status   int    `json:"status"`
	IsDelete bool   `json:"isDelete"`
}

// GetLogs 返回当前用户的 日期->状态 映射。
// 未登录返回本地模式标志而不是错误，前端改用 localStorage。
func (a *API) GetLogs(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{
			"data":          gin.H{},
			"authenticated": false,
			"message":       "未登录，使用本地存储模式",
		})
		return
	}

	// 仅查询会话用户的数据，不信任客户端提供的 ID
	data, err := a.logs.MapForUser(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "authenticated": true})
}

// SaveLog 写入或删除一条打卡记录。
// 未登录时确认成功但标记 localOnly，服务端不做持久化。
func (a *API) SaveLog(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"localOnly": true,
			"message":   "未登录，数据仅保存在本地",
		})
		return
	}

	var payload savePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	err := a.logs.Save(user.ID, service.SaveInput{
		DateKey:  payload.Date,
		Status:   payload.Status,
		IsDelete: payload.IsDelete,
	}, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFutureDate):
			respondError(c, http.StatusBadRequest, "禁止提前填写未来日期")
		case errors.Is(err, service.ErrInvalidDateKey):
			respondError(c, http.StatusBadRequest, "无效的日期格式")
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, http.StatusBadRequest, "无效的状态值")
		default:
			respondError(c, http.StatusInternalServerError, "操作失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
