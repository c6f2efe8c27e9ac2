package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ShowCalendarPage 渲染年历主页。
// 未登录也可访问，前端检测到 401 后切换到本地存储模式。
func (a *API) ShowCalendarPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": "起飞日历 2026",
	})
}

// ShowLoginPage 渲染登录页。
func (a *API) ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "登录 - 起飞日历 2026",
	})
}
