package handler

import (
	"fmt"
	"net/http"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/gin-gonic/gin"
)

// InitStatus 检查是否需要初始化（建表并创建管理员）。
func (a *API) InitStatus(c *gin.Context) {
	if !a.db.Migrator().HasTable(&db.User{}) {
		c.JSON(http.StatusOK, gin.H{"needsInit": true, "message": "需要初始化数据库"})
		return
	}

	count, err := a.users.Count()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"needsInit": true, "message": "需要初始化数据库"})
		return
	}

	if count == 0 {
		c.JSON(http.StatusOK, gin.H{"needsInit": true, "message": "需要创建管理员用户"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"needsInit": false, "message": "数据库已初始化"})
}

// InitDatabase 首次运行引导：迁移表结构并创建默认管理员。
// 随机初始密码只在本次响应中返回一次。
func (a *API) InitDatabase(c *gin.Context) {
	logs := make([]string, 0, 4)

	if err := db.AutoMigrate(a.db); err != nil {
		logs = append(logs, fmt.Sprintf("[ERROR] %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "logs": logs, "error": "初始化失败"})
		return
	}
	logs = append(logs, "[OK] 数据表已创建或已存在")

	password, err := a.users.EnsureAdmin(a.adminUsername)
	if err != nil {
		logs = append(logs, fmt.Sprintf("[ERROR] %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "logs": logs, "error": "初始化失败"})
		return
	}

	response := gin.H{"success": true}
	if password != "" {
		logs = append(logs, fmt.Sprintf("[OK] 管理员用户 %s 已创建", a.adminUsername))
		logs = append(logs, "[IMPORTANT] 请登录后立即修改密码！")
		response["adminPassword"] = password
	} else {
		logs = append(logs, fmt.Sprintf("[INFO] 管理员用户 %s 已存在，跳过创建", a.adminUsername))
	}
	response["logs"] = logs

	c.JSON(http.StatusOK, response)
}
