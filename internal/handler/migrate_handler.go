package handler

import (
	"errors"
	"net/http"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
)

// MigrateStatus 检查遗留打卡表的迁移进度（需登录）。
func (a *API) MigrateStatus(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	status, err := a.migrations.Status()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "检查失败")
		return
	}

	message := "尚未迁移，仍使用旧表结构（数据共享）"
	if status.Migrated {
		message = "已迁移到新表结构（支持用户数据隔离）"
	}

	c.JSON(http.StatusOK, gin.H{
		"isMigrated": status.Migrated,
		"hasBackup":  status.HasBackup,
		"message":    message,
	})
}

// RunMigration 执行一次性迁移（仅管理员）。
func (a *API) RunMigration(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}
	if !user.IsAdmin {
		respondError(c, http.StatusForbidden, "无权限，仅管理员可执行迁移")
		return
	}

	logs, err := a.migrations.Migrate()
	if err != nil {
		if errors.Is(err, service.ErrAlreadyMigrated) {
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"message": "已经是新表结构，无需迁移",
				"logs":    []string{"[INFO] 表结构已包含 user_id 列，跳过迁移"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "logs": logs, "error": "迁移失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logs":    logs,
		"message": "迁移完成！备份表 takeoff_logs_backup 保留供检查，确认无误后可手动删除",
	})
}
