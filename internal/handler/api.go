package handler

import (
	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	auth       *service.AuthService
	logs       *service.TakeoffLogService
	users      *service.UserService
	aiConfig   *service.AIConfigService
	reports    *service.ReportService
	migrations *service.MigrationService

	adminUsername string
	cookieSecure  bool
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, adminUsername string, cookieSecure bool) *API {
	logService := service.NewTakeoffLogService(gdb)
	configService := service.NewAIConfigService(gdb)

	return &API{
		db:            gdb,
		auth:          service.NewAuthService(gdb),
		logs:          logService,
		users:         service.NewUserService(gdb),
		aiConfig:      configService,
		reports:       service.NewReportService(gdb, logService, configService),
		migrations:    service.NewMigrationService(gdb),
		adminUsername: adminUsername,
		cookieSecure:  cookieSecure,
	}
}

// Reports exposes the report service so callers can inject a test HTTP client.
func (a *API) Reports() *service.ReportService {
	return a.reports
}

// currentUser 从原始 Cookie 头解析会话用户，未登录时返回 nil。
func (a *API) currentUser(c *gin.Context) *db.User {
	return a.auth.GetCurrentUser(c.GetHeader("Cookie"))
}

// userPayload 序列化对外暴露的用户字段，密码哈希永不外泄。
func userPayload(user *db.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}
}
