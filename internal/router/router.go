package router

import (
	"github.com/Lynn3t/my-takeoff-2026-local/internal/config"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// 页面门禁：无会话 cookie 的页面请求统一跳转登录页
	r.Use(handler.SessionGate())

	r.LoadHTMLGlob(cfg.TemplateGlob)
	r.Static("/static", cfg.StaticDir)
	r.StaticFile("/sw.js", cfg.StaticDir+"/sw.js")

	r.GET("/", api.ShowCalendarPage)
	r.GET("/login", handler.LoginRedirect(), api.ShowLoginPage)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("", api.GetLogs)
		apiGroup.POST("", api.SaveLog)

		apiGroup.POST("/auth", api.Login)
		apiGroup.DELETE("/auth", api.Logout)
		apiGroup.GET("/auth", api.Me)

		apiGroup.GET("/init", api.InitStatus)
		apiGroup.POST("/init", api.InitDatabase)

		apiGroup.GET("/users", api.ListUsers)
		apiGroup.POST("/users", api.CreateUser)
		apiGroup.PUT("/users", api.ChangeUserPassword)
		apiGroup.DELETE("/users", api.DeleteUser)

		apiGroup.GET("/ai-config", api.GetAIConfig)
		apiGroup.POST("/ai-config", api.UpdateAIConfig)

		apiGroup.GET("/ai-report", api.GetReportStatus)
		apiGroup.POST("/ai-report", api.GenerateReport)

		apiGroup.GET("/migrate", api.MigrateStatus)
		apiGroup.POST("/migrate", api.RunMigration)
	}

	return r
}
