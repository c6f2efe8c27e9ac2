package main

import (
	"log"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/config"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/handler"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/router"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	api := handler.NewAPI(db.DB, cfg.AdminUsername, cfg.CookieSecure)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg)
	log.Printf("起飞日历 2026 listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
