package main

import (
	"fmt"
	"log"

	"github.com/Lynn3t/my-takeoff-2026-local/internal/config"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/db"
	"github.com/Lynn3t/my-takeoff-2026-local/internal/service"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	users := service.NewUserService(db.DB)
	password, err := users.EnsureAdmin(cfg.AdminUsername)
	if err != nil {
		log.Fatal("创建管理员失败:", err)
	}

	if password == "" {
		fmt.Println("管理员已存在，无需初始化")
		return
	}

	fmt.Println("默认管理员用户创建成功")
	fmt.Println("用户名:", cfg.AdminUsername)
	fmt.Println("初始密码:", password)
	fmt.Println("请登录后立即修改密码")
}
