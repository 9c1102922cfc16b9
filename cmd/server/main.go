package main

import (
	"log"
	"os"
	"strconv"

	"github.com/docuhub/backend-go/app/bootstrap"
	"github.com/docuhub/backend-go/app/router"
	"github.com/docuhub/backend-go/internal/config"
	"github.com/docuhub/backend-go/internal/logger"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()
	bootstrap.SetGlobalApp(app)

	router.Init()

	// 配置Beego全局设置
	web.BConfig.AppName = "Document QA Service"
	web.BConfig.CopyRequestBody = true

	port := config.AppConfig.Server.Port
	if envPort := os.Getenv("SERVER_PORT"); envPort != "" {
		port = envPort
	}
	if p, err := strconv.Atoi(port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	} else {
		web.BConfig.Listen.HTTPPort = 8000
	}

	logger.Info("🚀 Starting Document QA Service", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
