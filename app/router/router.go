package router

import (
	"github.com/docuhub/backend-go/app/controllers"
	"github.com/docuhub/backend-go/internal/config"
	"github.com/beego/beego/v2/server/web"
)

// Init registers all routes. Must be called after config is loaded.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")

	// 文档路由
	documentController := &controllers.DocumentController{}
	// 注意：具体路由必须在参数路由之前，否则/upload会被:id匹配
	web.Router("/api/documents/upload", documentController, "post:Upload")
	web.Router("/api/documents", documentController, "get:List")
	web.Router("/api/documents/:id", documentController, "get:Get;delete:Delete")

	// 问答路由
	questionController := &controllers.QuestionController{}
	web.Router("/api/ask", questionController, "post:Ask")
	web.Router("/api/documents/:id/questions", questionController, "get:History")

	// Prometheus指标路由
	if config.AppConfig != nil && config.AppConfig.Prometheus.Enabled {
		web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")
	}
}
