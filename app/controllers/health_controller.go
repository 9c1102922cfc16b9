package controllers

import (
	"github.com/docuhub/backend-go/app/bootstrap"
	"github.com/docuhub/backend-go/internal/database"
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSONSuccess(map[string]string{"message": "Document QA Service API"})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

func (c *HealthController) Health() {
	components := map[string]string{
		"database": "down",
		"redis":    "down",
		"index":    "down",
	}

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil && sqlDB.Ping() == nil {
			components["database"] = "up"
		}
	}
	if database.RedisClient != nil {
		if err := database.RedisClient.Ping(c.Ctx.Request.Context()).Err(); err == nil {
			components["redis"] = "up"
		}
	}
	if app := bootstrap.GetApp(); app != nil && app.GetEngine() != nil && app.GetEngine().Store().Ready() {
		components["index"] = "up"
	}

	status := "healthy"
	if components["database"] == "down" {
		status = "degraded"
	}

	c.JSONSuccess(map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

// MetricsController Prometheus指标控制器
type MetricsController struct {
	web.Controller
}

// Metrics 返回Prometheus格式的指标
func (c *MetricsController) Metrics() {
	promhttp.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
