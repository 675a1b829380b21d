package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/api/handler"
	"github.com/qs3c/salesdash_go_server/internal/api/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	webhookHandler   *handler.WebhookHandler
	metricsHandler   *handler.MetricsHandler
	analyticsHandler *handler.AnalyticsHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	webhookHandler *handler.WebhookHandler,
	metricsHandler *handler.MetricsHandler,
	analyticsHandler *handler.AnalyticsHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		webhookHandler:   webhookHandler,
		metricsHandler:   metricsHandler,
		analyticsHandler: analyticsHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket（token 走 query 参数）
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/google", r.authHandler.GoogleAuth)
			auth.GET("/google/callback", r.authHandler.GoogleCallback)
		}

		// 公开接口 - CRM Webhook（密钥在 service 层校验）
		api.POST("/webhooks/jobnimbus", r.webhookHandler.Receive)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/auth/me", r.authHandler.Me)
			authenticated.GET("/metrics", r.metricsHandler.Get)
			authenticated.GET("/stage-conversions", r.analyticsHandler.StageConversions)
			authenticated.GET("/job-types", r.analyticsHandler.JobTypes)
			authenticated.GET("/workflows/:workflowType", r.analyticsHandler.WorkflowDetail)
		}
	}

	return engine
}
