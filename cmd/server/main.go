package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/api"
	"github.com/qs3c/salesdash_go_server/internal/api/handler"
	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/database"
	"github.com/qs3c/salesdash_go_server/internal/pkg/cache"
	"github.com/qs3c/salesdash_go_server/internal/pkg/cron"
	"github.com/qs3c/salesdash_go_server/internal/pkg/email"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oauth"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oss"
	"github.com/qs3c/salesdash_go_server/internal/pkg/pubsub"
	"github.com/qs3c/salesdash_go_server/internal/pkg/ws"
	"github.com/qs3c/salesdash_go_server/internal/repository"
	"github.com/qs3c/salesdash_go_server/internal/service"
	"github.com/qs3c/salesdash_go_server/internal/worker"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis（失败时降级：无缓存、无实时推送、无 Google 登录）
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, running degraded: %v", err)
		rdb = nil
	} else {
		log.Println("Redis connected")
	}

	// 初始化 CRM 客户端与视图过滤
	crmClient := crm.NewClient(&cfg.CRM)
	filter, err := crm.NewFilter(&cfg.Dashboard)
	if err != nil {
		log.Fatalf("Invalid dashboard config: %v", err)
	}

	// 初始化 Repository
	jobRepo := repository.NewJobRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Redis 相关组件
	var metricsCache *cache.Cache
	var publisher *pubsub.Publisher
	var stateStore *oauth.StateStore
	if rdb != nil {
		if cfg.Cache.MetricsTTLSeconds > 0 {
			metricsCache = cache.New(rdb, time.Duration(cfg.Cache.MetricsTTLSeconds)*time.Second)
		}
		publisher = pubsub.NewPublisher(rdb)
		stateStore = oauth.NewStateStore(rdb)
	}

	// Google OAuth（可选）
	var googleOAuth *oauth.GoogleOAuth
	if cfg.OAuth.Google.ClientID != "" {
		googleOAuth = oauth.NewGoogleOAuth(
			cfg.OAuth.Google.ClientID,
			cfg.OAuth.Google.ClientSecret,
			cfg.OAuth.Google.RedirectURI,
		)
	}

	// OSS 与邮件（周报用，可选）
	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Fatalf("Failed to init OSS client: %v", err)
		}
	}
	var mailer *email.Service
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewService(&cfg.Email)
	}

	// 初始化 Service
	authService := service.NewAuthService(cfg, googleOAuth, stateStore)
	webhookService := service.NewWebhookService(jobRepo, publisher, &cfg.Webhook)
	metricsService := service.NewMetricsService(crmClient, filter, metricsCache)
	analyticsService := service.NewAnalyticsService(jobRepo, historyRepo)
	reportService := service.NewReportService(analyticsService, ossClient, mailer, cfg.Report.Recipients)

	// WebSocket Hub：订阅 Redis 上的 job 更新并广播给前端
	wsHub := ws.NewHub()
	if rdb != nil {
		subscriber := pubsub.NewSubscriber(rdb)
		go func() {
			err := subscriber.Subscribe(context.Background(), func(msg *pubsub.JobUpdateMessage) {
				if err := wsHub.Broadcast(&ws.Message{Type: msg.Type, Data: msg}); err != nil {
					log.Printf("Broadcast failed: %v", err)
				}
			})
			if err != nil {
				log.Printf("Pubsub subscription stopped: %v", err)
			}
		}()
		log.Println("WebSocket hub started")
	}

	// 定时任务：周期性 CRM 回填同步 + 每周一的周报，同步失败发告警邮件
	syncer := worker.NewSyncer(crmClient, jobRepo, historyRepo, &cfg.Sync)
	var syncAlerts cron.Notifier
	if mailer != nil {
		syncAlerts = mailer
	}
	cronService := cron.NewService(
		syncer,
		reportService,
		syncAlerts,
		cfg.Report.Recipients,
		time.Duration(cfg.Sync.IntervalMinutes)*time.Minute,
		cfg.Report.Enabled,
	)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	webhookHandler := handler.NewWebhookHandler(webhookService)
	metricsHandler := handler.NewMetricsHandler(metricsService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		webhookHandler,
		metricsHandler,
		analyticsHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
