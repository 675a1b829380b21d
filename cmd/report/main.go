package main

import (
	"flag"
	"log"
	"os"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/database"
	"github.com/qs3c/salesdash_go_server/internal/pkg/email"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oss"
	"github.com/qs3c/salesdash_go_server/internal/repository"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

// 手动生成一次周报。--dry-run 只打印 CSV 不上传不发邮件。
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "print CSV to stdout instead of uploading")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	jobRepo := repository.NewJobRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	analyticsService := service.NewAnalyticsService(jobRepo, historyRepo)

	if *dryRun {
		data, err := service.NewReportService(analyticsService, nil, nil, nil).GenerateCSV()
		if err != nil {
			log.Fatalf("Failed to generate report: %v", err)
		}
		os.Stdout.Write(data)
		return
	}

	if cfg.OSS.Endpoint == "" {
		log.Fatal("OSS not configured, use --dry-run to print the CSV")
	}
	ossClient, err := oss.NewClient(&cfg.OSS)
	if err != nil {
		log.Fatalf("Failed to init OSS client: %v", err)
	}
	var mailer *email.Service
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewService(&cfg.Email)
	}

	reportService := service.NewReportService(analyticsService, ossClient, mailer, cfg.Report.Recipients)
	url, err := reportService.Run()
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}
	log.Printf("Weekly report uploaded: %s", url)
}
