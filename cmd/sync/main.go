package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/database"
	"github.com/qs3c/salesdash_go_server/internal/repository"
	"github.com/qs3c/salesdash_go_server/internal/worker"
)

// 一次性回填：从 CRM 全量拉取 job 并用 activity 重建状态历史。
// 首次上线和 webhook 漏投后手动执行。
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	jobLimit := flag.Int("job-limit", 0, "max jobs to sync, 0 for all")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall sync timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *jobLimit > 0 {
		cfg.Sync.JobLimit = *jobLimit
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	crmClient := crm.NewClient(&cfg.CRM)
	if !crmClient.HasToken() {
		log.Fatal("CRM token not configured, nothing to sync")
	}

	jobRepo := repository.NewJobRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	syncer := worker.NewSyncer(crmClient, jobRepo, historyRepo, &cfg.Sync)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stats, err := syncer.Run(ctx)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	log.Printf("Backfill done: jobs=%d, history=%d, errors=%d",
		stats.JobsSynced, stats.HistoryAppended, stats.Errors)
}
