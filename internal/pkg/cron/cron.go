package cron

import (
	"context"
	"log"
	"time"

	"github.com/qs3c/salesdash_go_server/internal/service"
	"github.com/qs3c/salesdash_go_server/internal/worker"
)

// Notifier 同步失败告警出口，生产环境由邮件服务实现
type Notifier interface {
	SendSyncFailure(to []string, errMsg string) error
}

// Service 后台定时任务：周期性 CRM 同步 + 每周一的周报
type Service struct {
	syncer          *worker.Syncer
	report          *service.ReportService
	notifier        Notifier // 可为 nil
	alertRecipients []string
	syncInterval    time.Duration
	reportEnabled   bool
	stopChan        chan struct{}
}

func NewService(syncer *worker.Syncer, report *service.ReportService, notifier Notifier, alertRecipients []string, syncInterval time.Duration, reportEnabled bool) *Service {
	return &Service{
		syncer:          syncer,
		report:          report,
		notifier:        notifier,
		alertRecipients: alertRecipients,
		syncInterval:    syncInterval,
		reportEnabled:   reportEnabled,
		stopChan:        make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	if s.syncer != nil && s.syncInterval > 0 {
		go s.runSync()
	}
	if s.report != nil && s.reportEnabled {
		go s.runWeeklyReport()
	}
	log.Println("Cron service started (crm sync + weekly report)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runSync 周期性 CRM 回填同步
func (s *Service) runSync() {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.syncOnce()
		}
	}
}

func (s *Service) syncOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.syncer.Run(ctx); err != nil {
		log.Printf("Scheduled sync failed: %v", err)
		s.alertSyncFailure(err)
	}
}

func (s *Service) alertSyncFailure(syncErr error) {
	if s.notifier == nil || len(s.alertRecipients) == 0 {
		return
	}
	if err := s.notifier.SendSyncFailure(s.alertRecipients, syncErr.Error()); err != nil {
		log.Printf("Failed to send sync failure alert: %v", err)
	}
}

// runWeeklyReport 每周一 08:00 UTC 生成周报
func (s *Service) runWeeklyReport() {
	timer := time.NewTimer(untilNextMonday(time.Now().UTC()))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if _, err := s.report.Run(); err != nil {
				log.Printf("Weekly report failed: %v", err)
			}
			timer.Reset(untilNextMonday(time.Now().UTC()))
		}
	}
}

func untilNextMonday(now time.Time) time.Duration {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next.Sub(now)
}
