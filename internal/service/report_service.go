package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/qs3c/salesdash_go_server/internal/pkg/email"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oss"
)

var ErrReportStorageMissing = errors.New("未配置报表存储")

// ReportService 周报：job-types 统计导出 CSV，上传 OSS 并邮件通知
type ReportService struct {
	analytics  *AnalyticsService
	ossClient  *oss.Client     // 可为 nil
	mailer     *email.Service  // 可为 nil
	recipients []string
}

func NewReportService(analytics *AnalyticsService, ossClient *oss.Client, mailer *email.Service, recipients []string) *ReportService {
	return &ReportService{
		analytics:  analytics,
		ossClient:  ossClient,
		mailer:     mailer,
		recipients: recipients,
	}
}

// GenerateCSV 渲染各 record type 的漏斗汇总
func (s *ReportService) GenerateCSV() ([]byte, error) {
	resp, err := s.analytics.JobTypes()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"record_type", "total", "leads", "estimating", "sold",
		"production", "invoicing", "completed", "lost",
		"conversion_rate", "win_rate", "avg_days_to_sold",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, jt := range resp.JobTypes {
		avgDays := ""
		if jt.AvgDaysToSold != nil {
			avgDays = strconv.FormatFloat(*jt.AvgDaysToSold, 'f', 1, 64)
		}
		row := []string{
			jt.RecordType,
			strconv.FormatInt(jt.Totals.Total, 10),
			strconv.FormatInt(jt.Totals.Leads, 10),
			strconv.FormatInt(jt.Totals.Estimating, 10),
			strconv.FormatInt(jt.Totals.Sold, 10),
			strconv.FormatInt(jt.Totals.Production, 10),
			strconv.FormatInt(jt.Totals.Invoicing, 10),
			strconv.FormatInt(jt.Totals.Completed, 10),
			strconv.FormatInt(jt.Totals.Lost, 10),
			strconv.Itoa(jt.ConversionRate),
			strconv.Itoa(jt.WinRate),
			avgDays,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run 生成并归档本周周报，返回下载地址
func (s *ReportService) Run() (string, error) {
	if s.ossClient == nil {
		return "", ErrReportStorageMissing
	}

	data, err := s.GenerateCSV()
	if err != nil {
		return "", err
	}

	year, week := time.Now().UTC().ISOWeek()
	url, err := s.ossClient.UploadReport(year, week, data)
	if err != nil {
		return "", err
	}

	if s.mailer != nil && len(s.recipients) > 0 {
		weekLabel := fmt.Sprintf("%d-W%02d", year, week)
		if err := s.mailer.SendWeeklyReport(s.recipients, weekLabel, url); err != nil {
			log.Printf("Failed to send weekly report email: %v", err)
		}
	}
	return url, nil
}
