package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/salesdash_go_server/internal/model"
)

// TestJob 创建测试任务记录
func TestJob(t *testing.T, db *gorm.DB, opts ...func(*model.Job)) *model.Job {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	job := &model.Job{
		ID:             fmt.Sprintf("job_%d", time.Now().UnixNano()),
		Number:         "1001",
		RecordTypeName: "Roof Replacement",
		StatusName:     "Lead",
		Stage:          "Lead",
		DateCreated:    &now,
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}

// WithJobID 设置任务 ID
func WithJobID(id string) func(*model.Job) {
	return func(j *model.Job) {
		j.ID = id
	}
}

// WithRecordType 设置记录类型
func WithRecordType(recordType string) func(*model.Job) {
	return func(j *model.Job) {
		j.RecordTypeName = recordType
	}
}

// WithStatus 设置状态与阶段
func WithStatus(statusName, stage string) func(*model.Job) {
	return func(j *model.Job) {
		j.StatusName = statusName
		j.Stage = stage
	}
}

// WithRevenue 设置已批准发票金额并标记赢单
func WithRevenue(total float64) func(*model.Job) {
	return func(j *model.Job) {
		j.ApprovedInvoiceTotal = total
		j.IsWon = true
	}
}

// WithFlags 设置赢单/关闭/输单标记
func WithFlags(won, closed, lost bool) func(*model.Job) {
	return func(j *model.Job) {
		j.IsWon = won
		j.IsClosed = closed
		j.IsLost = lost
	}
}

// TestHistory 创建测试状态历史记录
func TestHistory(t *testing.T, db *gorm.DB, jobID, statusName, stage string, changedAt time.Time, opts ...func(*model.JobStatusHistory)) *model.JobStatusHistory {
	t.Helper()

	entry := &model.JobStatusHistory{
		JobID:      jobID,
		StatusName: statusName,
		Stage:      stage,
		ChangedAt:  &changedAt,
	}

	for _, opt := range opts {
		opt(entry)
	}

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create test history entry: %v", err)
	}

	return entry
}
