package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/salesdash_go_server/internal/model"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(entry *model.JobStatusHistory) error {
	return r.db.Create(entry).Error
}

// ListByJobID 按时间顺序获取单个任务的状态历史，时间相同时按插入顺序
func (r *HistoryRepository) ListByJobID(jobID string) ([]*model.JobStatusHistory, error) {
	var entries []*model.JobStatusHistory
	err := r.db.Where("job_id = ?", jobID).
		Order("changed_at, id").Find(&entries).Error
	return entries, err
}

// ListAll 获取全部状态历史，按任务分组排序
func (r *HistoryRepository) ListAll() ([]*model.JobStatusHistory, error) {
	var entries []*model.JobStatusHistory
	err := r.db.Order("job_id, changed_at, id").Find(&entries).Error
	return entries, err
}

// ListByRecordType 获取指定记录类型任务的状态历史
func (r *HistoryRepository) ListByRecordType(recordType string) ([]*model.JobStatusHistory, error) {
	var entries []*model.JobStatusHistory
	err := r.db.Joins("JOIN jobs ON jobs.id = job_status_history.job_id").
		Where("jobs.record_type_name = ?", recordType).
		Order("job_status_history.job_id, job_status_history.changed_at, job_status_history.id").
		Find(&entries).Error
	return entries, err
}

// Exists 判断某条历史是否已存在（回填去重）
func (r *HistoryRepository) Exists(jobID, statusName string, changedAt time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.JobStatusHistory{}).
		Where("job_id = ? AND status_name = ? AND changed_at = ?", jobID, statusName, changedAt).
		Count(&count).Error
	return count > 0, err
}
