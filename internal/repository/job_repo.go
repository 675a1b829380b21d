package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/salesdash_go_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) GetByID(id string) (*model.Job, error) {
	var job model.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpsertWithHistory 在单个事务中更新任务快照并追加一条状态历史
func (r *JobRepository) UpsertWithHistory(job *model.Job, entry *model.JobStatusHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(job).Error; err != nil {
			return err
		}

		entry.JobID = job.ID
		return tx.Create(entry).Error
	})
}

// Upsert 仅更新任务快照（回填时历史另行处理）
func (r *JobRepository) Upsert(job *model.Job) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(job).Error
}

func (r *JobRepository) ListAll() ([]*model.Job, error) {
	var jobs []*model.Job
	err := r.db.Order("id").Find(&jobs).Error
	return jobs, err
}

func (r *JobRepository) ListByRecordType(recordType string) ([]*model.Job, error) {
	var jobs []*model.Job
	err := r.db.Where("record_type_name = ?", recordType).Order("id").Find(&jobs).Error
	return jobs, err
}

// DistinctRecordTypes 获取所有记录类型
func (r *JobRepository) DistinctRecordTypes() ([]string, error) {
	var types []string
	err := r.db.Model(&model.Job{}).Distinct("record_type_name").
		Order("record_type_name").Pluck("record_type_name", &types).Error
	return types, err
}

// StageCountRow 阶段计数行
type StageCountRow struct {
	Stage string
	Count int64
}

// CountByStage 按当前阶段统计任务数，recordType 为空时统计全部
func (r *JobRepository) CountByStage(recordType string) (map[string]int64, error) {
	query := r.db.Model(&model.Job{}).Select("stage, count(*) as count").Group("stage")
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}

	var rows []StageCountRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}
	return counts, nil
}

// CountByStatus 按当前状态名统计任务数
func (r *JobRepository) CountByStatus(recordType string) (map[string]int64, error) {
	query := r.db.Model(&model.Job{}).Select("status_name as stage, count(*) as count").Group("status_name")
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}

	var rows []StageCountRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Stage] = row.Count
	}
	return counts, nil
}

func (r *JobRepository) Count(recordType string) (int64, error) {
	var total int64
	query := r.db.Model(&model.Job{})
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}
	err := query.Count(&total).Error
	return total, err
}

func (r *JobRepository) CountWon(recordType string) (int64, error) {
	var total int64
	query := r.db.Model(&model.Job{}).Where("is_won = ?", true)
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}
	err := query.Count(&total).Error
	return total, err
}

func (r *JobRepository) CountLost(recordType string) (int64, error) {
	var total int64
	query := r.db.Model(&model.Job{}).Where("is_lost = ?", true)
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}
	err := query.Count(&total).Error
	return total, err
}

// CountActive 统计未关闭的任务数
func (r *JobRepository) CountActive(recordType string) (int64, error) {
	var total int64
	query := r.db.Model(&model.Job{}).Where("is_closed = ?", false)
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}
	err := query.Count(&total).Error
	return total, err
}

// SumWonRevenue 汇总赢单任务的已批准发票金额，since 非零时仅统计该时间之后创建的任务
func (r *JobRepository) SumWonRevenue(recordType string, since time.Time) (float64, error) {
	var total float64
	query := r.db.Model(&model.Job{}).Where("is_won = ?", true)
	if recordType != "" {
		query = query.Where("record_type_name = ?", recordType)
	}
	if !since.IsZero() {
		query = query.Where("date_created >= ?", since)
	}
	err := query.Select("COALESCE(SUM(approved_invoice_total), 0)").Scan(&total).Error
	return total, err
}
