package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/funnel"
	"github.com/qs3c/salesdash_go_server/internal/model"
	"github.com/qs3c/salesdash_go_server/internal/repository"
	"github.com/qs3c/salesdash_go_server/internal/service"
)

// Syncer 从 CRM 拉取 job 全量快照并用 activity 回放重建状态历史。
// webhook 是常规写入路径，这里只做初始回填和补漏。
type Syncer struct {
	crmClient     *crm.Client
	jobRepo       *repository.JobRepository
	historyRepo   *repository.HistoryRepository
	activityLimit int
	jobLimit      int
}

// Stats 单次同步结果
type Stats struct {
	JobsSynced      int
	HistoryAppended int
	Errors          int
}

func NewSyncer(crmClient *crm.Client, jobRepo *repository.JobRepository, historyRepo *repository.HistoryRepository, cfg *config.SyncConfig) *Syncer {
	return &Syncer{
		crmClient:     crmClient,
		jobRepo:       jobRepo,
		historyRepo:   historyRepo,
		activityLimit: cfg.ActivityLimit,
		jobLimit:      cfg.JobLimit,
	}
}

// Run 执行一次同步。单个 job 的失败只计数不中断整轮。
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	jobs, err := s.crmClient.GetJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}

	workflows, err := s.crmClient.GetWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}
	statusNames := make(map[int64]string)
	for _, wf := range workflows {
		for _, st := range wf.Status {
			statusNames[st.ID] = st.Name
		}
	}

	if s.jobLimit > 0 && len(jobs) > s.jobLimit {
		jobs = jobs[:s.jobLimit]
	}

	stats := &Stats{}
	for _, apiJob := range jobs {
		if apiJob.JNID == "" {
			continue
		}
		if err := s.syncJob(ctx, apiJob, statusNames, stats); err != nil {
			log.Printf("Sync failed for job %s: %v", apiJob.JNID, err)
			stats.Errors++
		}
	}

	log.Printf("Sync completed: jobs=%d, history=%d, errors=%d",
		stats.JobsSynced, stats.HistoryAppended, stats.Errors)
	return stats, nil
}

func (s *Syncer) syncJob(ctx context.Context, apiJob crm.APIJob, statusNames map[int64]string, stats *Stats) error {
	raw, err := json.Marshal(apiJob)
	if err != nil {
		return err
	}

	job := service.BuildJobRecord(apiJob, raw)
	if err := s.jobRepo.Upsert(job); err != nil {
		return err
	}
	stats.JobsSynced++

	appended, err := s.rebuildHistory(ctx, job, statusNames)
	if err != nil {
		return err
	}
	stats.HistoryAppended += appended
	return nil
}

// rebuildHistory 用 activity 回放补齐缺失的历史行，已存在的不重复写
func (s *Syncer) rebuildHistory(ctx context.Context, job *model.Job, statusNames map[int64]string) (int, error) {
	activities, err := s.crmClient.GetJobActivities(ctx, job.ID, s.activityLimit)
	if err != nil {
		return 0, err
	}

	appended := 0
	for _, a := range activities {
		if !a.IsStatusChange || a.Primary == nil || a.Primary.ID != job.ID {
			continue
		}
		statusName := statusNames[a.Primary.NewStatus]
		if statusName == "" {
			continue
		}
		changedAt := crm.EpochToTime(a.DateCreated)
		if changedAt.IsZero() {
			continue
		}

		exists, err := s.historyRepo.Exists(job.ID, statusName, changedAt)
		if err != nil {
			return appended, err
		}
		if exists {
			continue
		}

		entry := &model.JobStatusHistory{
			JobID:      job.ID,
			StatusName: statusName,
			Stage:      funnel.StageOf(statusName),
			ChangedAt:  &changedAt,
		}
		if err := s.historyRepo.Append(entry); err != nil {
			return appended, err
		}
		appended++
	}

	if appended > 0 {
		return appended, nil
	}

	// 没有任何可回放的 activity 时，至少落一条当前状态
	existing, err := s.historyRepo.ListByJobID(job.ID)
	if err != nil {
		return appended, err
	}
	if len(existing) > 0 {
		return appended, nil
	}

	changedAt := time.Now().UTC()
	if job.DateStatusChange != nil {
		changedAt = *job.DateStatusChange
	} else if job.DateCreated != nil {
		changedAt = *job.DateCreated
	}
	entry := &model.JobStatusHistory{
		JobID:      job.ID,
		StatusName: job.StatusName,
		Stage:      job.Stage,
		ChangedAt:  &changedAt,
	}
	if err := s.historyRepo.Append(entry); err != nil {
		return appended, err
	}
	return appended + 1, nil
}
