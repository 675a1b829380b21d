package service

import (
	"errors"
	"math"
	"time"

	"github.com/qs3c/salesdash_go_server/internal/funnel"
	"github.com/qs3c/salesdash_go_server/internal/model"
	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/repository"
)

var ErrUnknownWorkflow = errors.New("未知的工作流类型")

// workflowSlugs URL slug → record type
var workflowSlugs = map[string]string{
	"roof-replacement":   "Roof Replacement",
	"insurance":          "Insurance",
	"repairs":            "Repairs",
	"real-estate":        "Real Estate",
	"maintenance-plan":   "Maintenance Plan",
	"window-replacement": "Window Replacement",
	"siding-replacement": "Siding Replacement",
	"gutter-replacement": "Gutter Replacement",
	"legacy":             "Legacy",
}

// AnalyticsService 基于落库数据的漏斗统计
type AnalyticsService struct {
	jobRepo     *repository.JobRepository
	historyRepo *repository.HistoryRepository
}

func NewAnalyticsService(jobRepo *repository.JobRepository, historyRepo *repository.HistoryRepository) *AnalyticsService {
	return &AnalyticsService{jobRepo: jobRepo, historyRepo: historyRepo}
}

// StageConversions 各 record type 的阶段存量快照。
// 比值是相邻阶段当前数量之比（不是队列转化率）；
// period 仅原样回显，历史数据不足以支撑时间窗过滤。
func (s *AnalyticsService) StageConversions(period string) (*dto.StageConversionsResponse, error) {
	recordTypes, err := s.jobRepo.DistinctRecordTypes()
	if err != nil {
		return nil, err
	}

	resp := &dto.StageConversionsResponse{
		Period: period,
		Stages: funnel.SnapshotStages,
	}

	for _, rt := range append([]string{""}, recordTypes...) {
		data, err := s.stageSnapshot(rt)
		if err != nil {
			return nil, err
		}
		resp.StageConversions = append(resp.StageConversions, *data)
	}
	return resp, nil
}

func (s *AnalyticsService) stageSnapshot(recordType string) (*dto.StageConversionData, error) {
	counts, err := s.jobRepo.CountByStage(recordType)
	if err != nil {
		return nil, err
	}
	total, err := s.jobRepo.Count(recordType)
	if err != nil {
		return nil, err
	}

	label := recordType
	if label == "" {
		label = "All"
	}
	data := &dto.StageConversionData{RecordType: label, TotalJobs: total}

	for i, stage := range funnel.SnapshotStages {
		sc := dto.StageCount{Name: stage, Count: counts[stage]}
		if i < len(funnel.SnapshotStages)-1 && counts[stage] > 0 {
			next := counts[funnel.SnapshotStages[i+1]]
			sc.ConversionToNext = int(math.Round(float64(next) / float64(counts[stage]) * 100))
		}
		data.Stages = append(data.Stages, sc)
	}
	return data, nil
}

// JobTypes 各 record type 的汇总指标与队列转化漏斗
func (s *AnalyticsService) JobTypes() (*dto.JobTypesResponse, error) {
	recordTypes, err := s.jobRepo.DistinctRecordTypes()
	if err != nil {
		return nil, err
	}

	resp := &dto.JobTypesResponse{JobTypes: []dto.JobTypeMetrics{}}
	for _, rt := range recordTypes {
		metrics, err := s.jobTypeMetrics(rt)
		if err != nil {
			return nil, err
		}
		resp.JobTypes = append(resp.JobTypes, *metrics)
	}
	return resp, nil
}

func (s *AnalyticsService) jobTypeMetrics(recordType string) (*dto.JobTypeMetrics, error) {
	counts, err := s.jobRepo.CountByStage(recordType)
	if err != nil {
		return nil, err
	}
	total, err := s.jobRepo.Count(recordType)
	if err != nil {
		return nil, err
	}
	won, err := s.jobRepo.CountWon(recordType)
	if err != nil {
		return nil, err
	}
	lost, err := s.jobRepo.CountLost(recordType)
	if err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.ListByRecordType(recordType)
	if err != nil {
		return nil, err
	}
	sequences := funnel.BuildSequences(toFunnelEntries(entries))

	ladder := funnel.ConversionLadder(sequences, funnel.StatusFlow)
	steps := make([]dto.LadderStep, 0, len(ladder))
	for _, step := range ladder {
		steps = append(steps, dto.LadderStep{
			Step:           step.From + " → " + step.To,
			Attempts:       step.Attempts,
			Conversions:    step.Conversions,
			ConversionRate: step.Rate(),
		})
	}

	return &dto.JobTypeMetrics{
		RecordType: recordType,
		Totals: dto.StageTotals{
			Total:      total,
			Leads:      counts[funnel.StageLead],
			Estimating: counts[funnel.StageEstimating],
			Sold:       counts[funnel.StageSold],
			Production: counts[funnel.StageProduction],
			Invoicing:  counts[funnel.StageInvoicing],
			Completed:  counts[funnel.StageCompleted],
			Lost:       counts[funnel.StageLost],
		},
		ConversionRate:   funnel.Rate(int(won), int(total)),
		WinRate:          funnel.Rate(int(won), int(won+lost)),
		AvgDaysToSold:    avgDaysToSold(entries),
		ConversionLadder: steps,
	}, nil
}

// WorkflowDetail 单个工作流的明细统计
func (s *AnalyticsService) WorkflowDetail(slug string) (*dto.WorkflowDetail, error) {
	recordType, ok := workflowSlugs[slug]
	if !ok {
		return nil, ErrUnknownWorkflow
	}

	total, err := s.jobRepo.Count(recordType)
	if err != nil {
		return nil, err
	}
	won, err := s.jobRepo.CountWon(recordType)
	if err != nil {
		return nil, err
	}
	lost, err := s.jobRepo.CountLost(recordType)
	if err != nil {
		return nil, err
	}
	counts, err := s.jobRepo.CountByStage(recordType)
	if err != nil {
		return nil, err
	}
	active, err := s.jobRepo.CountActive(recordType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	revenue, err := s.jobRepo.SumWonRevenue(recordType, yearStart)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.jobRepo.CountByStatus(recordType)
	if err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.ListByRecordType(recordType)
	if err != nil {
		return nil, err
	}
	sequences := funnel.BuildSequences(toFunnelEntries(entries))
	attempts, progressed := funnel.ProgressionCounts(sequences)

	conversions := make(map[string]int, len(funnel.KnownStatuses))
	avgDays := make(map[string]int, len(funnel.KnownStatuses))
	for _, status := range funnel.KnownStatuses {
		conversions[status] = funnel.Rate(progressed[status], attempts[status])
		// TODO: 从状态历史推导每个状态的平均停留天数
		avgDays[status] = 0
	}

	return &dto.WorkflowDetail{
		OverallConversion: funnel.Rate(int(won), int(total)),
		AvgCycleTime:      avgCycleTime(entries),
		ActiveJobs:        active,
		YTDRevenue:        revenue,
		TotalJobs:         total,
		WonJobs:           won,
		LostJobs:          lost,
		CompletedJobs:     counts[funnel.StageCompleted],
		Conversions:       conversions,
		AvgDays:           avgDays,
		StatusCounts:      statusCounts,
	}, nil
}

func toFunnelEntries(entries []*model.JobStatusHistory) []funnel.HistoryEntry {
	out := make([]funnel.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		var at time.Time
		if e.ChangedAt != nil {
			at = *e.ChangedAt
		}
		out = append(out, funnel.HistoryEntry{
			JobID:      e.JobID,
			StatusName: e.StatusName,
			ChangedAt:  at,
		})
	}
	return out
}

// avgDaysToSold 从状态历史回放首条记录到进入 Sold 阶段的平均天数，
// 没有任何成交 job 时返回 nil
func avgDaysToSold(entries []*model.JobStatusHistory) *float64 {
	first := make(map[string]time.Time)
	sold := make(map[string]time.Time)

	for _, e := range entries {
		if e.ChangedAt == nil {
			continue
		}
		at := *e.ChangedAt
		if f, ok := first[e.JobID]; !ok || at.Before(f) {
			first[e.JobID] = at
		}
		if funnel.StageOf(e.StatusName) == funnel.StageSold {
			if s, ok := sold[e.JobID]; !ok || at.Before(s) {
				sold[e.JobID] = at
			}
		}
	}

	var sum float64
	var n int
	for jobID, soldAt := range sold {
		startAt, ok := first[jobID]
		if !ok || soldAt.Before(startAt) {
			continue
		}
		sum += soldAt.Sub(startAt).Hours() / 24
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// avgCycleTime 完结 job 从首条历史到进入 Completed 阶段的平均天数（取整）
func avgCycleTime(entries []*model.JobStatusHistory) int {
	first := make(map[string]time.Time)
	done := make(map[string]time.Time)

	for _, e := range entries {
		if e.ChangedAt == nil {
			continue
		}
		at := *e.ChangedAt
		if f, ok := first[e.JobID]; !ok || at.Before(f) {
			first[e.JobID] = at
		}
		if funnel.StageOf(e.StatusName) == funnel.StageCompleted {
			if d, ok := done[e.JobID]; !ok || at.Before(d) {
				done[e.JobID] = at
			}
		}
	}

	var sum float64
	var n int
	for jobID, doneAt := range done {
		startAt, ok := first[jobID]
		if !ok || doneAt.Before(startAt) {
			continue
		}
		sum += doneAt.Sub(startAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(sum / float64(n)))
}
