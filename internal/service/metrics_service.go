package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/qs3c/salesdash_go_server/internal/crm"
	"github.com/qs3c/salesdash_go_server/internal/funnel"
	"github.com/qs3c/salesdash_go_server/internal/model/dto"
	"github.com/qs3c/salesdash_go_server/internal/pkg/cache"
)

var ErrUpstream = errors.New("CRM 服务不可用")

// revenueBuckets 按 job type 分桶的营收卡片，未命中的归入 Other
var revenueBuckets = []string{
	"Roof Replacement", "Siding", "Gutters", "Windows",
	"Repairs", "Insurance", "Retail", "Other",
}

// MetricsService 实时拉取 CRM 计算总览指标。
// 与落库路径的队列口径不同：这里按当前快照外推。
type MetricsService struct {
	crmClient *crm.Client
	filter    *crm.Filter
	cache     *cache.Cache // 可为 nil
}

func NewMetricsService(crmClient *crm.Client, filter *crm.Filter, c *cache.Cache) *MetricsService {
	return &MetricsService{crmClient: crmClient, filter: filter, cache: c}
}

// Metrics 计算总览指标，短 TTL 缓存；未配置 CRM token 时返回演示数据
func (s *MetricsService) Metrics(ctx context.Context, view string) (*dto.MetricsResponse, error) {
	if !s.crmClient.HasToken() {
		return demoMetrics(), nil
	}

	cacheKey := "metrics:" + view
	if s.cache != nil {
		var cached dto.MetricsResponse
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	resp, err := s.compute(ctx, view)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, resp); err != nil {
			log.Printf("Failed to cache metrics for view %s: %v", view, err)
		}
	}
	return resp, nil
}

func (s *MetricsService) compute(ctx context.Context, view string) (*dto.MetricsResponse, error) {
	rawContacts, err := s.crmClient.GetContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	rawJobs, err := s.crmClient.GetJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	estimates, err := s.crmClient.GetEstimates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	invoices, err := s.crmClient.GetInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)

	// 规范化 + 过滤：测试数据、视图分区
	contacts := make([]crm.Contact, 0, len(rawContacts))
	for _, raw := range rawContacts {
		c := crm.NormalizeContact(raw)
		if s.filter.IsTestRecord(c.Name) {
			continue
		}
		if !s.filter.ContactInView(c, view) {
			continue
		}
		contacts = append(contacts, c)
	}

	jobByID := make(map[string]crm.NormalizedJob)
	for _, raw := range rawJobs {
		j := crm.NormalizeJob(raw)
		if s.filter.IsTestRecord(j.CustomerName) {
			continue
		}
		if !s.filter.JobInView(j, view) {
			continue
		}
		jobByID[j.ID] = j
	}

	// YTD 营收：本年内付清的发票按 total_paid 汇总
	var totalRevenue float64
	for _, inv := range invoices {
		if inv.Primary != nil && s.filter.IsTestRecord(inv.Primary.Name) {
			continue
		}
		if !s.filter.RepInView(inv.SalesRep, inv.SalesRepName, view) {
			continue
		}
		paidAt := crm.EpochToTime(inv.DatePaidInFull)
		if paidAt.IsZero() || paidAt.Before(yearStart) {
			continue
		}
		totalRevenue += inv.TotalPaid
	}

	// 按 job type 的营收卡片：所有发票的 total，挂不到 job 的不计
	revenueByType := make(map[string]float64, len(revenueBuckets))
	for _, bucket := range revenueBuckets {
		revenueByType[bucket] = 0
	}
	for _, inv := range invoices {
		if inv.Primary != nil && s.filter.IsTestRecord(inv.Primary.Name) {
			continue
		}
		if !s.filter.RepInView(inv.SalesRep, inv.SalesRepName, view) {
			continue
		}
		for _, ref := range inv.Related {
			if ref.Type != "job" {
				continue
			}
			if j, ok := jobByID[ref.ID]; ok {
				bucket := j.Type
				if _, known := revenueByType[bucket]; !known {
					bucket = "Other"
				}
				revenueByType[bucket] += inv.Total
			}
			break
		}
	}

	// 新线索：近 7 天创建的联系人
	newLeads := 0
	for _, c := range contacts {
		if !c.CreatedAt.IsZero() && c.CreatedAt.After(weekAgo) {
			newLeads++
		}
	}

	daysElapsed := now.Sub(yearStart).Hours() / 24
	if daysElapsed < 1 {
		daysElapsed = 1
	}

	// 报价转化率：已签约或已批准 / 全部
	totalEstimates, signedEstimates := 0, 0
	for _, e := range estimates {
		if !s.filter.RepInView(e.SalesRep, e.SalesRepName, view) {
			continue
		}
		totalEstimates++
		switch e.StatusName {
		case "Signed", "signed", "Approved", "approved":
			signedEstimates++
		}
	}

	return &dto.MetricsResponse{
		TotalRevenue:    totalRevenue,
		NewLeads:        newLeads,
		AvgDailyRevenue: totalRevenue / daysElapsed,
		ConversionRate:  funnel.Rate(signedEstimates, totalEstimates),
		// TODO: 接入 Google Business Profile API 后替换占位值
		GoogleMapsViews:     1203,
		RevenueByJobType:    revenueByType,
		SalesFunnel:         salesFunnel(newLeads, totalEstimates, signedEstimates),
		WorkflowVelocity:    s.workflowVelocity(ctx, jobByID),
		ReferralLeaderboard: referralLeaderboard(contacts),
	}, nil
}

// salesFunnel 漏斗卡片数据。前段没有可靠的状态事件，
// 按新线索数外推展示；后段用报价的真实计数。
func salesFunnel(newLeads, totalEstimates, signedEstimates int) []dto.FunnelPoint {
	n := float64(newLeads)
	return []dto.FunnelPoint{
		{Name: "New Leads", Value: n * 3},
		{Name: "Contacted", Value: n * 2},
		{Name: "Appt Set", Value: n * 1.5},
		{Name: "Appt Complete", Value: n * 1.2},
		{Name: "Est Given", Value: float64(totalEstimates)},
		{Name: "Est Signed", Value: float64(signedEstimates)},
		{Name: "Paid", Value: float64(signedEstimates) * 0.9},
	}
}

// referralLeaderboard 线索来源 Top 5
func referralLeaderboard(contacts []crm.Contact) []dto.SourceCount {
	counts := make(map[string]int)
	for _, c := range contacts {
		counts[c.Source]++
	}

	sources := make([]dto.SourceCount, 0, len(counts))
	for name, n := range counts {
		sources = append(sources, dto.SourceCount{Name: name, Value: n})
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Value != sources[j].Value {
			return sources[i].Value > sources[j].Value
		}
		return sources[i].Name < sources[j].Name
	})
	if len(sources) > 5 {
		sources = sources[:5]
	}
	return sources
}

// workflowVelocity 用最近的状态变更 activity 回放各 job type 的
// 相邻状态转化率与平均耗时。activity 拉不到时返回空列表而不报错。
func (s *MetricsService) workflowVelocity(ctx context.Context, jobByID map[string]crm.NormalizedJob) []dto.WorkflowVelocity {
	workflows, err := s.crmClient.GetWorkflows(ctx)
	if err != nil {
		log.Printf("Failed to fetch workflows: %v", err)
		return []dto.WorkflowVelocity{}
	}
	statusNames := make(map[int64]string)
	for _, wf := range workflows {
		for _, st := range wf.Status {
			statusNames[st.ID] = st.Name
		}
	}

	activities, err := s.crmClient.GetRecentActivities(ctx, 1000)
	if err != nil {
		log.Printf("Failed to fetch activities: %v", err)
		return []dto.WorkflowVelocity{}
	}

	// 按 job type 分桶的历史条目
	entriesByType := make(map[string][]funnel.HistoryEntry)
	timesByJob := make(map[string]map[string]time.Time)
	for _, a := range activities {
		if !a.IsStatusChange || a.Primary == nil || a.Primary.Type != "job" {
			continue
		}
		job, ok := jobByID[a.Primary.ID]
		if !ok {
			continue
		}
		statusName := statusNames[a.Primary.NewStatus]
		if statusName == "" {
			continue
		}
		at := crm.EpochToTime(a.DateCreated)
		entriesByType[job.Type] = append(entriesByType[job.Type], funnel.HistoryEntry{
			JobID:      a.Primary.ID,
			StatusName: statusName,
			ChangedAt:  at,
		})
		if timesByJob[a.Primary.ID] == nil {
			timesByJob[a.Primary.ID] = make(map[string]time.Time)
		}
		if prev, ok := timesByJob[a.Primary.ID][statusName]; !ok || at.Before(prev) {
			timesByJob[a.Primary.ID][statusName] = at
		}
	}

	jobTypes := make([]string, 0, len(entriesByType))
	for jt := range entriesByType {
		jobTypes = append(jobTypes, jt)
	}
	sort.Strings(jobTypes)

	velocity := make([]dto.WorkflowVelocity, 0, len(jobTypes))
	for _, jt := range jobTypes {
		sequences := funnel.BuildSequences(entriesByType[jt])
		ladder := funnel.ConversionLadder(sequences, funnel.StatusFlow)

		metrics := make(map[string]dto.StepMetrics, len(ladder))
		for _, step := range ladder {
			key := step.From + " → " + step.To
			metrics[key] = dto.StepMetrics{
				AvgDays:        avgStepDays(sequences, timesByJob, step.From, step.To),
				ConversionRate: step.Rate(),
			}
		}
		velocity = append(velocity, dto.WorkflowVelocity{JobType: jt, Metrics: metrics})
	}
	return velocity
}

// avgStepDays 完成 from → to 转化的 job 的平均耗时（天）
func avgStepDays(sequences map[string][]string, timesByJob map[string]map[string]time.Time, from, to string) float64 {
	var sum float64
	var n int
	for jobID := range sequences {
		times := timesByJob[jobID]
		if times == nil {
			continue
		}
		fromAt, okFrom := times[from]
		toAt, okTo := times[to]
		if !okFrom || !okTo || toAt.Before(fromAt) {
			continue
		}
		sum += toAt.Sub(fromAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// demoMetrics 未配置 CRM token 时的演示数据
func demoMetrics() *dto.MetricsResponse {
	return &dto.MetricsResponse{
		TotalRevenue:    847500,
		NewLeads:        23,
		AvgDailyRevenue: 3470,
		ConversionRate:  42,
		GoogleMapsViews: 1203,
		RevenueByJobType: map[string]float64{
			"Roof Replacement": 692000,
			"Repairs":          155500,
		},
		SalesFunnel: []dto.FunnelPoint{
			{Name: "New Leads", Value: 69},
			{Name: "Contacted", Value: 46},
			{Name: "Appt Set", Value: 34.5},
			{Name: "Appt Complete", Value: 27.6},
			{Name: "Est Given", Value: 26},
			{Name: "Est Signed", Value: 11},
			{Name: "Paid", Value: 9.9},
		},
		WorkflowVelocity: []dto.WorkflowVelocity{
			{
				JobType: "Roof Replacement",
				Metrics: map[string]dto.StepMetrics{
					"Lead → Contacting": {AvgDays: 1.2, ConversionRate: 78},
				},
			},
		},
		ReferralLeaderboard: []dto.SourceCount{
			{Name: "Google", Value: 31},
			{Name: "Referral", Value: 24},
			{Name: "Door Knocking", Value: 17},
			{Name: "Facebook", Value: 9},
			{Name: "Other", Value: 6},
		},
	}
}
