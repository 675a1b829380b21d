package dto

// StageCount 单个阶段的当前数量与到下一阶段的比值
type StageCount struct {
	Name             string `json:"name"`
	Count            int64  `json:"count"`
	ConversionToNext int    `json:"conversion_to_next"`
}

// StageConversionData 某个 record type 的阶段快照统计
type StageConversionData struct {
	RecordType string       `json:"record_type"`
	TotalJobs  int64        `json:"total_jobs"`
	Stages     []StageCount `json:"stages"`
}

// StageConversionsResponse GET /stage-conversions 响应
type StageConversionsResponse struct {
	StageConversions []StageConversionData `json:"stage_conversions"`
	Period           string                `json:"period"`
	Stages           []string              `json:"stages"`
}

// LadderStep 漏斗相邻两步之间的转化统计
type LadderStep struct {
	Step           string `json:"step"`
	Attempts       int    `json:"attempts"`
	Conversions    int    `json:"conversions"`
	ConversionRate int    `json:"conversion_rate"`
}

// StageTotals 各阶段 job 数量
type StageTotals struct {
	Total      int64 `json:"total"`
	Leads      int64 `json:"leads"`
	Estimating int64 `json:"estimating"`
	Sold       int64 `json:"sold"`
	Production int64 `json:"production"`
	Invoicing  int64 `json:"invoicing"`
	Completed  int64 `json:"completed"`
	Lost       int64 `json:"lost"`
}

// JobTypeMetrics 单个 record type 的汇总指标
type JobTypeMetrics struct {
	RecordType       string       `json:"record_type"`
	Totals           StageTotals  `json:"totals"`
	ConversionRate   int          `json:"conversion_rate"`
	WinRate          int          `json:"win_rate"`
	AvgDaysToSold    *float64     `json:"avg_days_to_sold"`
	ConversionLadder []LadderStep `json:"conversion_ladder"`
}

// JobTypesResponse GET /job-types 响应
type JobTypesResponse struct {
	JobTypes []JobTypeMetrics `json:"job_types"`
}

// WorkflowDetail GET /workflows/:workflowType 响应
type WorkflowDetail struct {
	OverallConversion int              `json:"overall_conversion"`
	AvgCycleTime      int              `json:"avg_cycle_time"`
	ActiveJobs        int64            `json:"active_jobs"`
	YTDRevenue        float64          `json:"ytd_revenue"`
	TotalJobs         int64            `json:"total_jobs"`
	WonJobs           int64            `json:"won_jobs"`
	LostJobs          int64            `json:"lost_jobs"`
	CompletedJobs     int64            `json:"completed_jobs"`
	Conversions       map[string]int   `json:"conversions"`
	AvgDays           map[string]int   `json:"avg_days"`
	StatusCounts      map[string]int64 `json:"status_counts"`
}
