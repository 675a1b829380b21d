package dto

// FunnelPoint 漏斗图单个节点
type FunnelPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SourceCount 线索来源计数
type SourceCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// StepMetrics 相邻状态转化的均值指标
type StepMetrics struct {
	AvgDays        float64 `json:"avg_days"`
	ConversionRate int     `json:"conversion_rate"`
}

// WorkflowVelocity 某 job type 各状态对的转化速度
type WorkflowVelocity struct {
	JobType string                 `json:"job_type"`
	Metrics map[string]StepMetrics `json:"metrics"`
}

// MetricsResponse GET /metrics 响应（实时拉取 CRM 计算）
type MetricsResponse struct {
	TotalRevenue        float64            `json:"total_revenue"`
	NewLeads            int                `json:"new_leads"`
	AvgDailyRevenue     float64            `json:"avg_daily_revenue"`
	ConversionRate      int                `json:"conversion_rate"`
	GoogleMapsViews     int                `json:"google_maps_views"`
	RevenueByJobType    map[string]float64 `json:"revenue_by_job_type"`
	SalesFunnel         []FunnelPoint      `json:"sales_funnel"`
	WorkflowVelocity    []WorkflowVelocity `json:"workflow_velocity"`
	ReferralLeaderboard []SourceCount      `json:"referral_leaderboard"`
}
