package funnel

// 状态名 → 粗粒度阶段的固定映射。
// 未知状态统一落到 StageUnknown，不报错。
const (
	StageLead       = "Lead"
	StageEstimating = "Estimating"
	StageSold       = "Sold"
	StageProduction = "Production"
	StageInvoicing  = "Invoicing"
	StageCompleted  = "Completed"
	StageLost       = "Lost"
	StageUnknown    = "Unknown"
)

var stageMap = map[string]string{
	"Lead":                  StageLead,
	"Contacting":            StageLead,
	"Appointment Scheduled": StageLead,
	"Needs Rescheduling":    StageLead,
	"Estimating":            StageEstimating,
	"Estimate Sent":         StageEstimating,
	"Bob's Estimate Sent":   StageEstimating,
	"Signed Contract":       StageSold,
	"Pre-Production":        StageProduction,
	"Ready for Install":     StageProduction,
	"Job Scheduled":         StageProduction,
	"In Progress":           StageProduction,
	"Job Completed":         StageProduction,
	"Final Walk Through":    StageProduction,
	"Invoiced Customer":     StageInvoicing,
	"Back End Audit":        StageInvoicing,
	"Pay the Crew":          StageInvoicing,
	"Bob's Collection":      StageInvoicing,
	"Paid & Closed":         StageCompleted,
	"Request Review":        StageCompleted,
	"Hold":                  StageLost,
	"Rehash":                StageLost,
	"Lost":                  StageLost,
}

// StageOf 根据状态名推导阶段
func StageOf(statusName string) string {
	if stage, ok := stageMap[statusName]; ok {
		return stage
	}
	return StageUnknown
}

// IsWon 进入 Sold 及之后阶段视为赢单
func IsWon(stage string) bool {
	switch stage {
	case StageSold, StageProduction, StageInvoicing, StageCompleted:
		return true
	}
	return false
}

// IsClosed 终态（完成或丢单）
func IsClosed(stage string) bool {
	return stage == StageCompleted || stage == StageLost
}

// IsLost 丢单
func IsLost(stage string) bool {
	return stage == StageLost
}

// SnapshotStages 阶段快照统计使用的固定顺序。
// 注意：这是存量比值口径，列表沿用看板约定
// （含 "Accounts Receivable"），与 StageOf 的取值并不一一对应。
var SnapshotStages = []string{
	StageLead,
	StageEstimating,
	StageSold,
	StageProduction,
	"Accounts Receivable",
	StageCompleted,
}

// KnownStatuses 漏斗明细页统计的全部状态
var KnownStatuses = []string{
	"Lead", "Contacting", "Appointment Scheduled", "Needs Rescheduling",
	"Estimating", "Estimate Sent", "Bob's Estimate Sent",
	"Signed Contract", "Pre-Production", "Ready for Install",
	"Job Scheduled", "In Progress", "Job Completed", "Final Walk Through",
	"Invoiced Customer", "Back End Audit", "Pay the Crew", "Bob's Collection",
	"Paid & Closed", "Request Review", "Hold", "Rehash", "Lost",
}
