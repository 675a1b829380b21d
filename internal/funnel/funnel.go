package funnel

import (
	"math"
	"sort"
	"time"
)

// StatusFlow 转化漏斗的规范步骤顺序
var StatusFlow = []string{
	"Lead",
	"Contacting",
	"Appointment Scheduled",
	"Estimating",
	"Estimate Sent",
	"Signed Contract",
	"Pre-Production",
	"Ready for Install",
	"Job Scheduled",
	"In Progress",
	"Job Completed",
	"Paid & Closed",
}

// HistoryEntry 回放状态日志所需的最小字段
type HistoryEntry struct {
	JobID      string
	StatusName string
	ChangedAt  time.Time
}

// StepConversion 相邻步骤对的转化计数
type StepConversion struct {
	From        string
	To          string
	Attempts    int
	Conversions int
}

// Rate 整数百分比；attempts 为 0 时返回 0，不产生除零
func (s StepConversion) Rate() int {
	return Rate(s.Conversions, s.Attempts)
}

// Rate 四舍五入到整数的百分比
func Rate(conversions, attempts int) int {
	if attempts <= 0 {
		return 0
	}
	return int(math.Round(float64(conversions) / float64(attempts) * 100))
}

// BuildSequences 把状态日志回放为每个 job 的有序去重状态序列。
// 排序按 (job id, 时间戳) 稳定排序，同一时间戳保持插入顺序；
// 同一状态重复出现只保留第一次。
func BuildSequences(entries []HistoryEntry) map[string][]string {
	sorted := make([]HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].JobID != sorted[j].JobID {
			return sorted[i].JobID < sorted[j].JobID
		}
		return sorted[i].ChangedAt.Before(sorted[j].ChangedAt)
	})

	sequences := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	for _, e := range sorted {
		if seen[e.JobID] == nil {
			seen[e.JobID] = make(map[string]bool)
		}
		if seen[e.JobID][e.StatusName] {
			continue
		}
		seen[e.JobID][e.StatusName] = true
		sequences[e.JobID] = append(sequences[e.JobID], e.StatusName)
	}
	return sequences
}

// ConversionLadder 计算漏斗相邻步骤对的 attempts / conversions。
// 对每个 job：找到 from 的首次下标记一次 attempt，
// 再在该下标之后找 to 的首次出现记一次 conversion。
// 只认向前的转化，to 出现在 from 之前不算。
func ConversionLadder(sequences map[string][]string, flow []string) []StepConversion {
	ladder := make([]StepConversion, 0, len(flow)-1)
	for i := 0; i < len(flow)-1; i++ {
		ladder = append(ladder, StepConversion{From: flow[i], To: flow[i+1]})
	}

	for _, statuses := range sequences {
		for i := range ladder {
			fromIdx := indexOf(statuses, ladder[i].From, 0)
			if fromIdx < 0 {
				continue
			}
			ladder[i].Attempts++
			if indexOf(statuses, ladder[i].To, fromIdx+1) >= 0 {
				ladder[i].Conversions++
			}
		}
	}
	return ladder
}

// ProgressionCounts 漏斗明细页口径：
// attempts = 序列中出现过该状态的 job 数，
// conversions = 该状态之后还有后续状态的 job 数（即未停在该状态）。
func ProgressionCounts(sequences map[string][]string) (attempts, conversions map[string]int) {
	attempts = make(map[string]int)
	conversions = make(map[string]int)
	for _, statuses := range sequences {
		for i, status := range statuses {
			attempts[status]++
			if i < len(statuses)-1 {
				conversions[status]++
			}
		}
	}
	return attempts, conversions
}

func indexOf(statuses []string, target string, from int) int {
	for i := from; i < len(statuses); i++ {
		if statuses[i] == target {
			return i
		}
	}
	return -1
}
