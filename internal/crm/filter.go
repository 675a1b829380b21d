package crm

import (
	"fmt"
	"regexp"

	"github.com/qs3c/salesdash_go_server/config"
)

// ViewMain 主视图：排除分区销售代表和历史遗留类型
const ViewMain = "main"

// Filter 规范化层的排除过滤：测试数据、历史遗留类型、销售视图分区
type Filter struct {
	testName *regexp.Regexp
	legacy   map[string]bool
	views    map[string]config.ViewConfig
}

func NewFilter(cfg *config.DashboardConfig) (*Filter, error) {
	pattern := cfg.TestNamePattern
	if pattern == "" {
		pattern = `jane\s*tester`
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid test_name_pattern: %w", err)
	}

	legacy := make(map[string]bool)
	for _, t := range cfg.LegacyTypes {
		legacy[t] = true
	}
	return &Filter{
		testName: re,
		legacy:   legacy,
		views:    cfg.Views,
	}, nil
}

// IsTestRecord 任意一个名字命中测试数据模式即排除
func (f *Filter) IsTestRecord(names ...string) bool {
	for _, name := range names {
		if name != "" && f.testName.MatchString(name) {
			return true
		}
	}
	return false
}

// IsLegacyType 历史遗留类型（只在主视图排除）
func (f *Filter) IsLegacyType(jobType string) bool {
	return f.legacy[jobType]
}

// View 查找命名视图
func (f *Filter) View(name string) (config.ViewConfig, bool) {
	v, ok := f.views[name]
	return v, ok
}

// matchesRep 按 ID、名称或 owners 列表判断记录是否属于该代表
func matchesRep(view config.ViewConfig, repID, repName string, owners []string) bool {
	if view.RepID != "" && repID == view.RepID {
		return true
	}
	if view.RepName != "" && (repName == view.RepName || repID == view.RepName) {
		return true
	}
	for _, o := range owners {
		if view.RepID != "" && o == view.RepID {
			return true
		}
	}
	return false
}

// JobInView 任务是否属于指定视图。
// main 视图排除所有命名视图的代表，并排除历史遗留类型；
// 命名视图只保留该代表的记录。
func (f *Filter) JobInView(j NormalizedJob, view string) bool {
	if v, ok := f.views[view]; ok {
		return matchesRep(v, j.SalesRep, j.SalesRep, j.Owners)
	}
	if f.IsLegacyType(j.Type) {
		return false
	}
	for _, v := range f.views {
		if matchesRep(v, j.SalesRep, j.SalesRep, j.Owners) {
			return false
		}
	}
	return true
}

// ContactInView 联系人视图过滤（联系人没有 owners）
func (f *Filter) ContactInView(c Contact, view string) bool {
	if v, ok := f.views[view]; ok {
		return matchesRep(v, c.SalesRep, c.SalesRep, nil)
	}
	for _, v := range f.views {
		if matchesRep(v, c.SalesRep, c.SalesRep, nil) {
			return false
		}
	}
	return true
}

// RepInView 原始单据（报价/发票）的视图过滤
func (f *Filter) RepInView(salesRep, salesRepName, view string) bool {
	if v, ok := f.views[view]; ok {
		return matchesRep(v, salesRep, salesRepName, nil)
	}
	for _, v := range f.views {
		if matchesRep(v, salesRep, salesRepName, nil) {
			return false
		}
	}
	return true
}
