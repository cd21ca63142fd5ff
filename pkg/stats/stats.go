// Package stats 汇总值班表的工作量分布统计
package stats

import (
	"math"
	"sort"

	"github.com/zhiban/zhiban/pkg/model"
)

// PersonStats 单个人员的工作量统计
type PersonStats struct {
	PersonID  int        `json:"person_id"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	Morning   int        `json:"morning"`
	Afternoon int        `json:"afternoon"`
	Night     int        `json:"night"`
	Total     int        `json:"total"`
	LeaveDays int        `json:"leave_days"`
}

// Report 月度工作量分布报告。
// 极差与基尼系数只统计轮班人员，非轮班人员工作量另有上限管理。
type Report struct {
	PerPerson   []PersonStats `json:"per_person"`
	TotalSpread int           `json:"total_spread"`
	NightSpread int           `json:"night_spread"`
	Gini        float64       `json:"gini"`
}

// Build 由值班表与人员列表构建统计报告
func Build(personnel []model.Person, roster model.Roster) *Report {
	byID := make(map[int]*PersonStats, len(personnel))
	report := &Report{PerPerson: make([]PersonStats, len(personnel))}
	for i := range personnel {
		p := &personnel[i]
		report.PerPerson[i] = PersonStats{
			PersonID:  p.ID,
			Name:      p.Name,
			Role:      p.Role,
			LeaveDays: len(p.LeaveDays()),
		}
		byID[p.ID] = &report.PerPerson[i]
	}

	for _, date := range roster.Dates() {
		day := roster[date]
		for _, id := range day.P {
			if s := byID[id]; s != nil {
				s.Morning++
				s.Total++
			}
		}
		for _, id := range day.S {
			if s := byID[id]; s != nil {
				s.Afternoon++
				s.Total++
			}
		}
		for _, id := range day.M {
			if s := byID[id]; s != nil {
				s.Night++
				s.Total++
			}
		}
	}

	var totals, nights []int
	for i := range report.PerPerson {
		if report.PerPerson[i].Role != model.RoleShift {
			continue
		}
		totals = append(totals, report.PerPerson[i].Total)
		nights = append(nights, report.PerPerson[i].Night)
	}
	report.TotalSpread = spread(totals)
	report.NightSpread = spread(nights)
	report.Gini = gini(totals)

	sort.Slice(report.PerPerson, func(i, j int) bool {
		return report.PerPerson[i].PersonID < report.PerPerson[j].PersonID
	})
	return report
}

// spread 返回极差 max−min
func spread(values []int) int {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

// gini 计算基尼系数，0 为完全均衡
func gini(values []int) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	if sum == 0 {
		return 0
	}
	var diff float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff += math.Abs(float64(values[i] - values[j]))
		}
	}
	mean := float64(sum) / float64(n)
	return diff / (2 * float64(n) * float64(n) * mean)
}
