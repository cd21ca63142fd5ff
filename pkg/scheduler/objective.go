package scheduler

import (
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
)

// 目标权重：总班次极差的权重高于夜班极差
const (
	weightTotalSpread = 3
	weightNightSpread = 1
)

// compileObjective 编译工作量均衡目标：
//
//	minimize 3·(最多总班次 − 最少总班次) + (最多夜班 − 最少夜班)
//
// 极差通过阈值位线性化：对每个阈值 k 引入“最大值 ≥ k”与
// “最小值 ≥ k”两个辅助变量，阈值位求和即还原最大/最小值，
// 从而把极差表达为纯文字代价（相差一个常数偏移，不影响最小化）。
// 只统计轮班人员：非轮班人员的工作量由独立的上限约束管理。
func compileObjective(m *sat.Model, grid *VarGrid, prob *Problem) {
	shiftPeople := make([]int, 0, len(prob.Personnel))
	for pi := range prob.Personnel {
		if prob.Personnel[pi].Role == model.RoleShift {
			shiftPeople = append(shiftPeople, pi)
		}
	}
	if len(shiftPeople) == 0 {
		return
	}

	days := grid.Days()
	slots := days * len(model.ShiftTypes)

	// 总班次极差：阈值 k ∈ [1, 天数]
	for k := 1; k <= days; k++ {
		// upper ↔ “存在人员总班次 ≥ k” 的松弛上界位。
		// 约束：对每人 Σ¬x + slots·upper ≥ slots−k+1，
		// 即 upper=0 时强制每人总班次 ≤ k−1。
		upper := m.NewBool()
		for _, pi := range shiftPeople {
			lits := make([]sat.Lit, 0, slots+1)
			weights := make([]int, 0, slots+1)
			for d := 0; d < days; d++ {
				for s := range model.ShiftTypes {
					lits = append(lits, grid.Var(pi, d, s).Not())
					weights = append(weights, 1)
				}
			}
			lits = append(lits, upper.Lit())
			weights = append(weights, slots)
			m.AddLinearAtLeast(lits, weights, slots-k+1)
		}
		m.AddObjectiveTerm(upper.Lit(), weightTotalSpread)

		// lower=1 时强制每人总班次 ≥ k；目标奖励 lower 为真。
		lower := m.NewBool()
		for _, pi := range shiftPeople {
			lits := make([]sat.Lit, 0, slots+1)
			weights := make([]int, 0, slots+1)
			for d := 0; d < days; d++ {
				for s := range model.ShiftTypes {
					lits = append(lits, grid.Var(pi, d, s).Lit())
					weights = append(weights, 1)
				}
			}
			lits = append(lits, lower.Not())
			weights = append(weights, k)
			m.AddLinearAtLeast(lits, weights, k)
		}
		m.AddObjectiveTerm(lower.Not(), weightTotalSpread)
	}

	// 夜班极差：阈值上界取夜班上限（未配置时取天数）
	nightMax := days
	if prob.Config.MaxNightShifts > 0 && prob.Config.MaxNightShifts < days {
		nightMax = prob.Config.MaxNightShifts
	}
	for k := 1; k <= nightMax; k++ {
		upper := m.NewBool()
		for _, pi := range shiftPeople {
			lits := make([]sat.Lit, 0, days+1)
			weights := make([]int, 0, days+1)
			for d := 0; d < days; d++ {
				lits = append(lits, grid.Night(pi, d).Not())
				weights = append(weights, 1)
			}
			lits = append(lits, upper.Lit())
			weights = append(weights, days)
			m.AddLinearAtLeast(lits, weights, days-k+1)
		}
		m.AddObjectiveTerm(upper.Lit(), weightNightSpread)

		lower := m.NewBool()
		for _, pi := range shiftPeople {
			lits := make([]sat.Lit, 0, days+1)
			weights := make([]int, 0, days+1)
			for d := 0; d < days; d++ {
				lits = append(lits, grid.Night(pi, d).Lit())
				weights = append(weights, 1)
			}
			lits = append(lits, lower.Not())
			weights = append(weights, k)
			m.AddLinearAtLeast(lits, weights, k)
		}
		m.AddObjectiveTerm(lower.Not(), weightNightSpread)
	}
}
