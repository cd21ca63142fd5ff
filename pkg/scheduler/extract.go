package scheduler

import (
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
)

// Extract 将求解赋值还原为逐日排班表。
// 每个日期都先初始化空班次列表，保证输出覆盖整月。
func Extract(prob *Problem, grid *VarGrid, values []bool) model.Roster {
	roster := make(model.Roster, prob.Days())
	for d := 0; d < prob.Days(); d++ {
		roster[prob.Month.DateString(d)] = model.NewDayRoster()
	}
	for pi := range prob.Personnel {
		id := prob.Personnel[pi].ID
		for d := 0; d < grid.Days(); d++ {
			for s, st := range model.ShiftTypes {
				if sat.Value(values, grid.Var(pi, d, s)) {
					roster.Add(prob.Month.DateString(d), st, id)
				}
			}
		}
	}
	return roster
}
