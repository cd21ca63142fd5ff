// Package scheduler 实现排班问题的约束模型编译与求解编排
package scheduler

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
)

// Problem 一次排班求解的只读输入：人员、配置与展开后的月历。
// 构建后不再修改；决策变量网格按次生成并在提取后丢弃。
type Problem struct {
	Personnel []model.Person
	Config    model.ScheduleConfig
	Month     calendar.Month
	DayTypes  []calendar.DayType
}

// NewProblem 由排班请求构建问题实例
func NewProblem(req model.ScheduleRequest) (*Problem, error) {
	month, err := calendar.ParseMonth(req.Config.Month)
	if err != nil {
		return nil, err
	}
	if len(req.Personnel) == 0 {
		return nil, fmt.Errorf("人员列表不能为空")
	}
	return &Problem{
		Personnel: req.Personnel,
		Config:    req.Config,
		Month:     month,
		DayTypes:  month.ClassifyAll(req.Config.PublicHolidays),
	}, nil
}

// Days 返回当月天数
func (p *Problem) Days() int {
	return p.Month.Days()
}

// VarGrid 决策变量网格：每个 (人员, 日, 班次类型) 三元组一个布尔变量。
// true 表示该人员当日承担该班次。
type VarGrid struct {
	days int
	vars [][][3]sat.Var // [人员序][日序][班次序]
}

// BuildVariables 为整月分配 |人员|×|天数|×3 个布尔决策变量
func BuildVariables(m *sat.Model, personnel []model.Person, days int) *VarGrid {
	grid := &VarGrid{
		days: days,
		vars: make([][][3]sat.Var, len(personnel)),
	}
	for pi := range personnel {
		grid.vars[pi] = make([][3]sat.Var, days)
		for d := 0; d < days; d++ {
			for s := 0; s < len(model.ShiftTypes); s++ {
				grid.vars[pi][d][s] = m.NewBool()
			}
		}
	}
	return grid
}

// Var 返回 (人员序, 日序, 班次序) 的决策变量
func (g *VarGrid) Var(person, day, shift int) sat.Var {
	return g.vars[person][day][shift]
}

// Night 返回某人某日的夜班变量
func (g *VarGrid) Night(person, day int) sat.Var {
	return g.vars[person][day][model.NightShiftIndex]
}

// DayLits 返回某人某日全部班次的正文字
func (g *VarGrid) DayLits(person, day int) []sat.Lit {
	lits := make([]sat.Lit, len(model.ShiftTypes))
	for s := range model.ShiftTypes {
		lits[s] = g.vars[person][day][s].Lit()
	}
	return lits
}

// People 返回人员数
func (g *VarGrid) People() int {
	return len(g.vars)
}

// Days 返回天数
func (g *VarGrid) Days() int {
	return g.days
}
