package scheduler

import (
	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
)

// Groups 约束组位掩码。分组不影响正确性（全部约束合取为一个可满足性问题），
// 只为按阶段裁剪约束集提供声明式入口。
type Groups uint16

const (
	// GroupStaffing 每日人力需求
	GroupStaffing Groups = 1 << iota
	// GroupExclusive 每人每日至多一个班次
	GroupExclusive
	// GroupNightCap 每人当月夜班上限
	GroupNightCap
	// GroupLeave 请假屏蔽
	GroupLeave
	// GroupRole 非轮班人员的角色限制
	GroupRole
	// GroupSequence 班次衔接规则
	GroupSequence
	// GroupConsecNight 连续夜班上限
	GroupConsecNight
	// GroupConsecWork 连续工作日上限
	GroupConsecWork
	// GroupRest 夜班后强制休息
	GroupRest
	// GroupNonShiftCap 非轮班人员总工作天数上限
	GroupNonShiftCap
)

// GroupsStrict 严格模型：全部约束组
const GroupsStrict = GroupStaffing | GroupExclusive | GroupNightCap | GroupLeave |
	GroupRole | GroupSequence | GroupConsecNight | GroupConsecWork | GroupRest | GroupNonShiftCap

// GroupsRelaxed 宽松模型：仅保留不可让步的约束组
const GroupsRelaxed = GroupExclusive | GroupLeave

// GroupsSimplified 简化模型：宽松模型加降低后的最低人力需求与非轮班上限
const GroupsSimplified = GroupExclusive | GroupLeave | GroupStaffing | GroupNonShiftCap

// Requirements 单个日类别下各班次的需求人数
type Requirements map[model.ShiftType]int

// StaffingTable 按日类别给出默认人力需求
type StaffingTable map[calendar.DayType]Requirements

// DefaultStaffing 严格模型的默认人力需求表
var DefaultStaffing = StaffingTable{
	calendar.Weekday:        {model.ShiftMorning: 1, model.ShiftAfternoon: 2, model.ShiftNight: 2},
	calendar.WeekendHoliday: {model.ShiftMorning: 2, model.ShiftAfternoon: 2, model.ShiftNight: 3},
}

// LoweredStaffing 简化模型的降低后人力需求表
var LoweredStaffing = StaffingTable{
	calendar.Weekday:        {model.ShiftMorning: 1, model.ShiftAfternoon: 1, model.ShiftNight: 1},
	calendar.WeekendHoliday: {model.ShiftMorning: 1, model.ShiftAfternoon: 1, model.ShiftNight: 2},
}

// CompileOptions 单次模型编译选项
type CompileOptions struct {
	Groups          Groups
	Staffing        StaffingTable
	MinimumStaffing bool // true 时人力需求按下限而非等式编译
	UseOverrides    bool // 是否采用按日期的人力需求覆盖
	Objective       bool // 是否编译工作量均衡目标
}

// CompileModel 将问题实例编译为一个全新的约束模型与变量网格。
// 每次调用都分配独立的网格：不同阶段的模型互不共享可变状态。
func CompileModel(prob *Problem, opts CompileOptions) (*sat.Model, *VarGrid) {
	m := sat.NewModel()
	grid := BuildVariables(m, prob.Personnel, prob.Days())

	if opts.Groups&GroupStaffing != 0 {
		compileStaffing(m, grid, prob, opts)
	}
	if opts.Groups&GroupExclusive != 0 {
		compileExclusive(m, grid)
	}
	if opts.Groups&GroupNightCap != 0 {
		compileNightCap(m, grid, prob)
	}
	if opts.Groups&GroupLeave != 0 {
		compileLeave(m, grid, prob)
	}
	if opts.Groups&GroupRole != 0 {
		compileRole(m, grid, prob)
	}
	if opts.Groups&GroupSequence != 0 {
		compileSequence(m, grid)
	}
	if opts.Groups&GroupConsecNight != 0 {
		compileConsecNight(m, grid)
	}
	if opts.Groups&GroupConsecWork != 0 {
		compileConsecWork(m, grid)
	}
	if opts.Groups&GroupRest != 0 {
		compileRest(m, grid, prob)
	}
	if opts.Groups&GroupNonShiftCap != 0 {
		compileNonShiftCap(m, grid, prob)
	}
	if opts.Objective {
		compileObjective(m, grid, prob)
	}
	return m, grid
}

// compileStaffing 每日人力需求：每个日期每个班次的排班人数
// 等于（严格模型）或不少于（简化模型）需求人数。
func compileStaffing(m *sat.Model, grid *VarGrid, prob *Problem, opts CompileOptions) {
	for d := 0; d < grid.Days(); d++ {
		defaults := opts.Staffing[prob.DayTypes[d]]
		date := prob.Month.DateString(d)
		for s, st := range model.ShiftTypes {
			required := defaults[st]
			if opts.UseOverrides {
				required = prob.Config.RequiredFor(date, st, required)
			}
			lits := make([]sat.Lit, grid.People())
			for pi := 0; pi < grid.People(); pi++ {
				lits[pi] = grid.Var(pi, d, s).Lit()
			}
			if opts.MinimumStaffing {
				m.AddAtLeast(lits, required)
			} else {
				m.AddExactly(lits, required)
			}
		}
	}
}

// compileExclusive 每人每日至多承担一个班次
func compileExclusive(m *sat.Model, grid *VarGrid) {
	for pi := 0; pi < grid.People(); pi++ {
		for d := 0; d < grid.Days(); d++ {
			m.AddAtMost(grid.DayLits(pi, d), 1)
		}
	}
}

// compileNightCap 每人当月夜班总数不超过配置上限
func compileNightCap(m *sat.Model, grid *VarGrid, prob *Problem) {
	for pi := 0; pi < grid.People(); pi++ {
		nights := make([]sat.Lit, grid.Days())
		for d := 0; d < grid.Days(); d++ {
			nights[d] = grid.Night(pi, d).Lit()
		}
		m.AddAtMost(nights, prob.Config.MaxNightShifts)
	}
}

// compileLeave 请假屏蔽：合并三类请假日，当日所有班次变量强制为假
func compileLeave(m *sat.Model, grid *VarGrid, prob *Problem) {
	for pi := range prob.Personnel {
		for day := range prob.Personnel[pi].LeaveDays() {
			d := day - 1
			if d < 0 || d >= grid.Days() {
				continue
			}
			for s := range model.ShiftTypes {
				m.AddUnit(grid.Var(pi, d, s).Not())
			}
		}
	}
}

// compileRole 非轮班人员仅能在工作日承担早班；
// 周末/节假日当日全部变量强制为假。
func compileRole(m *sat.Model, grid *VarGrid, prob *Problem) {
	for pi := range prob.Personnel {
		if prob.Personnel[pi].Role != model.RoleNonShift {
			continue
		}
		for d := 0; d < grid.Days(); d++ {
			if prob.DayTypes[d] == calendar.WeekendHoliday {
				for s := range model.ShiftTypes {
					m.AddUnit(grid.Var(pi, d, s).Not())
				}
				continue
			}
			for s, st := range model.ShiftTypes {
				if st != model.ShiftMorning {
					m.AddUnit(grid.Var(pi, d, s).Not())
				}
			}
		}
	}
}

// compileSequence 班次衔接：夜班次日不得早班或午后班，午后班次日不得早班
func compileSequence(m *sat.Model, grid *VarGrid) {
	const (
		morning   = 0
		afternoon = 1
		night     = 2
	)
	for pi := 0; pi < grid.People(); pi++ {
		for d := 0; d < grid.Days()-1; d++ {
			m.AddImplication(grid.Var(pi, d, night).Lit(), grid.Var(pi, d+1, morning).Not())
			m.AddImplication(grid.Var(pi, d, night).Lit(), grid.Var(pi, d+1, afternoon).Not())
			m.AddImplication(grid.Var(pi, d, afternoon).Lit(), grid.Var(pi, d+1, morning).Not())
		}
	}
}

// compileConsecNight 任意连续 3 天不得全为夜班
func compileConsecNight(m *sat.Model, grid *VarGrid) {
	for pi := 0; pi < grid.People(); pi++ {
		for d := 0; d+2 < grid.Days(); d++ {
			m.AddClause(
				grid.Night(pi, d).Not(),
				grid.Night(pi, d+1).Not(),
				grid.Night(pi, d+2).Not(),
			)
		}
	}
}

// compileConsecWork 任意连续 6 天内的排班总数不超过 5（避免 6 天以上连班）
func compileConsecWork(m *sat.Model, grid *VarGrid) {
	const window = 6
	for pi := 0; pi < grid.People(); pi++ {
		for d := 0; d+window <= grid.Days(); d++ {
			lits := make([]sat.Lit, 0, window*len(model.ShiftTypes))
			for i := 0; i < window; i++ {
				lits = append(lits, grid.DayLits(pi, d+i)...)
			}
			m.AddAtMost(lits, window-1)
		}
	}
}

// compileRest 夜班后强制休息。
// 孤立单夜班（前后均非夜班）次日强制空班；孤立双连夜班在夜班对
// 结束后的连续两天强制空班。模式通过指示变量的双向等价表达，
// 再由指示变量蕴含对应日的空班约束。
// 若休息日本身已是该人员的请假日则跳过（请假屏蔽已强制空班）。
func compileRest(m *sat.Model, grid *VarGrid, prob *Problem) {
	for pi := range prob.Personnel {
		leaves := prob.Personnel[pi].LeaveDays()

		forceOff := func(ind sat.Var, day int) {
			if day >= grid.Days() {
				return
			}
			if _, onLeave := leaves[day+1]; onLeave {
				return
			}
			for s := range model.ShiftTypes {
				m.AddImplication(ind.Lit(), grid.Var(pi, day, s).Not())
			}
		}

		// 孤立单夜班：M(d) ∧ ¬M(d−1) ∧ ¬M(d+1) → d+1 空班
		for d := 0; d+1 < grid.Days(); d++ {
			pattern := []sat.Lit{grid.Night(pi, d).Lit(), grid.Night(pi, d+1).Not()}
			if d > 0 {
				pattern = append(pattern, grid.Night(pi, d-1).Not())
			}
			ind := m.NewBool()
			m.AddBoolAndEquiv(ind, pattern...)
			forceOff(ind, d+1)
		}

		// 孤立双连夜班：M(d) ∧ M(d+1) ∧ ¬M(d−1) ∧ ¬M(d+2) → d+2、d+3 空班
		for d := 0; d+2 < grid.Days(); d++ {
			pattern := []sat.Lit{grid.Night(pi, d).Lit(), grid.Night(pi, d+1).Lit()}
			if d > 0 {
				pattern = append(pattern, grid.Night(pi, d-1).Not())
			}
			if d+2 < grid.Days() {
				pattern = append(pattern, grid.Night(pi, d+2).Not())
			}
			ind := m.NewBool()
			m.AddBoolAndEquiv(ind, pattern...)
			forceOff(ind, d+2)
			forceOff(ind, d+3)
		}
	}
}

// compileNonShiftCap 非轮班人员当月总工作天数上限。
// 每日引入“当日在岗”指示变量，对指示变量求和设上限。
func compileNonShiftCap(m *sat.Model, grid *VarGrid, prob *Problem) {
	if prob.Config.MaxNonShift == nil {
		return
	}
	cap := *prob.Config.MaxNonShift
	for pi := range prob.Personnel {
		if prob.Personnel[pi].Role != model.RoleNonShift {
			continue
		}
		working := make([]sat.Lit, grid.Days())
		for d := 0; d < grid.Days(); d++ {
			ind := m.NewBool()
			m.AddBoolOrEquiv(ind, grid.DayLits(pi, d)...)
			working[d] = ind.Lit()
		}
		m.AddAtMost(working, cap)
	}
}
