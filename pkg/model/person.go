// Package model 定义排班引擎的核心数据模型
package model

// ShiftType 班次类型
type ShiftType string

const (
	ShiftMorning   ShiftType = "P" // 早班
	ShiftAfternoon ShiftType = "S" // 午后班
	ShiftNight     ShiftType = "M" // 夜班
)

// ShiftTypes 班次类型的固定顺序（与决策变量的第三维索引一致）
var ShiftTypes = [3]ShiftType{ShiftMorning, ShiftAfternoon, ShiftNight}

// NightShiftIndex 夜班在 ShiftTypes 中的索引
const NightShiftIndex = 2

// Role 人员角色
type Role string

const (
	RoleShift    Role = "shift"     // 轮班人员
	RoleNonShift Role = "non_shift" // 非轮班人员（仅工作日早班）
)

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	return r == RoleShift || r == RoleNonShift
}

// Person 医护人员
// 在一次求解过程中不可变；三类请假日合并后统一用于屏蔽排班，
// 区分存储仅为报表需要。
type Person struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Role            Role   `json:"role"`
	RequestedLeaves []int  `json:"requested_leaves,omitempty"`
	ExtraLeaves     []int  `json:"extra_leaves,omitempty"`
	AnnualLeaves    []int  `json:"annual_leaves,omitempty"`
}

// LeaveDays 返回合并后的请假日集合（自然月内的日号）
func (p *Person) LeaveDays() map[int]struct{} {
	days := make(map[int]struct{}, len(p.RequestedLeaves)+len(p.ExtraLeaves)+len(p.AnnualLeaves))
	for _, group := range [][]int{p.RequestedLeaves, p.ExtraLeaves, p.AnnualLeaves} {
		for _, d := range group {
			days[d] = struct{}{}
		}
	}
	return days
}

// OnLeave 检查某日号是否为该人员的请假日
func (p *Person) OnLeave(day int) bool {
	_, ok := p.LeaveDays()[day]
	return ok
}
