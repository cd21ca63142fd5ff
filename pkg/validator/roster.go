// Package validator 提供排班结果校验与请求结构性预检
package validator

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// Violation 一条校验违例
type Violation struct {
	Rule     string `json:"rule"`
	Date     string `json:"date,omitempty"`
	PersonID int    `json:"person_id,omitempty"`
	Message  string `json:"message"`
}

// RequiredFunc 给出某日期某班次的需求人数
type RequiredFunc func(date string, shift model.ShiftType, dayType calendar.DayType) int

// Validator 针对一次排班请求的校验器
type Validator struct {
	personnel []model.Person
	config    model.ScheduleConfig
	month     calendar.Month
	dayTypes  []calendar.DayType
	leaves    map[int]map[int]struct{} // 人员ID → 请假日集合
	roles     map[int]model.Role
}

// New 由排班请求构建校验器
func New(req model.ScheduleRequest) (*Validator, error) {
	month, err := calendar.ParseMonth(req.Config.Month)
	if err != nil {
		return nil, err
	}
	v := &Validator{
		personnel: req.Personnel,
		config:    req.Config,
		month:     month,
		dayTypes:  month.ClassifyAll(req.Config.PublicHolidays),
		leaves:    make(map[int]map[int]struct{}, len(req.Personnel)),
		roles:     make(map[int]model.Role, len(req.Personnel)),
	}
	for i := range req.Personnel {
		p := &req.Personnel[i]
		v.leaves[p.ID] = p.LeaveDays()
		v.roles[p.ID] = p.Role
	}
	return v, nil
}

// assignments 展开值班表：人员ID → 日序(0起) → 班次类型
func (v *Validator) assignments(roster model.Roster) map[int]map[int][]model.ShiftType {
	out := make(map[int]map[int][]model.ShiftType)
	for d := 0; d < v.month.Days(); d++ {
		day, ok := roster[v.month.DateString(d)]
		if !ok {
			continue
		}
		for _, st := range model.ShiftTypes {
			for _, id := range day.Shift(st) {
				if out[id] == nil {
					out[id] = make(map[int][]model.ShiftType)
				}
				out[id][d] = append(out[id][d], st)
			}
		}
	}
	return out
}

// CheckLeave 校验请假屏蔽：请假日当天不得出现在任何班次中。
// 这是降级阶段产出值班表前的最后一道闸。
func (v *Validator) CheckLeave(roster model.Roster) []Violation {
	var out []Violation
	for d := 0; d < v.month.Days(); d++ {
		date := v.month.DateString(d)
		day, ok := roster[date]
		if !ok {
			continue
		}
		for _, st := range model.ShiftTypes {
			for _, id := range day.Shift(st) {
				if _, onLeave := v.leaves[id][d+1]; onLeave {
					out = append(out, Violation{
						Rule:     "leave",
						Date:     date,
						PersonID: id,
						Message:  fmt.Sprintf("人员 %d 在请假日 %s 被排入 %s 班", id, date, st),
					})
				}
			}
		}
	}
	return out
}

// CheckExclusive 校验每人每日至多一个班次
func (v *Validator) CheckExclusive(roster model.Roster) []Violation {
	var out []Violation
	for id, byDay := range v.assignments(roster) {
		for d, shifts := range byDay {
			if len(shifts) > 1 {
				out = append(out, Violation{
					Rule:     "exclusive",
					Date:     v.month.DateString(d),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 当日被排入 %d 个班次", id, len(shifts)),
				})
			}
		}
	}
	return out
}

// CheckStaffing 按给定需求函数校验每日各班次的人数是否恰好满足
func (v *Validator) CheckStaffing(roster model.Roster, required RequiredFunc) []Violation {
	var out []Violation
	for d := 0; d < v.month.Days(); d++ {
		date := v.month.DateString(d)
		day := roster[date]
		for _, st := range model.ShiftTypes {
			want := required(date, st, v.dayTypes[d])
			got := 0
			if day != nil {
				got = len(day.Shift(st))
			}
			if got != want {
				out = append(out, Violation{
					Rule:    "staffing",
					Date:    date,
					Message: fmt.Sprintf("%s 班需求 %d 人，实排 %d 人", st, want, got),
				})
			}
		}
	}
	return out
}

// CheckNightCap 校验每人当月夜班总数不超过上限
func (v *Validator) CheckNightCap(roster model.Roster) []Violation {
	counts := make(map[int]int)
	for d := 0; d < v.month.Days(); d++ {
		if day := roster[v.month.DateString(d)]; day != nil {
			for _, id := range day.M {
				counts[id]++
			}
		}
	}
	var out []Violation
	for id, n := range counts {
		if n > v.config.MaxNightShifts {
			out = append(out, Violation{
				Rule:     "night_cap",
				PersonID: id,
				Message:  fmt.Sprintf("人员 %d 夜班 %d 次，超过上限 %d", id, n, v.config.MaxNightShifts),
			})
		}
	}
	return out
}

// CheckRole 校验非轮班人员仅在工作日承担早班
func (v *Validator) CheckRole(roster model.Roster) []Violation {
	var out []Violation
	for d := 0; d < v.month.Days(); d++ {
		date := v.month.DateString(d)
		day := roster[date]
		if day == nil {
			continue
		}
		for _, st := range model.ShiftTypes {
			for _, id := range day.Shift(st) {
				if v.roles[id] != model.RoleNonShift {
					continue
				}
				if v.dayTypes[d] == calendar.WeekendHoliday || st != model.ShiftMorning {
					out = append(out, Violation{
						Rule:     "role",
						Date:     date,
						PersonID: id,
						Message:  fmt.Sprintf("非轮班人员 %d 被排入 %s 的 %s 班", id, date, st),
					})
				}
			}
		}
	}
	return out
}

// CheckSequence 校验班次衔接：夜班次日不得早班/午后班，午后班次日不得早班
func (v *Validator) CheckSequence(roster model.Roster) []Violation {
	var out []Violation
	byPerson := v.assignments(roster)
	has := func(shifts []model.ShiftType, st model.ShiftType) bool {
		for _, s := range shifts {
			if s == st {
				return true
			}
		}
		return false
	}
	for id, byDay := range byPerson {
		for d := 0; d < v.month.Days()-1; d++ {
			today, tomorrow := byDay[d], byDay[d+1]
			if has(today, model.ShiftNight) && (has(tomorrow, model.ShiftMorning) || has(tomorrow, model.ShiftAfternoon)) {
				out = append(out, Violation{
					Rule:     "sequence",
					Date:     v.month.DateString(d + 1),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 夜班次日被排入早班或午后班", id),
				})
			}
			if has(today, model.ShiftAfternoon) && has(tomorrow, model.ShiftMorning) {
				out = append(out, Violation{
					Rule:     "sequence",
					Date:     v.month.DateString(d + 1),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 午后班次日被排入早班", id),
				})
			}
		}
	}
	return out
}

// CheckConsecutive 校验连续性规则：
// 不得连续 3 天夜班；任意连续 6 天内排班不超过 5 天。
func (v *Validator) CheckConsecutive(roster model.Roster) []Violation {
	var out []Violation
	byPerson := v.assignments(roster)
	for id, byDay := range byPerson {
		for d := 0; d+2 < v.month.Days(); d++ {
			nights := 0
			for i := 0; i < 3; i++ {
				for _, st := range byDay[d+i] {
					if st == model.ShiftNight {
						nights++
						break
					}
				}
			}
			if nights == 3 {
				out = append(out, Violation{
					Rule:     "consecutive_nights",
					Date:     v.month.DateString(d),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 自 %s 起连续 3 天夜班", id, v.month.DateString(d)),
				})
			}
		}
		const window = 6
		for d := 0; d+window <= v.month.Days(); d++ {
			working := 0
			for i := 0; i < window; i++ {
				if len(byDay[d+i]) > 0 {
					working++
				}
			}
			if working > window-1 {
				out = append(out, Violation{
					Rule:     "consecutive_work",
					Date:     v.month.DateString(d),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 自 %s 起连续 %d 天排班", id, v.month.DateString(d), working),
				})
			}
		}
	}
	return out
}

// CheckRest 校验夜班后强制休息：
// 孤立单夜班次日空班；孤立双连夜班后两日空班。
// 休息日与本人请假日重合时不重复要求（请假已清空当日）。
func (v *Validator) CheckRest(roster model.Roster) []Violation {
	var out []Violation
	byPerson := v.assignments(roster)
	for id, byDay := range byPerson {
		night := func(d int) bool {
			for _, st := range byDay[d] {
				if st == model.ShiftNight {
					return true
				}
			}
			return false
		}
		mustRest := func(d int) {
			if d >= v.month.Days() {
				return
			}
			if _, onLeave := v.leaves[id][d+1]; onLeave {
				return
			}
			if len(byDay[d]) > 0 {
				out = append(out, Violation{
					Rule:     "rest",
					Date:     v.month.DateString(d),
					PersonID: id,
					Message:  fmt.Sprintf("人员 %d 夜班后的休息日 %s 被排班", id, v.month.DateString(d)),
				})
			}
		}
		for d := 0; d < v.month.Days(); d++ {
			if !night(d) || (d > 0 && night(d-1)) {
				continue
			}
			if d+1 < v.month.Days() && night(d+1) {
				// 双连夜班：第三夜由连续夜班规则拦截，这里只管休息窗口
				if d+2 < v.month.Days() && night(d+2) {
					continue
				}
				mustRest(d + 2)
				mustRest(d + 3)
				continue
			}
			mustRest(d + 1)
		}
	}
	return out
}

// CheckStrict 执行除人力需求外的全部严格规则校验
func (v *Validator) CheckStrict(roster model.Roster) []Violation {
	var out []Violation
	out = append(out, v.CheckLeave(roster)...)
	out = append(out, v.CheckExclusive(roster)...)
	out = append(out, v.CheckNightCap(roster)...)
	out = append(out, v.CheckRole(roster)...)
	out = append(out, v.CheckSequence(roster)...)
	out = append(out, v.CheckConsecutive(roster)...)
	out = append(out, v.CheckRest(roster)...)
	return out
}
