package validator

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// Precheck 对请求做结构性可行性预检：逐日比较需求人数与
// 可用（未请假且角色允许）的人员数。预检只能发现明显缺口，
// 通过预检不代表模型可行；发现缺口时给出面向用户的调整建议。
func (v *Validator) Precheck(required RequiredFunc) []string {
	var suggestions []string
	for d := 0; d < v.month.Days(); d++ {
		date := v.month.DateString(d)
		dt := v.dayTypes[d]

		totalRequired := 0
		nightRequired := 0
		for _, st := range model.ShiftTypes {
			n := required(date, st, dt)
			totalRequired += n
			if st == model.ShiftNight {
				nightRequired = n
			}
		}

		available := 0
		shiftAvailable := 0
		for i := range v.personnel {
			p := &v.personnel[i]
			if _, onLeave := v.leaves[p.ID][d+1]; onLeave {
				continue
			}
			if p.Role == model.RoleShift {
				available++
				shiftAvailable++
				continue
			}
			// 非轮班人员仅能承担工作日早班
			if dt == calendar.Weekday {
				available++
			}
		}

		if totalRequired > available {
			suggestions = append(suggestions,
				fmt.Sprintf("%s 需求 %d 人但当日仅 %d 人可用，请减少当日请假或降低需求", date, totalRequired, available))
		}
		if nightRequired > shiftAvailable {
			suggestions = append(suggestions,
				fmt.Sprintf("%s 夜班需求 %d 人但当日仅 %d 名轮班人员可用", date, nightRequired, shiftAvailable))
		}
	}

	// 月度夜班总量与上限的粗检
	shiftCount := 0
	for i := range v.personnel {
		if v.personnel[i].Role == model.RoleShift {
			shiftCount++
		}
	}
	if v.config.MaxNightShifts > 0 && shiftCount > 0 {
		totalNights := 0
		for d := 0; d < v.month.Days(); d++ {
			totalNights += required(v.month.DateString(d), model.ShiftNight, v.dayTypes[d])
		}
		if totalNights > shiftCount*v.config.MaxNightShifts {
			suggestions = append(suggestions,
				fmt.Sprintf("当月夜班总需求 %d 超过 %d 名轮班人员 × 上限 %d，请提高夜班上限或增加人员",
					totalNights, shiftCount, v.config.MaxNightShifts))
		}
	}
	return suggestions
}
