package model

// ScheduleConfig 单月排班配置
type ScheduleConfig struct {
	// Month 目标月份，格式 YYYY-MM
	Month string `json:"month"`
	// PublicHolidays 当月法定节假日（日号）
	PublicHolidays []int `json:"public_holidays"`
	// MaxNightShifts 每人当月夜班上限
	MaxNightShifts int `json:"max_night_shifts"`
	// SpecialDates 按日期覆盖人力需求：日期 → {班次类型 → 需求人数}。
	// 覆盖后整张默认表失效，未列出的班次类型需求为 0。
	SpecialDates map[string]map[string]int `json:"special_dates,omitempty"`
	// MaxNonShift 非轮班人员当月总工作天数上限；nil 表示不设上限
	MaxNonShift *int `json:"max_non_shift,omitempty"`
}

// ScheduleRequest 排班请求
type ScheduleRequest struct {
	Personnel []Person       `json:"personnel"`
	Config    ScheduleConfig `json:"config"`
}

// RequiredFor 返回某日期某班次的需求人数。
// 存在按日期覆盖时使用覆盖值（缺失的班次类型为 0），否则返回 fallback。
func (c *ScheduleConfig) RequiredFor(date string, shift ShiftType, fallback int) int {
	if override, ok := c.SpecialDates[date]; ok {
		return override[string(shift)]
	}
	return fallback
}

// HasOverride 检查某日期是否存在人力需求覆盖
func (c *ScheduleConfig) HasOverride(date string) bool {
	_, ok := c.SpecialDates[date]
	return ok
}
