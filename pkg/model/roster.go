package model

import "sort"

// DayRoster 单日值班表：每个班次类型对应一组人员ID
type DayRoster struct {
	P []int `json:"P"`
	S []int `json:"S"`
	M []int `json:"M"`
}

// NewDayRoster 创建空的单日值班表。
// 三个集合初始化为空切片而非 nil，保证 JSON 序列化输出 [] 而不是 null。
func NewDayRoster() *DayRoster {
	return &DayRoster{P: []int{}, S: []int{}, M: []int{}}
}

// Shift 返回指定班次类型的人员ID集合
func (d *DayRoster) Shift(s ShiftType) []int {
	switch s {
	case ShiftMorning:
		return d.P
	case ShiftAfternoon:
		return d.S
	case ShiftNight:
		return d.M
	}
	return nil
}

// Contains 检查某人员是否在该日任一班次中
func (d *DayRoster) Contains(personID int) bool {
	for _, st := range ShiftTypes {
		for _, id := range d.Shift(st) {
			if id == personID {
				return true
			}
		}
	}
	return false
}

// Roster 月度值班表：日期字符串 → 单日值班表
type Roster map[string]*DayRoster

// Add 将人员追加到某日期某班次
func (r Roster) Add(date string, shift ShiftType, personID int) {
	day, ok := r[date]
	if !ok {
		day = NewDayRoster()
		r[date] = day
	}
	switch shift {
	case ShiftMorning:
		day.P = append(day.P, personID)
	case ShiftAfternoon:
		day.S = append(day.S, personID)
	case ShiftNight:
		day.M = append(day.M, personID)
	}
}

// Dates 返回值班表覆盖的所有日期（升序）
func (r Roster) Dates() []string {
	dates := make([]string, 0, len(r))
	for d := range r {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
