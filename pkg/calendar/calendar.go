// Package calendar 提供月历展开与日类别判定
package calendar

import (
	"fmt"
	"time"
)

// DayType 日类别
type DayType int

const (
	// Weekday 工作日
	Weekday DayType = iota
	// WeekendHoliday 周末或法定节假日
	WeekendHoliday
)

// String 返回日类别名称
func (t DayType) String() string {
	if t == WeekendHoliday {
		return "weekend_holiday"
	}
	return "weekday"
}

// DateFormat 日期字符串格式
const DateFormat = "2006-01-02"

// Month 目标月份及其展开后的有序日期序列
type Month struct {
	Year  int
	Month time.Month
	Dates []time.Time
}

// ParseMonth 解析 YYYY-MM 格式的月份并展开为逐日日期
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("月份格式无效（应为 YYYY-MM）: %w", err)
	}

	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	numDays := first.AddDate(0, 1, -1).Day()

	m := Month{Year: t.Year(), Month: t.Month(), Dates: make([]time.Time, numDays)}
	for i := 0; i < numDays; i++ {
		m.Dates[i] = first.AddDate(0, 0, i)
	}
	return m, nil
}

// Days 返回当月天数
func (m Month) Days() int {
	return len(m.Dates)
}

// DateString 返回第 i 天（0 起）的日期字符串
func (m Month) DateString(i int) string {
	return m.Dates[i].Format(DateFormat)
}

// Classify 判定日类别：周六、周日或列入节假日清单的日号为 WeekendHoliday
func Classify(d time.Time, holidays []int) DayType {
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return WeekendHoliday
	}
	for _, h := range holidays {
		if d.Day() == h {
			return WeekendHoliday
		}
	}
	return Weekday
}

// ClassifyAll 对整月逐日判定日类别
func (m Month) ClassifyAll(holidays []int) []DayType {
	types := make([]DayType, len(m.Dates))
	for i, d := range m.Dates {
		types[i] = Classify(d, holidays)
	}
	return types
}
