package calendar

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		days    int
		wantErr bool
	}{
		{name: "september", input: "2025-09", days: 30},
		{name: "leap february", input: "2024-02", days: 29},
		{name: "normal february", input: "2025-02", days: 28},
		{name: "december", input: "2025-12", days: 31},
		{name: "bad format", input: "2025/09", wantErr: true},
		{name: "full date", input: "2025-09-01", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMonth(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Days() != tt.days {
				t.Errorf("expected %d days, got %d", tt.days, m.Days())
			}
		})
	}
}

func TestDateString(t *testing.T) {
	m, err := ParseMonth("2025-09")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.DateString(0); got != "2025-09-01" {
		t.Errorf("expected 2025-09-01, got %s", got)
	}
	if got := m.DateString(29); got != "2025-09-30" {
		t.Errorf("expected 2025-09-30, got %s", got)
	}
}

func TestClassify(t *testing.T) {
	// 2025-09-06 周六，2025-09-08 周一
	sat := time.Date(2025, 9, 6, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)

	if Classify(sat, nil) != WeekendHoliday {
		t.Error("Saturday should be weekend_holiday")
	}
	if Classify(mon, nil) != Weekday {
		t.Error("Monday should be weekday")
	}
	// 节假日清单按日号匹配
	if Classify(mon, []int{8}) != WeekendHoliday {
		t.Error("listed holiday should be weekend_holiday")
	}
	if Classify(mon, []int{17}) != Weekday {
		t.Error("unlisted weekday should stay weekday")
	}
}

func TestClassifyAll(t *testing.T) {
	m, err := ParseMonth("2025-09")
	if err != nil {
		t.Fatal(err)
	}
	// 9月17日为周三，列入节假日后应为 WeekendHoliday
	types := m.ClassifyAll([]int{17})

	weekendCount := 0
	for _, dt := range types {
		if dt == WeekendHoliday {
			weekendCount++
		}
	}
	// 2025年9月有8个周末日，加1个节假日
	if weekendCount != 9 {
		t.Errorf("expected 9 weekend/holiday days, got %d", weekendCount)
	}
	if types[16] != WeekendHoliday {
		t.Error("2025-09-17 should be weekend_holiday")
	}
}

func TestDayTypeString(t *testing.T) {
	if Weekday.String() != "weekday" {
		t.Errorf("unexpected name: %s", Weekday.String())
	}
	if WeekendHoliday.String() != "weekend_holiday" {
		t.Errorf("unexpected name: %s", WeekendHoliday.String())
	}
}
