package stats

import (
	"testing"

	"github.com/zhiban/zhiban/pkg/model"
)

func TestBuildReport(t *testing.T) {
	personnel := []model.Person{
		{ID: 1, Name: "甲", Role: model.RoleShift, RequestedLeaves: []int{1, 2}},
		{ID: 2, Name: "乙", Role: model.RoleShift},
		{ID: 3, Name: "丙", Role: model.RoleNonShift},
	}

	roster := make(model.Roster)
	roster.Add("2025-02-03", model.ShiftMorning, 1)
	roster.Add("2025-02-03", model.ShiftNight, 2)
	roster.Add("2025-02-04", model.ShiftNight, 2)
	roster.Add("2025-02-04", model.ShiftAfternoon, 1)
	roster.Add("2025-02-05", model.ShiftMorning, 3)

	report := Build(personnel, roster)

	if len(report.PerPerson) != 3 {
		t.Fatalf("expected 3 person entries, got %d", len(report.PerPerson))
	}
	// 按人员ID升序
	p1, p2, p3 := report.PerPerson[0], report.PerPerson[1], report.PerPerson[2]
	if p1.PersonID != 1 || p2.PersonID != 2 || p3.PersonID != 3 {
		t.Fatal("per-person stats should be sorted by id")
	}

	if p1.Morning != 1 || p1.Afternoon != 1 || p1.Night != 0 || p1.Total != 2 {
		t.Errorf("person 1 stats wrong: %+v", p1)
	}
	if p1.LeaveDays != 2 {
		t.Errorf("person 1 should have 2 leave days, got %d", p1.LeaveDays)
	}
	if p2.Night != 2 || p2.Total != 2 {
		t.Errorf("person 2 stats wrong: %+v", p2)
	}
	if p3.Total != 1 {
		t.Errorf("person 3 stats wrong: %+v", p3)
	}

	// 极差只统计轮班人员：甲2班乙2班 → 0；夜班 0 vs 2 → 2
	if report.TotalSpread != 0 {
		t.Errorf("expected total spread 0, got %d", report.TotalSpread)
	}
	if report.NightSpread != 2 {
		t.Errorf("expected night spread 2, got %d", report.NightSpread)
	}
	// 总量完全均衡：基尼系数为 0
	if report.Gini != 0 {
		t.Errorf("expected gini 0, got %f", report.Gini)
	}
}

func TestBuildEmptyRoster(t *testing.T) {
	personnel := []model.Person{{ID: 1, Role: model.RoleShift}}
	report := Build(personnel, make(model.Roster))

	if report.TotalSpread != 0 || report.NightSpread != 0 || report.Gini != 0 {
		t.Errorf("empty roster should yield zero statistics: %+v", report)
	}
}

func TestGini(t *testing.T) {
	if g := gini(nil); g != 0 {
		t.Errorf("nil input should be 0, got %f", g)
	}
	if g := gini([]int{4, 4, 4}); g != 0 {
		t.Errorf("equal values should be 0, got %f", g)
	}
	// 完全集中：n 个人只有 1 人有工作量，基尼趋向 (n-1)/n
	g := gini([]int{6, 0, 0})
	if g < 0.6 || g > 0.7 {
		t.Errorf("expected gini near 2/3, got %f", g)
	}
}

func TestSpread(t *testing.T) {
	if s := spread(nil); s != 0 {
		t.Errorf("expected 0, got %d", s)
	}
	if s := spread([]int{3, 7, 5}); s != 4 {
		t.Errorf("expected 4, got %d", s)
	}
}
