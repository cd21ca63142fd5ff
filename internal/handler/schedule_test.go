package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

func newTestHandler() *ScheduleHandler {
	engine := sat.NewGophersatEngine()
	plan := scheduler.DefaultPlan(10*time.Second, 1, 1)
	return NewScheduleHandler(scheduler.NewOrchestrator(engine, plan), 2*time.Minute)
}

func postSchedule(t *testing.T, h *ScheduleHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/generate-schedule", &buf)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	return rec
}

// tinyRequest 整月需求清零，只在个别日期安排少量班次
func tinyRequest(t *testing.T) model.ScheduleRequest {
	t.Helper()
	m, err := calendar.ParseMonth("2025-02")
	if err != nil {
		t.Fatal(err)
	}
	overrides := make(map[string]map[string]int, m.Days())
	for i := 0; i < m.Days(); i++ {
		overrides[m.DateString(i)] = map[string]int{}
	}
	overrides["2025-02-03"] = map[string]int{"P": 1}
	overrides["2025-02-04"] = map[string]int{"M": 1}

	return model.ScheduleRequest{
		Personnel: []model.Person{
			{ID: 1, Name: "甲", Role: model.RoleShift},
			{ID: 2, Name: "乙", Role: model.RoleShift},
		},
		Config: model.ScheduleConfig{
			Month:          "2025-02",
			MaxNightShifts: 9,
			SpecialDates:   overrides,
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	h := newTestHandler()
	rec := postSchedule(t, h, tinyRequest(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ScheduleID == "" {
		t.Error("schedule_id should be set")
	}
	if len(resp.Schedule) != 28 {
		t.Errorf("schedule should cover 28 dates, got %d", len(resp.Schedule))
	}
	if resp.Status != "OPTIMAL" && resp.Status != "FEASIBLE" {
		t.Errorf("unexpected status %s", resp.Status)
	}
	if resp.Degraded {
		t.Error("tiny feasible request should not degrade")
	}
	if resp.Statistics == nil {
		t.Fatal("statistics should be present")
	}
	if len(resp.Schedule["2025-02-03"].P) != 1 {
		t.Errorf("expected 1 morning on 02-03, got %d", len(resp.Schedule["2025-02-03"].P))
	}
	if len(resp.Schedule["2025-02-04"].M) != 1 {
		t.Errorf("expected 1 night on 02-04, got %d", len(resp.Schedule["2025-02-04"].M))
	}
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/generate-schedule", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGenerate_BadJSON(t *testing.T) {
	h := newTestHandler()
	rec := postSchedule(t, h, "{not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_INPUT") {
		t.Errorf("expected INVALID_INPUT in body: %s", rec.Body.String())
	}
}

func TestGenerate_ValidationFailures(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name   string
		mutate func(*model.ScheduleRequest)
		substr string
	}{
		{
			name:   "bad month",
			mutate: func(r *model.ScheduleRequest) { r.Config.Month = "2025/02" },
			substr: "month",
		},
		{
			name:   "empty personnel",
			mutate: func(r *model.ScheduleRequest) { r.Personnel = nil },
			substr: "personnel",
		},
		{
			name: "duplicate ids",
			mutate: func(r *model.ScheduleRequest) {
				r.Personnel = append(r.Personnel, model.Person{ID: 1, Name: "丙", Role: model.RoleShift})
			},
			substr: "personnel",
		},
		{
			name: "invalid role",
			mutate: func(r *model.ScheduleRequest) {
				r.Personnel[0].Role = "manager"
			},
			substr: "personnel",
		},
		{
			name: "leave outside month",
			mutate: func(r *model.ScheduleRequest) {
				r.Personnel[0].RequestedLeaves = []int{31}
			},
			substr: "personnel",
		},
		{
			name:   "negative night cap",
			mutate: func(r *model.ScheduleRequest) { r.Config.MaxNightShifts = -1 },
			substr: "max_night_shifts",
		},
		{
			name: "special date outside month",
			mutate: func(r *model.ScheduleRequest) {
				r.Config.SpecialDates["2025-03-01"] = map[string]int{"P": 1}
			},
			substr: "special_dates",
		},
		{
			name: "unknown shift type in override",
			mutate: func(r *model.ScheduleRequest) {
				r.Config.SpecialDates["2025-02-10"] = map[string]int{"X": 1}
			},
			substr: "special_dates",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tinyRequest(t)
			tt.mutate(&req)
			rec := postSchedule(t, h, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), "VALIDATION_FAILED") {
				t.Errorf("expected VALIDATION_FAILED, got %s", rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.substr) {
				t.Errorf("details should mention %s: %s", tt.substr, rec.Body.String())
			}
		})
	}
}

func TestGenerate_StructuralInfeasible(t *testing.T) {
	h := newTestHandler()

	// 默认人力需求下单人排班明显不够：预检应直接返回 422
	req := model.ScheduleRequest{
		Personnel: []model.Person{{ID: 1, Name: "甲", Role: model.RoleShift}},
		Config:    model.ScheduleConfig{Month: "2025-02", MaxNightShifts: 9},
	}
	rec := postSchedule(t, h, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error       string   `json:"error"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "INFEASIBLE" {
		t.Errorf("expected INFEASIBLE, got %s", body.Error)
	}
	if len(body.Suggestions) == 0 {
		t.Error("422 response should carry suggestions")
	}
}

func TestGenerate_AllOnLeave(t *testing.T) {
	h := newTestHandler()

	// 整月需求清零但所有人同日请假：仍应正常出表（空班次）
	req := tinyRequest(t)
	req.Config.SpecialDates["2025-02-03"] = map[string]int{}
	req.Config.SpecialDates["2025-02-04"] = map[string]int{}
	for i := range req.Personnel {
		req.Personnel[i].RequestedLeaves = []int{10}
	}
	rec := postSchedule(t, h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// 请假日必须为空
	day := resp.Schedule["2025-02-10"]
	if day == nil || len(day.P)+len(day.S)+len(day.M) != 0 {
		t.Errorf("leave day should be empty, got %+v", day)
	}
}
