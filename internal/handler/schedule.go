// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/stats"
	"github.com/zhiban/zhiban/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	orchestrator *scheduler.Orchestrator
	timeout      time.Duration
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(orch *scheduler.Orchestrator, timeout time.Duration) *ScheduleHandler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ScheduleHandler{orchestrator: orch, timeout: timeout}
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	ScheduleID string                    `json:"schedule_id"`
	Schedule   model.Roster              `json:"schedule"`
	Status     string                    `json:"status"`
	Stage      string                    `json:"stage"`
	Degraded   bool                      `json:"degraded"`
	Warnings   []string                  `json:"warnings,omitempty"`
	Statistics *stats.Report             `json:"statistics"`
	Attempts   []scheduler.AttemptReport `json:"attempts"`
	Duration   string                    `json:"duration"`
}

// Generate 生成当月值班表
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req model.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateScheduleRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	// 结构性预检：需求人数明显超出可用人数时直接拒绝
	val, verr := validator.New(req)
	if verr != nil {
		respondError(w, errors.Wrap(verr, errors.CodeInvalidInput, "请求无效"))
		return
	}
	required := func(date string, shift model.ShiftType, dt calendar.DayType) int {
		return req.Config.RequiredFor(date, shift, scheduler.DefaultStaffing[dt][shift])
	}
	if suggestions := val.Precheck(required); len(suggestions) > 0 {
		respondError(w, errors.Infeasible("人力需求超出可用人数，无法排班").WithSuggestions(suggestions...))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	metrics.SolveStarted()
	defer metrics.SolveFinished()

	start := time.Now()
	outcome, err := h.orchestrator.Generate(ctx, req)
	if err != nil {
		appErr := errors.AsAppError(err)
		logger.WithContext(r.Context()).Error().
			Str("code", string(appErr.Code)).
			Err(err).
			Msg("排班生成失败")
		metrics.RecordScheduleGeneration("failed", false, time.Since(start))
		respondError(w, appErr)
		return
	}

	report := stats.Build(req.Personnel, outcome.Roster)
	if outcome.Degraded {
		metrics.RecordDegradation(outcome.Stage.String())
	}
	metrics.RecordScheduleGeneration(outcome.Stage.String(), true, time.Since(start))
	metrics.SetWorkloadGini("total", report.Gini)

	respondJSON(w, http.StatusOK, GenerateResponse{
		ScheduleID: outcome.ScheduleID,
		Schedule:   outcome.Roster,
		Status:     outcome.Status.String(),
		Stage:      outcome.Stage.String(),
		Degraded:   outcome.Degraded,
		Warnings:   outcome.Warnings,
		Statistics: report,
		Attempts:   outcome.Attempts,
		Duration:   time.Since(start).String(),
	})
}

// validateScheduleRequest 验证排班请求
func validateScheduleRequest(req *model.ScheduleRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	month, err := calendar.ParseMonth(req.Config.Month)
	if err != nil {
		ve.Add("config.month", "月份格式无效，应为YYYY-MM")
	}
	days := month.Days()

	if len(req.Personnel) == 0 {
		ve.Add("personnel", "人员列表不能为空")
	}
	seen := make(map[int]struct{}, len(req.Personnel))
	for i := range req.Personnel {
		p := &req.Personnel[i]
		if _, dup := seen[p.ID]; dup {
			ve.Add("personnel", "人员ID重复: "+strconv.Itoa(p.ID))
		}
		seen[p.ID] = struct{}{}
		if !p.Role.Valid() {
			ve.Add("personnel", "人员 "+strconv.Itoa(p.ID)+" 角色无效: "+string(p.Role))
		}
		if days > 0 {
			for day := range p.LeaveDays() {
				if day < 1 || day > days {
					ve.Add("personnel", "人员 "+strconv.Itoa(p.ID)+" 的请假日 "+strconv.Itoa(day)+" 超出当月范围")
				}
			}
		}
	}

	if req.Config.MaxNightShifts < 0 {
		ve.Add("config.max_night_shifts", "夜班上限不能为负")
	}
	if req.Config.MaxNonShift != nil && *req.Config.MaxNonShift < 0 {
		ve.Add("config.max_non_shift", "非轮班工作天数上限不能为负")
	}
	for _, h := range req.Config.PublicHolidays {
		if days > 0 && (h < 1 || h > days) {
			ve.Add("config.public_holidays", "节假日 "+strconv.Itoa(h)+" 超出当月范围")
		}
	}
	for date, override := range req.Config.SpecialDates {
		t, err := time.Parse(calendar.DateFormat, date)
		if err != nil {
			ve.Add("config.special_dates", "日期格式无效: "+date)
			continue
		}
		if days > 0 && (t.Year() != month.Year || t.Month() != month.Month) {
			ve.Add("config.special_dates", "日期不在目标月份内: "+date)
		}
		for shift, n := range override {
			if shift != string(model.ShiftMorning) && shift != string(model.ShiftAfternoon) && shift != string(model.ShiftNight) {
				ve.Add("config.special_dates", date+" 含未知班次类型: "+shift)
			}
			if n < 0 {
				ve.Add("config.special_dates", date+" 的需求人数不能为负")
			}
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       err.Code,
		"message":     err.Message,
		"details":     err.Details,
		"suggestions": err.Suggestions,
	})
}
