package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/calendar"
	apperrors "github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
	"github.com/zhiban/zhiban/pkg/validator"
)

// AttemptReport 单次求解尝试的摘要，随响应返回便于排查
type AttemptReport struct {
	Stage    string        `json:"stage"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration_ms"`
	Cost     int           `json:"cost,omitempty"`
	Rounds   int           `json:"rounds,omitempty"`
}

// Outcome 一次排班求解的最终产出
type Outcome struct {
	ScheduleID string
	Roster     model.Roster
	Stage      Stage
	Status     sat.Status
	Degraded   bool
	Warnings   []string
	Attempts   []AttemptReport
}

// Orchestrator 级联降级求解编排器。
// 按阶段计划依次尝试：严格模型三轮 → 宽松模型（必要时重试）→ 简化模型。
// 严格模型确定不可行后才进入降级阶段；任何阶段找到解即提取值班表返回。
type Orchestrator struct {
	engine sat.Engine
	plan   StagePlan
	log    *logger.SolveLogger
}

// NewOrchestrator 创建求解编排器
func NewOrchestrator(engine sat.Engine, plan StagePlan) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		plan:   plan,
		log:    logger.NewSolveLogger(),
	}
}

// Generate 为排班请求生成当月值班表。
// 返回的 error 均为 AppError：MODEL_INVALID 与引擎故障立即终止；
// 严格模型全部超时返回 TIMEOUT；简化模型仍不可行返回 INFEASIBLE
// 并附带调整建议；其余穷尽情形返回 NO_SOLUTION。
func (o *Orchestrator) Generate(ctx context.Context, req model.ScheduleRequest) (*Outcome, error) {
	prob, err := NewProblem(req)
	if err != nil {
		return nil, apperrors.InvalidInput("config", err.Error()).WithCause(err)
	}
	val, err := validator.New(req)
	if err != nil {
		return nil, apperrors.InvalidInput("config", err.Error()).WithCause(err)
	}

	scheduleID := uuid.NewString()
	start := time.Now()
	o.log.StartSolve(scheduleID, len(prob.Personnel), prob.Days())

	outcome := &Outcome{ScheduleID: scheduleID}
	strictInfeasible := false
	relaxedUnknown := false

	for _, spec := range o.plan {
		if !spec.Stage.Strict() && !strictInfeasible {
			// 严格模型从未被证明不可行（全部超时）：不做降级
			continue
		}
		if spec.RetryOnly && !relaxedUnknown {
			continue
		}

		m, grid := CompileModel(prob, spec.Compile)
		res, err := o.engine.Solve(ctx, m, spec.Params)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeSolverError, "求解引擎故障")
		}

		outcome.Attempts = append(outcome.Attempts, AttemptReport{
			Stage:    spec.Stage.String(),
			Status:   res.Status.String(),
			Duration: res.Duration,
			Cost:     res.Cost,
			Rounds:   res.Rounds,
		})
		o.log.StageResult(spec.Stage.String(), res.Status.String(), res.Duration, res.Cost)

		switch res.Status {
		case sat.StatusModelInvalid:
			return nil, apperrors.ModelInvalid(modelDetails(m))
		case sat.StatusInfeasible:
			if spec.Stage.Strict() {
				if !strictInfeasible {
					o.log.Degraded(spec.Stage.String(), StageRelaxed.String(), "严格模型不可行")
				}
				strictInfeasible = true
			}
			if spec.Stage == StageSimplified {
				return nil, o.infeasibleError(prob, val)
			}
		case sat.StatusUnknown:
			if spec.Stage == StageRelaxed {
				relaxedUnknown = true
			}
			if spec.Stage == StageSimplified {
				return nil, apperrors.New(apperrors.CodeTimeout, "简化模型求解超时").
					WithSuggestions("请增大求解时间预算后重试")
			}
		default:
			// 找到可行解：提取值班表并做请假复核
			roster := Extract(prob, grid, res.Values)
			if violations := val.CheckLeave(roster); len(violations) > 0 {
				return nil, apperrors.New(apperrors.CodeSolverError, "求解结果违反请假约束").
					WithDetails(violations[0].Message)
			}
			outcome.Roster = roster
			outcome.Stage = spec.Stage
			outcome.Status = res.Status
			if !spec.Stage.Strict() {
				outcome.Degraded = true
				outcome.Warnings = degradationWarnings(spec.Stage)
			}
			o.log.SolveComplete(scheduleID, spec.Stage.String(), time.Since(start))
			return outcome, nil
		}
	}

	if !strictInfeasible {
		// 严格模型三轮全部超时
		return nil, apperrors.New(apperrors.CodeTimeout, "排班求解超时").
			WithSuggestions("请增大求解时间预算后重试", "可减少人员或约束规模")
	}
	// 默认计划以简化阶段收尾并在阶段内终结；
	// 自定义计划可能不含简化阶段，穷尽后由此兜底
	return nil, apperrors.NoSolution("所有求解阶段均未能产出值班表")
}

// infeasibleError 简化模型仍不可行：构造带调整建议的 422 错误
func (o *Orchestrator) infeasibleError(prob *Problem, val *validator.Validator) *apperrors.AppError {
	suggestions := val.Precheck(func(date string, shift model.ShiftType, dt calendar.DayType) int {
		return prob.Config.RequiredFor(date, shift, LoweredStaffing[dt][shift])
	})
	if len(suggestions) == 0 {
		suggestions = []string{
			"请减少集中请假或增加可排班人员",
			"请检查特殊日期的人力需求覆盖是否超出可用人数",
		}
	}
	return apperrors.Infeasible("降低人力需求后仍无法生成值班表").WithSuggestions(suggestions...)
}

// degradationWarnings 降级成功时附带的提示
func degradationWarnings(stage Stage) []string {
	switch stage {
	case StageRelaxed, StageRelaxedRetry:
		return []string{"严格约束无法全部满足，当前值班表仅保证每日互斥与请假屏蔽，请人工复核人力需求与连续性规则"}
	case StageSimplified:
		return []string{"已按降低后的最低人力需求排班，部分班次人数低于默认需求，请人工复核"}
	default:
		return nil
	}
}

// modelDetails 汇总模型构建错误的上下文
func modelDetails(m *sat.Model) string {
	if err := m.Err(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("变量 %d 个，约束 %d 条", m.NumVars(), m.NumConstraints())
}
