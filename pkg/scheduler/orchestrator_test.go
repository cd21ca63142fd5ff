package scheduler

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/sat"
)

// fakeEngine 按脚本返回预设结果的引擎，驱动编排器状态机测试
type fakeEngine struct {
	results []sat.Result
	errs    []error
	allTrue bool
	calls   int
}

func (f *fakeEngine) Solve(_ context.Context, m *sat.Model, _ sat.Params) (sat.Result, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return sat.Result{}, f.errs[i]
	}
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	if r.Status.Solved() && r.Values == nil {
		values := make([]bool, m.NumVars())
		if f.allTrue {
			for j := range values {
				values[j] = true
			}
		}
		r.Values = values
	}
	return r, nil
}

func (f *fakeEngine) Name() string { return "fake" }

func testRequest() model.ScheduleRequest {
	return model.ScheduleRequest{
		Personnel: []model.Person{
			{ID: 1, Name: "甲", Role: model.RoleShift},
			{ID: 2, Name: "乙", Role: model.RoleShift},
		},
		Config: model.ScheduleConfig{Month: "2025-02", MaxNightShifts: 9},
	}
}

func newTestOrchestrator(engine sat.Engine) *Orchestrator {
	return NewOrchestrator(engine, DefaultPlan(time.Second, 1, 1))
}

func TestOrchestrator_StrictSuccess(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusOptimal}}}
	orch := newTestOrchestrator(engine)

	outcome, err := orch.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Stage != StageStrict1 {
		t.Errorf("expected strict_1, got %s", outcome.Stage)
	}
	if outcome.Degraded {
		t.Error("strict success should not be degraded")
	}
	if len(outcome.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", outcome.Warnings)
	}
	if len(outcome.Attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(outcome.Attempts))
	}
	// 值班表覆盖整月（2月28天），空赋值即全空班
	if len(outcome.Roster) != 28 {
		t.Errorf("roster should cover 28 dates, got %d", len(outcome.Roster))
	}
	if outcome.ScheduleID == "" {
		t.Error("schedule id should be set")
	}
}

func TestOrchestrator_DegradeToRelaxed(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusFeasible},
	}}
	orch := newTestOrchestrator(engine)

	outcome, err := orch.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Stage != StageRelaxed {
		t.Errorf("expected relaxed, got %s", outcome.Stage)
	}
	if !outcome.Degraded {
		t.Error("relaxed success should be degraded")
	}
	if len(outcome.Warnings) == 0 {
		t.Error("degraded outcome should carry warnings")
	}
	if len(outcome.Attempts) != 4 {
		t.Errorf("expected 4 attempts, got %d", len(outcome.Attempts))
	}
}

func TestOrchestrator_RelaxedRetryOnlyAfterUnknown(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusUnknown}, // relaxed 超时
		{Status: sat.StatusFeasible}, // relaxed_retry 成功
	}}
	orch := newTestOrchestrator(engine)

	outcome, err := orch.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Stage != StageRelaxedRetry {
		t.Errorf("expected relaxed_retry, got %s", outcome.Stage)
	}
	if len(outcome.Attempts) != 5 {
		t.Errorf("expected 5 attempts, got %d", len(outcome.Attempts))
	}
}

func TestOrchestrator_RetrySkippedWhenRelaxedInfeasible(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible}, // relaxed 不可行，跳过重试
		{Status: sat.StatusFeasible},   // simplified 成功
	}}
	orch := newTestOrchestrator(engine)

	outcome, err := orch.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Stage != StageSimplified {
		t.Errorf("expected simplified, got %s", outcome.Stage)
	}
	for _, a := range outcome.Attempts {
		if a.Stage == StageRelaxedRetry.String() {
			t.Error("relaxed_retry should be skipped when relaxed was infeasible")
		}
	}
}

func TestOrchestrator_AllStrictUnknownIsTimeout(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusUnknown}}}
	orch := newTestOrchestrator(engine)

	_, err := orch.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.GetCode(err) != apperrors.CodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", apperrors.GetCode(err))
	}
	// 严格模型未证不可行：不进入降级阶段
	if engine.calls != 3 {
		t.Errorf("expected 3 strict attempts only, got %d", engine.calls)
	}
}

func TestOrchestrator_SimplifiedInfeasible(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusInfeasible}}}
	orch := newTestOrchestrator(engine)

	_, err := orch.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInfeasible {
		t.Fatalf("expected INFEASIBLE, got %s", appErr.Code)
	}
	if appErr.HTTPStatus != 422 {
		t.Errorf("expected 422, got %d", appErr.HTTPStatus)
	}
	if len(appErr.Suggestions) == 0 {
		t.Error("infeasible error should carry suggestions")
	}
}

func TestOrchestrator_SimplifiedUnknownIsTimeout(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusInfeasible},
		{Status: sat.StatusUnknown}, // simplified 超时
	}}
	orch := newTestOrchestrator(engine)

	_, err := orch.Generate(context.Background(), testRequest())
	if apperrors.GetCode(err) != apperrors.CodeTimeout {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestOrchestrator_NoSolutionWithoutSimplifiedStage(t *testing.T) {
	// 自定义计划不含简化阶段：全部不可行时由兜底分支返回 NO_SOLUTION
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusInfeasible}}}
	plan := DefaultPlan(time.Second, 1, 1)[:4] // 严格三轮 + 宽松
	orch := NewOrchestrator(engine, plan)

	_, err := orch.Generate(context.Background(), testRequest())
	if apperrors.GetCode(err) != apperrors.CodeNoSolution {
		t.Fatalf("expected NO_SOLUTION, got %v", err)
	}
	if apperrors.GetHTTPStatus(err) != 409 {
		t.Errorf("expected 409, got %d", apperrors.GetHTTPStatus(err))
	}
	if engine.calls != 4 {
		t.Errorf("expected 4 attempts, got %d", engine.calls)
	}
}

func TestOrchestrator_ModelInvalidIsFatal(t *testing.T) {
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusModelInvalid}}}
	orch := newTestOrchestrator(engine)

	_, err := orch.Generate(context.Background(), testRequest())
	if apperrors.GetCode(err) != apperrors.CodeModelInvalid {
		t.Fatalf("expected MODEL_INVALID, got %v", err)
	}
	if apperrors.GetHTTPStatus(err) != 500 {
		t.Errorf("expected 500, got %d", apperrors.GetHTTPStatus(err))
	}
	if engine.calls != 1 {
		t.Errorf("model invalid should stop immediately, got %d calls", engine.calls)
	}
}

func TestOrchestrator_EngineFailure(t *testing.T) {
	engine := &fakeEngine{errs: []error{context.DeadlineExceeded}}
	orch := newTestOrchestrator(engine)

	_, err := orch.Generate(context.Background(), testRequest())
	if apperrors.GetCode(err) != apperrors.CodeSolverError {
		t.Fatalf("expected SOLVER_ERROR, got %v", err)
	}
}

func TestOrchestrator_LeaveRecheckRejectsBadRoster(t *testing.T) {
	// 引擎返回全真赋值：请假日也被排班，复核必须拦下
	engine := &fakeEngine{results: []sat.Result{{Status: sat.StatusFeasible}}, allTrue: true}
	orch := newTestOrchestrator(engine)

	req := testRequest()
	req.Personnel[0].RequestedLeaves = []int{5}

	_, err := orch.Generate(context.Background(), req)
	if apperrors.GetCode(err) != apperrors.CodeSolverError {
		t.Fatalf("expected SOLVER_ERROR from leave recheck, got %v", err)
	}
}

func TestOrchestrator_InvalidMonth(t *testing.T) {
	orch := newTestOrchestrator(&fakeEngine{results: []sat.Result{{Status: sat.StatusOptimal}}})
	req := testRequest()
	req.Config.Month = "bogus"

	_, err := orch.Generate(context.Background(), req)
	if apperrors.GetCode(err) != apperrors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestStageNames(t *testing.T) {
	want := map[Stage]string{
		StageStrict1:      "strict_1",
		StageStrict2:      "strict_2",
		StageStrict3:      "strict_3",
		StageRelaxed:      "relaxed",
		StageRelaxedRetry: "relaxed_retry",
		StageSimplified:   "simplified",
	}
	for stage, name := range want {
		if stage.String() != name {
			t.Errorf("expected %s, got %s", name, stage.String())
		}
	}
	if !StageStrict2.Strict() || StageRelaxed.Strict() {
		t.Error("Strict() classification broken")
	}
}

func TestDefaultPlanBudgets(t *testing.T) {
	plan := DefaultPlan(10*time.Second, 2, 7)
	if len(plan) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(plan))
	}
	// 预算按基准的 1~6 倍递增
	for i, spec := range plan {
		want := time.Duration(i+1) * 10 * time.Second
		if spec.Params.TimeBudget != want {
			t.Errorf("stage %s: expected budget %v, got %v", spec.Stage, want, spec.Params.TimeBudget)
		}
	}
	if !plan[5].Compile.MinimumStaffing {
		t.Error("simplified stage should use minimum staffing")
	}
	if plan[4].RetryOnly != true {
		t.Error("relaxed_retry should be retry-only")
	}
}
