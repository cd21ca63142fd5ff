package sat

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	gsolver "github.com/crillab/gophersat/solver"

	"github.com/zhiban/zhiban/pkg/logger"
)

// Engine 约束求解引擎契约。实现接收已构建的模型与求解参数，
// 返回 {OPTIMAL, FEASIBLE, INFEASIBLE, MODEL_INVALID, UNKNOWN} 之一，
// 并在找到解时给出全部变量的真值赋值。
type Engine interface {
	// Solve 求解模型。返回 error 表示引擎自身故障，与不可行等正常状态区分。
	Solve(ctx context.Context, m *Model, p Params) (Result, error)

	// Name 返回引擎名称
	Name() string
}

// defaultBudget 未指定时间预算时的兜底值
const defaultBudget = 30 * time.Second

// GophersatEngine 基于 gophersat 伪布尔求解器的引擎实现。
// 目标最小化通过逐轮下降实现：每找到一个可行解，
// 就追加“目标值 ≤ 当前值−1”的界限约束后重解；
// 界限不可满足即证明上一个解最优，预算耗尽则返回当前最好解。
type GophersatEngine struct{}

// NewGophersatEngine 创建 gophersat 引擎
func NewGophersatEngine() *GophersatEngine {
	return &GophersatEngine{}
}

// Name 返回引擎名称
func (e *GophersatEngine) Name() string {
	return "gophersat"
}

// roundOutcome 单轮求解结果
type roundOutcome struct {
	status gsolver.Status
	values []bool
}

// Solve 求解模型
func (e *GophersatEngine) Solve(ctx context.Context, m *Model, p Params) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("求解引擎异常: %v", r)
		}
	}()

	start := time.Now()
	finish := func(r Result) (Result, error) {
		r.Duration = time.Since(start)
		return r, nil
	}

	if m.Err() != nil {
		return finish(Result{Status: StatusModelInvalid})
	}
	if m.NumVars() == 0 {
		return finish(Result{Status: StatusModelInvalid})
	}
	if m.unsat {
		return finish(Result{Status: StatusInfeasible})
	}

	budget := p.TimeBudget
	if budget <= 0 {
		budget = defaultBudget
	}
	deadline := start.Add(budget)

	logger.Debug().
		Str("engine", e.Name()).
		Int("vars", m.NumVars()).
		Int("constraints", m.NumConstraints()).
		Dur("budget", budget).
		Int("workers", p.Workers).
		Str("strategy", string(p.Strategy)).
		Bool("presolve", p.Presolve).
		Msg("开始求解")

	base := lower(m)

	var best []bool
	bestCost := 0
	bounds := make([]gsolver.PBConstr, 0, 4)
	rounds := 0

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		rounds++

		constrs := make([]gsolver.PBConstr, 0, len(base)+len(bounds))
		constrs = append(constrs, base...)
		constrs = append(constrs, bounds...)

		out := e.solveRound(ctx, constrs, p, remaining, m.NumVars())
		switch out.status {
		case gsolver.Unsat:
			if best == nil {
				return finish(Result{Status: StatusInfeasible, Rounds: rounds})
			}
			// 下降界限不可满足：上一轮的解即为最优
			return finish(Result{Status: StatusOptimal, Values: best, Cost: bestCost, Rounds: rounds})
		case gsolver.Sat:
			best = out.values
			bestCost = m.EvaluateObjective(best)
			if !m.HasObjective() || bestCost == 0 {
				return finish(Result{Status: StatusOptimal, Values: best, Cost: bestCost, Rounds: rounds})
			}
			bounds = append(bounds, descentBound(m, bestCost))
		default:
			// Indet：本轮被预算或取消打断
			remaining = 0
		}
		if remaining <= 0 {
			break
		}
	}

	if best != nil {
		return finish(Result{Status: StatusFeasible, Values: best, Cost: bestCost, Rounds: rounds})
	}
	return finish(Result{Status: StatusUnknown, Rounds: rounds})
}

// solveRound 执行一轮求解。Workers>1 时以不同约束顺序并行搜索，
// 任一工作协程得出确定结论（Sat/Unsat）即采纳并停止其余协程。
func (e *GophersatEngine) solveRound(ctx context.Context, constrs []gsolver.PBConstr, p Params, budget time.Duration, numVars int) roundOutcome {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	stops := make([]chan struct{}, workers)
	results := make(chan roundOutcome, workers)

	for w := 0; w < workers; w++ {
		stops[w] = make(chan struct{})
		order := constrs
		if w > 0 && p.Strategy == StrategyShuffle {
			order = shuffled(constrs, p.Seed+int64(w))
		}
		go func(order []gsolver.PBConstr, stop chan struct{}) {
			pb := gsolver.ParsePBConstrs(order)
			s := gsolver.New(pb)
			r := s.Optimal(nil, stop)
			out := roundOutcome{status: r.Status}
			if r.Status == gsolver.Sat {
				out.values = valuesFromModel(r.Model, numVars)
			}
			results <- out
		}(order, stops[w])
	}

	stopped := false
	stopAll := func() {
		if !stopped {
			stopped = true
			for _, stop := range stops {
				close(stop)
			}
		}
	}

	timer := time.NewTimer(budget)
	defer timer.Stop()
	timerC := timer.C
	done := ctx.Done()

	indet := roundOutcome{status: gsolver.Indet}
	pending := workers
	for pending > 0 {
		select {
		case out := <-results:
			pending--
			if out.status == gsolver.Sat || out.status == gsolver.Unsat {
				stopAll()
				return out
			}
		case <-timerC:
			timerC = nil
			stopAll()
		case <-done:
			done = nil
			stopAll()
		}
	}
	return indet
}

// lower 将归一化约束降为 gophersat 的伪布尔约束
func lower(m *Model) []gsolver.PBConstr {
	out := make([]gsolver.PBConstr, 0, len(m.constrs))
	for _, c := range m.constrs {
		lits := make([]int, len(c.lits))
		for i, l := range c.lits {
			lits[i] = int(l)
		}
		if uniform(c.weights) {
			out = append(out, gsolver.AtLeast(lits, c.atLeast))
			continue
		}
		weights := make([]int, len(c.weights))
		copy(weights, c.weights)
		out = append(out, gsolver.GtEq(lits, weights, c.atLeast))
	}
	return out
}

// uniform 检查权重是否全为 1
func uniform(weights []int) bool {
	for _, w := range weights {
		if w != 1 {
			return false
		}
	}
	return true
}

// descentBound 构造目标下降界限：objective ≤ cost−1，
// 归一化为否定文字上的 ≥ 约束。
func descentBound(m *Model, cost int) gsolver.PBConstr {
	total := 0
	lits := make([]int, len(m.objLits))
	weights := make([]int, len(m.objWeights))
	for i, l := range m.objLits {
		lits[i] = int(l.Neg())
		weights[i] = m.objWeights[i]
		total += m.objWeights[i]
	}
	return gsolver.GtEq(lits, weights, total-cost+1)
}

// shuffled 按种子打乱约束顺序
func shuffled(constrs []gsolver.PBConstr, seed int64) []gsolver.PBConstr {
	out := make([]gsolver.PBConstr, len(constrs))
	copy(out, constrs)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// valuesFromModel 将求解器返回的模型截齐为按变量序号排列的真值表
func valuesFromModel(model []bool, numVars int) []bool {
	values := make([]bool, numVars)
	copy(values, model)
	return values
}
