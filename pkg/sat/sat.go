// Package sat 定义布尔约束求解的模型构建层与引擎契约。
//
// Model 负责变量分配与约束收集，所有约束统一归一化为
// “加权文字和 ≥ 下界”的伪布尔形式；求解本身由 Engine 实现承担。
package sat

import (
	"fmt"
	"time"
)

// Var 布尔决策变量（1 起编号）
type Var int32

// Lit 返回变量的正文字
func (v Var) Lit() Lit { return Lit(v) }

// Not 返回变量的负文字
func (v Var) Not() Lit { return Lit(-v) }

// Lit 文字：正值为变量本身，负值为其否定
type Lit int32

// Var 返回文字对应的变量
func (l Lit) Var() Var {
	if l < 0 {
		return Var(-l)
	}
	return Var(l)
}

// Neg 返回文字的否定
func (l Lit) Neg() Lit { return -l }

// Status 求解状态
type Status int

const (
	// StatusUnknown 预算耗尽且没有得到任何结论
	StatusUnknown Status = iota
	// StatusOptimal 找到可行解且证明其目标值最优
	StatusOptimal
	// StatusFeasible 找到可行解但未证明最优
	StatusFeasible
	// StatusInfeasible 约束集合不可满足
	StatusInfeasible
	// StatusModelInvalid 约束模型本身构建错误
	StatusModelInvalid
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Solved 检查状态是否代表找到可行解
func (s Status) Solved() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Strategy 搜索策略
type Strategy string

const (
	// StrategyFixed 各搜索工作协程使用相同的约束顺序
	StrategyFixed Strategy = "fixed"
	// StrategyShuffle 各搜索工作协程按种子打乱约束顺序以分散搜索
	StrategyShuffle Strategy = "shuffle"
)

// Params 单次求解参数
type Params struct {
	TimeBudget time.Duration // 时间预算
	Workers    int           // 并行搜索度
	Strategy   Strategy      // 搜索策略
	Presolve   bool          // 预处理开关（引擎可忽略）
	Seed       int64         // 随机种子
}

// Result 求解结果。Solved 状态下 Values 给出每个变量的赋值。
type Result struct {
	Status   Status
	Values   []bool
	Cost     int
	Rounds   int
	Duration time.Duration
}

// constr 归一化约束：sum(weights[i]·lits[i]) ≥ atLeast
type constr struct {
	lits    []Lit
	weights []int
	atLeast int
}

// Model 约束模型。非并发安全，一次求解一个实例。
type Model struct {
	numVars    int32
	constrs    []constr
	objLits    []Lit
	objWeights []int
	unsat      bool
	err        error
}

// NewModel 创建空模型
func NewModel() *Model {
	return &Model{}
}

// NewBool 分配一个新的布尔变量
func (m *Model) NewBool() Var {
	m.numVars++
	return Var(m.numVars)
}

// NumVars 返回已分配的变量数
func (m *Model) NumVars() int {
	return int(m.numVars)
}

// NumConstraints 返回已收集的约束数
func (m *Model) NumConstraints() int {
	return len(m.constrs)
}

// Err 返回模型构建过程中记录的第一个错误
func (m *Model) Err() error {
	return m.err
}

// setErr 记录模型构建错误（仅保留第一个）
func (m *Model) setErr(format string, args ...interface{}) {
	if m.err == nil {
		m.err = fmt.Errorf(format, args...)
	}
}

// checkLits 校验文字引用的变量均已分配
func (m *Model) checkLits(lits []Lit) bool {
	for _, l := range lits {
		v := l.Var()
		if v < 1 || int32(v) > m.numVars {
			m.setErr("文字引用了未分配的变量: %d", l)
			return false
		}
	}
	return true
}

// add 追加一条归一化约束，处理平凡可满足/平凡不可满足的情形
func (m *Model) add(lits []Lit, weights []int, atLeast int) {
	if !m.checkLits(lits) {
		return
	}
	if len(weights) != len(lits) {
		m.setErr("权重个数与文字个数不一致: %d != %d", len(weights), len(lits))
		return
	}
	total := 0
	for _, w := range weights {
		if w <= 0 {
			m.setErr("约束权重必须为正: %d", w)
			return
		}
		total += w
	}
	if atLeast <= 0 {
		return // 恒成立
	}
	if atLeast > total {
		m.unsat = true // 结构性不可满足
		return
	}
	m.constrs = append(m.constrs, constr{lits: lits, weights: weights, atLeast: atLeast})
}

func unitWeights(n int) []int {
	w := make([]int, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func negateAll(lits []Lit) []Lit {
	neg := make([]Lit, len(lits))
	for i, l := range lits {
		neg[i] = l.Neg()
	}
	return neg
}

// AddClause 添加子句：至少一个文字为真
func (m *Model) AddClause(lits ...Lit) {
	if len(lits) == 0 {
		m.unsat = true
		return
	}
	m.add(lits, unitWeights(len(lits)), 1)
}

// AddImplication 添加蕴含 a → b
func (m *Model) AddImplication(a, b Lit) {
	m.AddClause(a.Neg(), b)
}

// AddUnit 强制单个文字为真
func (m *Model) AddUnit(l Lit) {
	m.AddClause(l)
}

// AddAtLeast 添加基数约束：至少 k 个文字为真
func (m *Model) AddAtLeast(lits []Lit, k int) {
	m.add(lits, unitWeights(len(lits)), k)
}

// AddAtMost 添加基数约束：至多 k 个文字为真
func (m *Model) AddAtMost(lits []Lit, k int) {
	if k < 0 {
		m.unsat = true
		return
	}
	if k >= len(lits) {
		return
	}
	m.add(negateAll(lits), unitWeights(len(lits)), len(lits)-k)
}

// AddExactly 添加基数约束：恰好 k 个文字为真
func (m *Model) AddExactly(lits []Lit, k int) {
	m.AddAtLeast(lits, k)
	m.AddAtMost(lits, k)
}

// AddLinearAtLeast 添加加权线性约束：sum(weights·lits) ≥ k
func (m *Model) AddLinearAtLeast(lits []Lit, weights []int, k int) {
	m.add(lits, weights, k)
}

// AddLinearAtMost 添加加权线性约束：sum(weights·lits) ≤ k
func (m *Model) AddLinearAtMost(lits []Lit, weights []int, k int) {
	if len(weights) != len(lits) {
		m.setErr("权重个数与文字个数不一致: %d != %d", len(weights), len(lits))
		return
	}
	if k < 0 {
		m.unsat = true
		return
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	if k >= total {
		return
	}
	w := make([]int, len(weights))
	copy(w, weights)
	m.add(negateAll(lits), w, total-k)
}

// AddBoolAndEquiv 添加指示变量的双向等价：ind ↔ AND(lits)。
// 这是在布尔模型中表达条件规则的标准手法：指示变量与
// 底层模式之间建立完整的双条件约束。
func (m *Model) AddBoolAndEquiv(ind Var, lits ...Lit) {
	if len(lits) == 0 {
		m.setErr("等价约束的模式不能为空")
		return
	}
	for _, l := range lits {
		m.AddImplication(ind.Lit(), l)
	}
	reverse := make([]Lit, 0, len(lits)+1)
	reverse = append(reverse, ind.Lit())
	reverse = append(reverse, negateAll(lits)...)
	m.AddClause(reverse...)
}

// AddBoolOrEquiv 添加指示变量的双向等价：ind ↔ OR(lits)
func (m *Model) AddBoolOrEquiv(ind Var, lits ...Lit) {
	if len(lits) == 0 {
		m.setErr("等价约束的模式不能为空")
		return
	}
	for _, l := range lits {
		m.AddImplication(l, ind.Lit())
	}
	forward := make([]Lit, 0, len(lits)+1)
	forward = append(forward, ind.Not())
	forward = append(forward, lits...)
	m.AddClause(forward...)
}

// AddObjectiveTerm 追加目标项（最小化 sum(weight·lit)）
func (m *Model) AddObjectiveTerm(l Lit, weight int) {
	if !m.checkLits([]Lit{l}) {
		return
	}
	if weight <= 0 {
		m.setErr("目标权重必须为正: %d", weight)
		return
	}
	m.objLits = append(m.objLits, l)
	m.objWeights = append(m.objWeights, weight)
}

// HasObjective 检查模型是否带目标函数
func (m *Model) HasObjective() bool {
	return len(m.objLits) > 0
}

// EvaluateObjective 按给定赋值计算目标值
func (m *Model) EvaluateObjective(values []bool) int {
	cost := 0
	for i, l := range m.objLits {
		if litValue(values, l) {
			cost += m.objWeights[i]
		}
	}
	return cost
}

// litValue 读取赋值下某文字的真值
func litValue(values []bool, l Lit) bool {
	v := l.Var()
	val := values[int(v)-1]
	if l < 0 {
		return !val
	}
	return val
}

// Value 读取赋值下某变量的真值
func Value(values []bool, v Var) bool {
	return litValue(values, v.Lit())
}
