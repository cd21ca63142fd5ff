package sat

import (
	"testing"
)

func TestModelNormalization(t *testing.T) {
	t.Run("trivially satisfied constraints are dropped", func(t *testing.T) {
		m := NewModel()
		a, b := m.NewBool(), m.NewBool()
		m.AddAtLeast([]Lit{a.Lit(), b.Lit()}, 0)
		m.AddAtMost([]Lit{a.Lit(), b.Lit()}, 2)
		if m.NumConstraints() != 0 {
			t.Errorf("expected 0 constraints, got %d", m.NumConstraints())
		}
	})

	t.Run("structural unsat flags the model", func(t *testing.T) {
		m := NewModel()
		a := m.NewBool()
		// 单变量不可能有 2 个为真
		m.AddAtLeast([]Lit{a.Lit()}, 2)
		if !m.unsat {
			t.Error("atLeast beyond weight sum should mark model unsat")
		}

		m2 := NewModel()
		b := m2.NewBool()
		m2.AddAtMost([]Lit{b.Lit()}, -1)
		if !m2.unsat {
			t.Error("negative atMost should mark model unsat")
		}

		m3 := NewModel()
		m3.AddClause()
		if !m3.unsat {
			t.Error("empty clause should mark model unsat")
		}
	})

	t.Run("construction faults set the error", func(t *testing.T) {
		m := NewModel()
		m.AddUnit(Lit(5)) // 变量未分配
		if m.Err() == nil {
			t.Error("dangling literal should set model error")
		}

		m2 := NewModel()
		a := m2.NewBool()
		m2.AddLinearAtLeast([]Lit{a.Lit()}, []int{0}, 1)
		if m2.Err() == nil {
			t.Error("non-positive weight should set model error")
		}

		m3 := NewModel()
		b := m3.NewBool()
		m3.AddLinearAtLeast([]Lit{b.Lit()}, []int{1, 2}, 1)
		if m3.Err() == nil {
			t.Error("mismatched weight count should set model error")
		}

		m4 := NewModel()
		ind := m4.NewBool()
		m4.AddBoolAndEquiv(ind)
		if m4.Err() == nil {
			t.Error("empty pattern should set model error")
		}
	})
}

func TestEvaluateObjective(t *testing.T) {
	m := NewModel()
	a, b := m.NewBool(), m.NewBool()
	m.AddObjectiveTerm(a.Lit(), 3)
	m.AddObjectiveTerm(b.Not(), 1)

	// a=true, b=false：两项都计入
	if cost := m.EvaluateObjective([]bool{true, false}); cost != 4 {
		t.Errorf("expected cost 4, got %d", cost)
	}
	// a=false, b=true：都不计入
	if cost := m.EvaluateObjective([]bool{false, true}); cost != 0 {
		t.Errorf("expected cost 0, got %d", cost)
	}
}

func TestLitHelpers(t *testing.T) {
	v := Var(3)
	if v.Lit() != Lit(3) || v.Not() != Lit(-3) {
		t.Error("literal construction broken")
	}
	if Lit(-3).Var() != v || Lit(3).Var() != v {
		t.Error("Var extraction broken")
	}
	if Lit(3).Neg() != Lit(-3) {
		t.Error("negation broken")
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
		solved bool
	}{
		{StatusOptimal, "OPTIMAL", true},
		{StatusFeasible, "FEASIBLE", true},
		{StatusInfeasible, "INFEASIBLE", false},
		{StatusModelInvalid, "MODEL_INVALID", false},
		{StatusUnknown, "UNKNOWN", false},
	}
	for _, tt := range tests {
		if tt.status.String() != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.status.String())
		}
		if tt.status.Solved() != tt.solved {
			t.Errorf("%s: Solved() should be %v", tt.want, tt.solved)
		}
	}
}
