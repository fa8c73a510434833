package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/paiban/kinmu/internal/fixture"
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/scheduler/constraint/builtin"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func knapsack() *mip.Model {
	m := mip.NewModel("knapsack")
	x0 := m.NewBinary("x0")
	x1 := m.NewBinary("x1")
	x2 := m.NewBinary("x2")
	m.AddLE("cap", mip.Sum(x0, x1, x2), 2)
	m.SetObjective(mip.Maximize, mip.Sum(x0).Add(x1, 2).Add(x2, 3))
	return m
}

func TestSearch_SmallModels(t *testing.T) {
	tests := []struct {
		name       string
		model      func() *mip.Model
		wantStatus solver.Status
		wantObj    float64
	}{
		{
			name:       "背包最大化",
			model:      knapsack,
			wantStatus: solver.StatusOptimal,
			wantObj:    5,
		},
		{
			name: "最小化",
			model: func() *mip.Model {
				m := mip.NewModel("min")
				a := m.NewBinary("a")
				b := m.NewBinary("b")
				c := m.NewBinary("c")
				m.AddGE("cover_ab", mip.Sum(a, b), 1)
				m.AddGE("cover_bc", mip.Sum(b, c), 1)
				m.SetObjective(mip.Minimize, mip.Sum(a, b, c))
				return m
			},
			wantStatus: solver.StatusOptimal,
			wantObj:    1,
		},
		{
			name: "无目标函数",
			model: func() *mip.Model {
				m := mip.NewModel("plain")
				a := m.NewBinary("a")
				b := m.NewBinary("b")
				m.AddEQ("one", mip.Sum(a, b), 1)
				return m
			},
			wantStatus: solver.StatusOptimal,
			wantObj:    0,
		},
		{
			name: "无可行解",
			model: func() *mip.Model {
				m := mip.NewModel("infeasible")
				a := m.NewBinary("a")
				b := m.NewBinary("b")
				m.AddGE("too_many", mip.Sum(a, b), 3)
				return m
			},
			wantStatus: solver.StatusInfeasible,
		},
		{
			name: "传播后才发现无解",
			model: func() *mip.Model {
				m := mip.NewModel("chain")
				a := m.NewBinary("a")
				b := m.NewBinary("b")
				c := m.NewBinary("c")
				m.AddEQ("ab", mip.Sum(a).Add(b, -1), 0)
				m.AddEQ("bc", mip.Sum(b).Add(c, -1), 0)
				m.AddEQ("ac", mip.Sum(a, c), 1)
				return m
			},
			wantStatus: solver.StatusInfeasible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.model()
			res, err := solver.NewSearch().Solve(context.Background(), m)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			if tt.wantStatus != solver.StatusOptimal {
				assert.Nil(t, res.Values)
				return
			}
			assert.Equal(t, tt.wantObj, res.Objective)
			_, ok := m.Check(res.Values, 1e-9)
			assert.True(t, ok)
		})
	}
}

func TestSearch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := solver.NewSearch().Solve(ctx, knapsack())
	require.NoError(t, err)
	assert.Equal(t, solver.StatusTimedOut, res.Status)
}

func TestSearch_Fixtures(t *testing.T) {
	for _, s := range fixture.All() {
		t.Run(s.Name, func(t *testing.T) {
			b, err := builtin.NewDefaultManager().Build(s.Calendar(), s.Policy)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			res, err := solver.NewSearch().Solve(ctx, b.Model)
			require.NoError(t, err)
			require.Equal(t, solver.StatusOptimal, res.Status)

			row, ok := b.Model.Check(res.Values, 1e-9)
			assert.True(t, ok, row.Name)

			obj, _ := b.Model.Objective()
			assert.GreaterOrEqual(t, res.Objective, obj.Eval(b.Encode(s.Schedule)))
			assert.Positive(t, res.Nodes)
		})
	}
}

func TestRegistry(t *testing.T) {
	s, err := solver.New(solver.SearchName)
	require.NoError(t, err)
	assert.Equal(t, solver.SearchName, s.Name())
	assert.Contains(t, solver.Names(), solver.SearchName)

	_, err = solver.New("missing")
	assert.Error(t, err)
}

// stubSolver 记录是否被调用
type stubSolver struct {
	called bool
}

func (s *stubSolver) Name() string { return "stub" }

func (s *stubSolver) Solve(context.Context, *mip.Model) (*solver.Result, error) {
	s.called = true
	return &solver.Result{Status: solver.StatusOptimal}, nil
}

func TestAuto_PicksBySize(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		large      bool
		wantSolver string
	}{
		{"小模型用分支定界", solver.SearchMaxVars, true, solver.SearchName},
		{"大模型用 MIP 求解器", 2, true, "stub"},
		{"未配置 MIP 求解器", 2, false, solver.SearchName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSolver{}
			var large solver.Solver
			if tt.large {
				large = stub
			}
			a := solver.NewAuto(large).WithLimit(tt.limit)
			assert.Equal(t, solver.AutoName, a.Name())

			m := knapsack()
			assert.Equal(t, tt.wantSolver, a.Pick(m).Name())

			res, err := a.Solve(context.Background(), m)
			require.NoError(t, err)
			assert.Equal(t, solver.StatusOptimal, res.Status)
			assert.Equal(t, tt.wantSolver, res.Solver)
			assert.Equal(t, tt.wantSolver == "stub", stub.called)
		})
	}
}

func TestAuto_FixturesStayOnSearch(t *testing.T) {
	for _, s := range fixture.All() {
		b, err := builtin.NewDefaultManager().Build(s.Calendar(), s.Policy)
		require.NoError(t, err)
		assert.LessOrEqual(t, b.Model.NumVars(), solver.SearchMaxVars, s.Name)
	}

	m := fixture.Month()
	b, err := builtin.NewDefaultManager().Build(m.Calendar(), m.Policy)
	require.NoError(t, err)
	assert.Greater(t, b.Model.NumVars(), solver.SearchMaxVars)
}
