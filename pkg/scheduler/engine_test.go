package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kinmu/internal/fixture"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
	"github.com/paiban/kinmu/pkg/validator"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Timeout = time.Minute
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func request(s fixture.Scenario) Request {
	return Request{Start: s.Start, End: s.End, Policy: s.Policy}
}

func run(t *testing.T, s fixture.Scenario) *RunResult {
	t.Helper()
	res, err := newEngine(t).Run(context.Background(), request(s))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestEngine_Run(t *testing.T) {
	s := fixture.Week()
	res := run(t, s)

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, solver.StatusOptimal, res.Status)
	assert.Equal(t, solver.SearchName, res.Solver)
	assert.Equal(t, 3.0, res.Objective)
	assert.Equal(t, "2025-09-01", res.Start)
	assert.Equal(t, "2025-09-07", res.End)
	assert.Equal(t, 7, res.Assignment.Days())
	assert.Equal(t, 14, res.Model.Rules)
	assert.Positive(t, res.Model.Vars)

	// 重点日满员
	assert.Equal(t, 3, res.Assignment.Headcount(6))
	assert.Equal(t, 1, res.Coverage.PriorityFullDays)

	assert.Empty(t, validator.NewAuditor(nil).Audit(res.Calendar, s.Policy, res.Assignment))
}

func TestEngine_AllFixtures(t *testing.T) {
	for _, s := range fixture.All() {
		t.Run(s.Name, func(t *testing.T) {
			res := run(t, s)

			for d := 0; d < res.Assignment.Days(); d++ {
				early, late, mid, workers := 0, 0, 0, 0
				for _, e := range model.Employees {
					code := res.Assignment.Get(d, e)
					require.True(t, e.Allows(code), "%s d%d %s", e, d, code)
					if !code.IsWork() {
						continue
					}
					workers++
					switch {
					case code.IsEarly():
						early++
					case code.IsLate():
						late++
					case code.IsMid():
						mid++
					}
				}
				assert.Equal(t, 1, early, "d%d", d)
				assert.Equal(t, 1, late, "d%d", d)
				assert.Contains(t, []int{2, 3}, workers, "d%d", d)
				assert.Equal(t, workers-2, mid, "d%d", d)
			}

			for _, e := range model.CoreEmployees {
				r := res.Statistics[e]
				assert.Equal(t, s.Policy.For(e).RestQuota, r.OffDays, e.String())
				assert.LessOrEqual(t, r.LongestWork, model.MaxConsecutiveWork, e.String())
				assert.LessOrEqual(t, r.LongestRest, model.MaxConsecutiveRest, e.String())
				assert.LessOrEqual(t, r.Isolated, s.Policy.For(e).IsolatedAllowance, e.String())
			}
		})
	}
}

func TestEngine_FiveDayWindows(t *testing.T) {
	res := run(t, fixture.FiveDay())
	for _, e := range model.CoreEmployees {
		col := res.Assignment.Column(e)
		offs := 0
		for _, c := range col {
			if !c.IsWork() {
				offs++
			}
		}
		assert.GreaterOrEqual(t, offs, 1, "五天窗口内至少休息一天")
		assert.Less(t, offs, 4, "四天窗口不能全休")
	}
}

func TestEngine_CheerDay(t *testing.T) {
	res := run(t, fixture.CheerWeek())
	a := res.Assignment
	const d = 6

	assert.True(t, a.Get(d, model.Support).IsWork())
	assert.Equal(t, model.EarlyA, a.Get(d, model.Core1))

	onDuty := 0
	for _, e := range []model.Employee{model.Core2, model.Core3} {
		if a.Get(d, e).IsWork() {
			onDuty++
		}
	}
	supportMid := 0
	if a.Get(d, model.Support) == model.MidSupport {
		supportMid = 1
	}
	assert.Equal(t, supportMid, onDuty)
	assert.Equal(t, 1, res.Coverage.SupportMidUsed)
}

func TestEngine_CampaignDay(t *testing.T) {
	res := run(t, fixture.CampaignWeek())
	a := res.Assignment
	const d = 5

	assert.Equal(t, model.Off, a.Get(d, model.Core3))
	if a.Headcount(d) == 2 {
		assert.Equal(t, model.LateShort, a.Get(d, model.Core1))
		for _, e := range []model.Employee{model.Core2, model.Core3} {
			if code := a.Get(d, e); code.IsWork() {
				assert.True(t, code.IsEarly(), "%s %s", e, code)
			}
		}
	}
}

func TestEngine_Errors(t *testing.T) {
	tests := []struct {
		name     string
		scenario func() fixture.Scenario
		ctx      func() (context.Context, context.CancelFunc)
		wantCode apperrors.Code
	}{
		{
			name: "结束日早于开始日",
			scenario: func() fixture.Scenario {
				s := fixture.Week()
				s.Start, s.End = s.End, s.Start
				return s
			},
			wantCode: apperrors.CodeInvalidTimeRange,
		},
		{
			name: "休息配额超过天数",
			scenario: func() fixture.Scenario {
				s := fixture.Week()
				ep := s.Policy.Employees[model.Core1]
				ep.RestQuota = 9
				s.Policy.Employees[model.Core1] = ep
				return s
			},
			wantCode: apperrors.CodeNoFeasibleSolution,
		},
		{
			name: "前一日已连续工作5天",
			scenario: func() fixture.Scenario {
				s := fixture.Week()
				ep := s.Policy.Employees[model.Core2]
				ep.Prior = model.PriorContext{Shift: model.Early, ConsecutiveWork: 5}
				s.Policy.Employees[model.Core2] = ep
				return s
			},
			wantCode: apperrors.CodeConstraintViolation,
		},
		{
			name: "前一日已连续休息4天",
			scenario: func() fixture.Scenario {
				s := fixture.Week()
				ep := s.Policy.Employees[model.Core3]
				ep.Prior = model.PriorContext{Shift: model.Off, ConsecutiveRest: 4}
				s.Policy.Employees[model.Core3] = ep
				return s
			},
			wantCode: apperrors.CodeConstraintViolation,
		},
		{
			name:     "调用方已取消",
			scenario: fixture.Week,
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			wantCode: apperrors.CodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.Background(), context.CancelFunc(func() {})
			if tt.ctx != nil {
				ctx, cancel = tt.ctx()
			}
			defer cancel()

			res, err := newEngine(t).Run(ctx, request(tt.scenario()))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
		})
	}
}

func TestEngine_Idempotent(t *testing.T) {
	s := fixture.Week()
	first := run(t, s)
	second := run(t, s)

	assert.Empty(t, cmp.Diff(first.Assignment.Column(model.Core1), second.Assignment.Column(model.Core1)))
	assert.Empty(t, cmp.Diff(first.Statistics, second.Statistics))
	assert.NotEqual(t, first.RunID, second.RunID)
}

// fixedSolver 直接返回给定排班表的编码
type fixedSolver struct {
	values func(m *mip.Model) []float64
	status solver.Status
}

func (f *fixedSolver) Name() string { return "fixed" }

func (f *fixedSolver) Solve(_ context.Context, m *mip.Model) (*solver.Result, error) {
	return &solver.Result{Status: f.status, Values: f.values(m)}, nil
}

func TestEngine_AuditRejectsBadSolution(t *testing.T) {
	s := fixture.Week()
	e := newEngine(t)
	b, err := e.BuildModel(request(s))
	require.NoError(t, err)

	bad := fixture.Clone(s.Schedule)
	bad.Set(0, model.Core2, model.Early)
	values := b.Encode(bad)

	e.WithSolver(&fixedSolver{status: solver.StatusOptimal, values: func(*mip.Model) []float64 { return values }})
	_, err = e.Run(context.Background(), request(s))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvariantViolation, apperrors.GetCode(err))
}

func TestEngine_UnknownStatusIsFailure(t *testing.T) {
	s := fixture.Week()
	e := newEngine(t).WithSolver(&fixedSolver{status: solver.StatusUnknown, values: func(*mip.Model) []float64 { return nil }})
	_, err := e.Run(context.Background(), request(s))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTimeout, apperrors.GetCode(err))
}

func TestEngine_UnknownSolver(t *testing.T) {
	_, err := NewEngine(Config{Solver: "missing"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestExtract(t *testing.T) {
	s := fixture.Week()
	b, err := newEngine(t).BuildModel(request(s))
	require.NoError(t, err)

	a, err := Extract(b, b.Encode(s.Schedule))
	require.NoError(t, err)
	for _, e := range model.Employees {
		assert.Equal(t, s.Schedule.Column(e), a.Column(e))
	}

	// 同一格两个班次
	values := b.Encode(s.Schedule)
	v, ok := b.X(0, model.Core2, model.Early)
	require.True(t, ok)
	values[v] = 1
	_, err = Extract(b, values)
	assert.Equal(t, apperrors.CodeInvariantViolation, apperrors.GetCode(err))

	// 一格没有班次
	values = b.Encode(s.Schedule)
	v, _ = b.X(0, model.Core1, model.EarlyA)
	values[v] = 0
	_, err = Extract(b, values)
	assert.Equal(t, apperrors.CodeInvariantViolation, apperrors.GetCode(err))

	_, err = Extract(b, nil)
	assert.Equal(t, apperrors.CodeInvariantViolation, apperrors.GetCode(err))
}

func TestEngine_Audit(t *testing.T) {
	s := fixture.Week()
	conflicts, err := newEngine(t).Audit(request(s), s.Schedule)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
