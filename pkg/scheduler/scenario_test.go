package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kinmu/internal/fixture"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
	"github.com/paiban/kinmu/pkg/scheduler/solver/glpk"
	"github.com/paiban/kinmu/pkg/stats"
)

func TestScenario_SlidingWindows(t *testing.T) {
	for _, s := range fixture.All() {
		t.Run(s.Name, func(t *testing.T) {
			res := run(t, s)
			for _, e := range model.CoreEmployees {
				col := res.Assignment.Column(e)
				for start := 0; start+model.MaxConsecutiveWork+1 <= len(col); start++ {
					offs := 0
					for _, c := range col[start : start+model.MaxConsecutiveWork+1] {
						if !c.IsWork() {
							offs++
						}
					}
					assert.Positive(t, offs, "%s 从第 %d 天起连续 5 天没有休息", e, start)
				}
				for start := 0; start+model.MaxConsecutiveRest+1 <= len(col); start++ {
					works := 0
					for _, c := range col[start : start+model.MaxConsecutiveRest+1] {
						if c.IsWork() {
							works++
						}
					}
					assert.Positive(t, works, "%s 从第 %d 天起连续 4 天休息", e, start)
				}
			}
		})
	}
}

func TestScenario_StatisticsPure(t *testing.T) {
	res := run(t, fixture.CheerWeek())
	first := stats.Compute(res.Assignment)
	second := stats.Compute(res.Assignment)
	assert.Empty(t, cmp.Diff(first, second))
	assert.Empty(t, cmp.Diff(res.Statistics.Records(), first.Records()))
}

func TestScenario_HolidayAndMandatoryOff(t *testing.T) {
	s := fixture.Week()
	s.Policy.Holidays = []time.Time{model.Date(2025, 9, 3)}
	ep := s.Policy.Employees[model.Core2]
	ep.MandatoryOff = []time.Time{model.Date(2025, 9, 5)}
	s.Policy.Employees[model.Core2] = ep

	res := run(t, s)
	a := res.Assignment

	// 节假日的晚班为 E
	for _, e := range model.Employees {
		code := a.Get(2, e)
		assert.NotEqual(t, model.LateShort, code, e.String())
	}
	lateLong := 0
	for _, e := range model.Employees {
		if a.Get(2, e) == model.LateLong {
			lateLong++
		}
	}
	assert.Equal(t, 1, lateLong)

	assert.Equal(t, model.Off, a.Get(4, model.Core2))
	assert.Equal(t, 3.0, res.Objective)
}

func TestScenario_PriorContext(t *testing.T) {
	s := fixture.Week()
	c2 := s.Policy.Employees[model.Core2]
	c2.Prior = model.PriorContext{Shift: model.Early, ConsecutiveWork: model.MaxConsecutiveWork}
	s.Policy.Employees[model.Core2] = c2
	c3 := s.Policy.Employees[model.Core3]
	c3.Prior = model.PriorContext{Shift: model.Off, ConsecutiveRest: model.MaxConsecutiveRest}
	s.Policy.Employees[model.Core3] = c3

	res := run(t, s)
	require.Equal(t, 7, res.Assignment.Days())

	assert.False(t, res.Assignment.Get(0, model.Core2).IsWork(), "前一日已连续工作 4 天，首日必须休息")
	assert.True(t, res.Assignment.Get(0, model.Core3).IsWork(), "前一日已连续休息 3 天，首日必须上班")
}

func TestScenario_Month(t *testing.T) {
	if testing.Short() {
		t.Skip("整月求解耗时较长")
	}
	s := fixture.Month()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	res, err := e.Run(context.Background(), request(s))
	require.NoError(t, err)
	assert.Equal(t, solver.StatusOptimal, res.Status)
	assert.Equal(t, glpk.Name, res.Solver)
	assert.Equal(t, 31, res.Assignment.Days())

	p := s.Policy
	for _, emp := range model.CoreEmployees {
		r := res.Statistics[emp]
		assert.Equal(t, p.For(emp).RestQuota, r.OffDays, emp)
		assert.True(t, p.Early.Contains(r.Early), "%s 早班 %d", emp, r.Early)
		assert.True(t, p.Late.Contains(r.Late), "%s 晚班 %d", emp, r.Late)
		assert.LessOrEqual(t, r.Isolated, p.For(emp).IsolatedAllowance, emp)
		if emp != model.Core1 {
			assert.True(t, p.Mid.Contains(r.Mid), "%s 中班 %d", emp, r.Mid)
		}
	}
	assert.Equal(t, p.SupportMidQuota, res.Coverage.SupportMidUsed)
	assert.Equal(t, 10, res.Coverage.CheerDays)

	cal := s.Calendar()
	for _, day := range cal.Days() {
		if day.IsCheer {
			assert.Equal(t, model.EarlyA, res.Assignment.Get(day.Index, model.Core1), "%s", model.FormatDate(day.Date))
		}
		if day.IsCampaign {
			// 活动日同时是助阵日，Core1 只能上早班，因此必须满员
			assert.Equal(t, 3, res.Assignment.Headcount(day.Index), "%s", model.FormatDate(day.Date))
		}
	}
	for _, off := range p.For(model.Core2).MandatoryOff {
		i, ok := cal.IndexOf(off)
		require.True(t, ok)
		assert.Equal(t, model.Off, res.Assignment.Get(i, model.Core2))
	}
}
