package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kinmu/internal/fixture"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/stats"
	"github.com/paiban/kinmu/pkg/validator"
)

func TestApply(t *testing.T) {
	s := fixture.Week()
	a := s.Schedule

	out, err := Apply(a, []Edit{{Day: 1, Employee: model.Core2, Code: model.Off}})
	require.NoError(t, err)
	assert.Equal(t, model.Off, out.Get(1, model.Core2))
	assert.Equal(t, model.Early, a.Get(1, model.Core2), "原表不变")

	tests := []struct {
		name string
		edit Edit
	}{
		{"超出区间", Edit{Day: 7, Employee: model.Core2, Code: model.Off}},
		{"负数天", Edit{Day: -1, Employee: model.Core2, Code: model.Off}},
		{"未知成员", Edit{Day: 0, Employee: model.Employee(9), Code: model.Off}},
		{"不允许的班次", Edit{Day: 0, Employee: model.Core1, Code: model.Mid}},
		{"未知班次", Edit{Day: 0, Employee: model.Core2, Code: model.ShiftNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(a, []Edit{tt.edit})
			assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
		})
	}
}

func TestSwapHelpers(t *testing.T) {
	a := fixture.Week().Schedule

	// 第 1 天与第 4 天完全相同
	assert.Empty(t, SwapDays(a, model.Core2, 1, 4))
	assert.Equal(t, []Edit{
		{Day: 0, Employee: model.Core2, Code: model.Early},
		{Day: 1, Employee: model.Core2, Code: model.Off},
	}, SwapDays(a, model.Core2, 0, 1))

	edits := SwapMembers(a, model.Core2, model.Core3, 0, 0)
	assert.Equal(t, []Edit{
		{Day: 0, Employee: model.Core2, Code: model.LateShort},
		{Day: 0, Employee: model.Core3, Code: model.Off},
	}, edits)
}

func TestEvaluate(t *testing.T) {
	s := fixture.Week()
	cal := s.Calendar()
	ev := NewEvaluator(stats.Options{})

	t.Run("无调整", func(t *testing.T) {
		res, err := ev.Evaluate(cal, s.Policy, s.Schedule, nil)
		require.NoError(t, err)
		assert.True(t, res.Feasible)
		assert.Empty(t, res.Conflicts)
		assert.Empty(t, res.Impacts)
		assert.Equal(t, 0, res.Introduced)
		assert.Equal(t, "调整可行，统计无变化", res.Recommendation)
		assert.Zero(t, res.Fairness["overall_score_diff"])
		assert.Equal(t, res.Fairness["schedule1_overall_score"], res.Fairness["schedule2_overall_score"])
	})

	t.Run("Core2 与 Core3 整周互换", func(t *testing.T) {
		res, err := ev.Evaluate(cal, s.Policy, s.Schedule, SwapMembers(s.Schedule, model.Core2, model.Core3, 0, 6))
		require.NoError(t, err)
		assert.True(t, res.Feasible, validator.Summary(res.Conflicts))
		require.Len(t, res.Impacts, 2)
		assert.Equal(t, model.Core2, res.Impacts[0].Employee)
		assert.Equal(t, 1, res.Impacts[0].Late)
		assert.Equal(t, -1, res.Impacts[0].Mid)
		assert.Equal(t, -1, res.Impacts[1].Late)
		assert.Equal(t, 1, res.Impacts[1].Mid)
	})

	t.Run("单人改休导致违反", func(t *testing.T) {
		res, err := ev.Evaluate(cal, s.Policy, s.Schedule, []Edit{{Day: 1, Employee: model.Core2, Code: model.Off}})
		require.NoError(t, err)
		assert.False(t, res.Feasible)
		assert.Positive(t, res.Introduced)
		assert.Contains(t, res.Recommendation, "不建议执行")

		types := make(map[string]bool)
		for _, c := range res.Conflicts {
			types[string(c.Type)] = true
		}
		assert.Len(t, types, 2, validator.Summary(res.Conflicts))
	})

	t.Run("天数不一致", func(t *testing.T) {
		_, err := ev.Evaluate(cal, s.Policy, model.NewAssignment(3), nil)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	})
}

func TestRestOn(t *testing.T) {
	s := fixture.Week()
	cal := s.Calendar()
	r := NewRecommender(NewEvaluator(stats.Options{}))

	recs, err := r.RestOn(cal, s.Policy, s.Schedule, model.Core2, 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	auditor := validator.NewAuditor(nil)
	found := false
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.Rank)
		assert.True(t, rec.Evaluation.Feasible)
		assert.False(t, rec.Evaluation.Assignment.Get(1, model.Core2).IsWork())
		assert.Empty(t, auditor.Audit(cal, s.Policy, rec.Evaluation.Assignment))
		if rec.Partner == model.Core3 && rec.ReturnDay == 0 {
			found = true
			assert.Equal(t, "2025-09-01", rec.ReturnDate)
			assert.Equal(t, model.LateShort, rec.Evaluation.Assignment.Get(0, model.Core2))
			assert.Equal(t, model.Early, rec.Evaluation.Assignment.Get(1, model.Core3))
		}
	}
	assert.True(t, found, "应推荐与 Core3 互换并在 9/1 换回")

	// 原表不变
	assert.Equal(t, model.Early, s.Schedule.Get(1, model.Core2))

	limited, err := r.RestOn(cal, s.Policy, s.Schedule, model.Core2, 1, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRestOn_Errors(t *testing.T) {
	s := fixture.Week()
	cal := s.Calendar()
	r := NewRecommender(NewEvaluator(stats.Options{}))

	tests := []struct {
		name string
		e    model.Employee
		day  int
	}{
		{"支援不参与换班", model.Support, 0},
		{"当天已休息", model.Core2, 0},
		{"超出区间", model.Core2, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RestOn(cal, s.Policy, s.Schedule, tt.e, tt.day, 0)
			assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
		})
	}
}
