package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kinmu/internal/fixture"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
	"github.com/paiban/kinmu/pkg/stats"
)

func TestFromResult(t *testing.T) {
	sc := fixture.Week()
	cal := sc.Calendar()
	res := &scheduler.RunResult{
		RunID:      uuid.New(),
		Start:      "2025-09-01",
		End:        "2025-09-07",
		Calendar:   cal,
		Policy:     sc.Policy,
		Assignment: sc.Schedule,
		Statistics: stats.Compute(sc.Schedule),
		Coverage:   stats.Analyze(cal, sc.Schedule),
		Objective:  1,
		Solver:     "search",
		Status:     solver.StatusOptimal,
		Model:      scheduler.ModelSize{Vars: 120, Rows: 340, Rules: 14},
		Duration:   1500 * time.Millisecond,
		CreatedAt:  time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC),
	}

	run := FromResult(res)

	assert.Equal(t, res.RunID, run.ID)
	assert.Equal(t, "2025-09-01", run.StartDate)
	assert.Equal(t, "2025-09-07", run.EndDate)
	assert.Equal(t, string(solver.StatusOptimal), run.Status)
	assert.Equal(t, 120, run.Vars)
	assert.Equal(t, 340, run.Rows)
	assert.Equal(t, int64(1500), run.DurationMS)
	assert.Same(t, sc.Schedule, run.Assignment)

	// 归档列按 JSON 存储，读回后排班表一致
	raw, err := json.Marshal(run.Assignment)
	require.NoError(t, err)
	back := &model.Assignment{}
	require.NoError(t, json.Unmarshal(raw, back))
	assert.Equal(t, sc.Schedule.Column(model.Core3), back.Column(model.Core3))
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   ListFilter
		where    string
		argCount int
	}{
		{"无条件", DefaultListFilter(), "", 0},
		{"求解器", DefaultListFilter().WithSolver("glpk"), "WHERE solver = $1", 1},
		{
			"日期范围",
			DefaultListFilter().WithDateRange("2025-08-16", "2025-09-15"),
			"WHERE start_date >= $1 AND end_date <= $2",
			2,
		},
		{
			"全部条件",
			ListFilter{Solver: "search", Status: "optimal", StartDate: "2025-08-16", EndDate: "2025-09-15"},
			"WHERE solver = $1 AND status = $2 AND start_date >= $3 AND end_date <= $4",
			4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildWhere(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Len(t, args, tt.argCount)
		})
	}
}

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   ListFilter
		contains string
		limit    int
	}{
		{"默认排序", DefaultListFilter(), "ORDER BY created_at DESC LIMIT $1 OFFSET $2", 20},
		{"升序", ListFilter{OrderBy: "start_date", OrderDir: "ASC", Limit: 5}, "ORDER BY start_date ASC", 5},
		{"非法排序列", ListFilter{OrderBy: "id; DROP TABLE", Limit: 10}, "ORDER BY created_at DESC", 10},
		{"超出上限", DefaultListFilter().WithLimit(1000), "LIMIT $1", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter, "", nil)
			assert.Contains(t, query, tt.contains)
			require.Len(t, args, 2)
			assert.Equal(t, tt.limit, args[0])
			assert.Equal(t, tt.filter.Offset, args[1])
		})
	}

	t.Run("参数编号接在过滤条件之后", func(t *testing.T) {
		f := DefaultListFilter().WithSolver("glpk").WithOffset(40)
		where, args := buildWhere(f)
		query, args := buildListQuery(f, where, args)
		assert.Contains(t, query, "WHERE solver = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3")
		assert.Equal(t, []interface{}{"glpk", 20, 40}, args)
	})
}
