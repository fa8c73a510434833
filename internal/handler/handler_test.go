package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/paiban/kinmu/internal/fixture"
	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/internal/repository"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

// memoryRuns 内存归档
type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*repository.Run
	fail error
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: map[uuid.UUID]*repository.Run{}}
}

func (m *memoryRuns) Create(ctx context.Context, run *repository.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) GetByID(ctx context.Context, id uuid.UUID) (*repository.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return run, nil
}

func (m *memoryRuns) List(ctx context.Context, filter repository.ListFilter) ([]*repository.Run, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*repository.Run
	for _, run := range m.runs {
		if filter.Solver == "" || run.Solver == filter.Solver {
			out = append(out, run)
		}
	}
	return out, len(out), nil
}

func (m *memoryRuns) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
	return nil
}

func newServer(t *testing.T, runs repository.RunStore) *http.ServeMux {
	t.Helper()
	cfg := scheduler.DefaultConfig()
	cfg.Timeout = time.Minute
	engine, err := scheduler.NewEngine(cfg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	New(engine, runs, stats.Options{}).Register(mux)
	return mux
}

// weekDocument 与 fixture.Week 等价的参数文档
func weekDocument(withSchedule bool) map[string]interface{} {
	member := func() map[string]interface{} {
		return map[string]interface{}{"rest_quota": 2, "isolated_allowance": 2}
	}
	wide := map[string]int{"min": 0, "max": 31}
	doc := map[string]interface{}{
		"start":             "2025-09-01",
		"end":               "2025-09-07",
		"employees":         map[string]interface{}{"core1": member(), "core2": member(), "core3": member()},
		"early":             wide,
		"late":              wide,
		"mid":               wide,
		"support_mid_quota": 0,
		"priority_days":     []string{"2025-09-07"},
	}
	if withSchedule {
		doc["schedule"] = input.FormatRows(fixture.Week().Schedule)
	}
	return doc
}

func do(t *testing.T, mux http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, &buf))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGenerate(t *testing.T) {
	runs := newMemoryRuns()
	mux := newServer(t, runs)

	rec := do(t, mux, "POST", "/api/v1/schedule/generate", weekDocument(false))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success  bool     `json:"success"`
		Schedule []string `json:"schedule"`
		Archived bool     `json:"archived"`
		Run      struct {
			RunID     uuid.UUID `json:"run_id"`
			Status    string    `json:"status"`
			Objective float64   `json:"objective"`
		} `json:"run"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Schedule, 7)
	assert.Equal(t, "optimal", resp.Run.Status)
	assert.Equal(t, 3.0, resp.Run.Objective)
	assert.True(t, resp.Archived)

	archived, err := runs.GetByID(context.Background(), resp.Run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", archived.StartDate)

	// 生成的排班表可以原样通过审计
	doc := weekDocument(false)
	doc["schedule"] = resp.Schedule
	rec = do(t, mux, "POST", "/api/v1/schedule/validate", doc)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["valid"])
}

func TestGenerate_ArchiveFailureKeepsResult(t *testing.T) {
	runs := newMemoryRuns()
	runs.fail = assert.AnError
	rec := do(t, newServer(t, runs), "POST", "/api/v1/schedule/generate", weekDocument(false))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["archived"])
}

func TestGenerate_Errors(t *testing.T) {
	mux := newServer(t, nil)

	infeasible := weekDocument(false)
	infeasible["employees"].(map[string]interface{})["core1"] = map[string]interface{}{"rest_quota": 9, "isolated_allowance": 2}

	reversed := weekDocument(false)
	reversed["end"] = "2025-08-31"

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"非法 JSON", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"未知字段", `{"start":"2025-09-01","end":"2025-09-07","unknown":1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"日期格式错误", map[string]string{"start": "09/01", "end": "2025-09-07"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"区间颠倒", reversed, http.StatusBadRequest, "INVALID_TIME_RANGE"},
		{"休息配额不可满足", infeasible, http.StatusUnprocessableEntity, "NO_FEASIBLE_SOLUTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/v1/schedule/generate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, true, body["error"])
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestValidate(t *testing.T) {
	mux := newServer(t, nil)

	t.Run("合规排班表", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/validate", weekDocument(true))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["valid"])
		assert.Empty(t, body["conflicts"])
	})

	t.Run("两人早班", func(t *testing.T) {
		doc := weekDocument(true)
		rows := doc["schedule"].([]string)
		rows[0] = "As A F -"
		rec := do(t, mux, "POST", "/api/v1/schedule/validate", doc)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["valid"])
		assert.NotEmpty(t, body["conflicts"])
		assert.Contains(t, body["summary"], "处违反")
	})

	t.Run("缺少排班表", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/validate", weekDocument(false))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStats(t *testing.T) {
	mux := newServer(t, nil)

	rec := do(t, mux, "POST", "/api/v1/stats", weekDocument(true))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Records, 3)
	assert.Equal(t, 0, resp.Conflicts)
	require.NotNil(t, resp.Coverage)
	assert.Equal(t, 1, resp.Coverage.PriorityFullDays)
	require.NotNil(t, resp.Fairness)

	t.Run("天数不一致", func(t *testing.T) {
		doc := weekDocument(true)
		doc["end"] = "2025-09-08"
		rec := do(t, mux, "POST", "/api/v1/stats", doc)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExport(t *testing.T) {
	mux := newServer(t, nil)

	t.Run("CSV", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/export?format=csv", weekDocument(true))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule_2025-09-01_2025-09-07.csv")

		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, "\ufeff"))
		assert.Contains(t, body, "2025-09-07 (Sun),As,C,E,,3,重点")
	})

	t.Run("XLSX 先生成", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/export?format=xlsx", weekDocument(false))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"排班表", "统计"}, f.GetSheetList())
	})

	t.Run("不支持的格式", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/export?format=pdf", weekDocument(true))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRuns(t *testing.T) {
	t.Run("未启用归档", func(t *testing.T) {
		mux := newServer(t, nil)
		rec := do(t, mux, "GET", "/api/v1/runs/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = do(t, mux, "GET", "/api/v1/runs", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	runs := newMemoryRuns()
	run := &repository.Run{ID: uuid.New(), StartDate: "2025-09-01", EndDate: "2025-09-07", Solver: "search", Status: "optimal"}
	require.NoError(t, runs.Create(context.Background(), run))
	mux := newServer(t, runs)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"存在", "/api/v1/runs/" + run.ID.String(), http.StatusOK},
		{"不存在", "/api/v1/runs/" + uuid.NewString(), http.StatusNotFound},
		{"非法ID", "/api/v1/runs/not-a-uuid", http.StatusBadRequest},
		{"列表", "/api/v1/runs?solver=search&limit=5", http.StatusOK},
		{"非法分页", "/api/v1/runs?limit=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "GET", tt.target, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, mux, "GET", "/api/v1/runs?solver=search", nil)
	var list RunListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestConstraintLibraryAndIndex(t *testing.T) {
	mux := newServer(t, nil)

	rec := do(t, mux, "GET", "/api/v1/constraints/library", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lib, ok := decode(t, rec)["library"].([]interface{})
	require.True(t, ok)
	assert.Len(t, lib, 14)

	rec = do(t, mux, "GET", "/api/v1/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/schedule/generate")

	rec = do(t, mux, "GET", "/api/v1/schedule/generate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSwap(t *testing.T) {
	mux := newServer(t, nil)

	t.Run("评估调整", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/swap", map[string]interface{}{
			"params": weekDocument(true),
			"edits": []map[string]string{
				{"date": "2025-09-02", "employee": "core2", "code": "off"},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		ev := body["evaluation"].(map[string]interface{})
		assert.Equal(t, false, ev["feasible"])
		assert.NotEmpty(t, ev["conflicts"])
		rows := body["schedule"].([]interface{})
		assert.Equal(t, "F - - -", rows[1])
	})

	t.Run("请假推荐", func(t *testing.T) {
		rec := do(t, mux, "POST", "/api/v1/schedule/swap", map[string]interface{}{
			"params": weekDocument(true),
			"rest":   map[string]interface{}{"date": "2025-09-02", "employee": "core2"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		recs := decode(t, rec)["recommendations"].([]interface{})
		require.NotEmpty(t, recs)
		first := recs[0].(map[string]interface{})
		assert.Equal(t, float64(1), first["rank"])
		assert.Equal(t, true, first["evaluation"].(map[string]interface{})["feasible"])
	})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"缺少调整", map[string]interface{}{"params": weekDocument(true)}},
		{"同时提供", map[string]interface{}{
			"params": weekDocument(true),
			"edits":  []map[string]string{{"date": "2025-09-02", "employee": "core2", "code": "off"}},
			"rest":   map[string]interface{}{"date": "2025-09-02", "employee": "core2"},
		}},
		{"日期不在区间", map[string]interface{}{
			"params": weekDocument(true),
			"rest":   map[string]interface{}{"date": "2025-10-01", "employee": "core2"},
		}},
		{"未知成员", map[string]interface{}{
			"params": weekDocument(true),
			"edits":  []map[string]string{{"date": "2025-09-02", "employee": "boss", "code": "off"}},
		}},
		{"不允许的班次", map[string]interface{}{
			"params": weekDocument(true),
			"edits":  []map[string]string{{"date": "2025-09-02", "employee": "core1", "code": "C"}},
		}},
		{"缺少排班表", map[string]interface{}{
			"params": weekDocument(false),
			"rest":   map[string]interface{}{"date": "2025-09-02", "employee": "core2"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/v1/schedule/swap", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}
