package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *MetricsRegistry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHistogram_Buckets(t *testing.T) {
	r := NewRegistry()
	h := r.NewHistogram("solve_seconds", "耗时", []string{"solver"}, []float64{1, 5})

	h.Observe(0.5, "search")
	h.Observe(3, "search")
	h.Observe(10, "search")

	assert.Equal(t, 3, h.Count("search"))
	out := scrape(t, r)
	assert.Contains(t, out, `solve_seconds_bucket{solver="search",le="1"} 1`)
	assert.Contains(t, out, `solve_seconds_bucket{solver="search",le="5"} 2`)
	assert.Contains(t, out, `solve_seconds_bucket{solver="search",le="+Inf"} 3`)
	assert.Contains(t, out, `solve_seconds_sum{solver="search"} 13.5`)
	assert.Contains(t, out, `solve_seconds_count{solver="search"} 3`)
}

func TestCounterAndGauge(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("runs_total", "次数", []string{"solver", "status"})
	g := r.NewGauge("active", "进行中", nil)

	c.Inc("search", "optimal")
	c.Add(2, "search", "optimal")
	g.Inc()
	g.Inc()
	g.Dec()

	assert.Equal(t, 3.0, c.Value("search", "optimal"))
	assert.Equal(t, 1.0, g.Value())

	out := scrape(t, r)
	assert.Contains(t, out, "# TYPE runs_total counter")
	assert.Contains(t, out, `runs_total{solver="search",status="optimal"} 3`)
	assert.Contains(t, out, "active 1")
}

func TestRecordRun(t *testing.T) {
	before := GetRegistry().GetCounter(RunsTotal).Value("search", "optimal")

	done := RunStarted()
	assert.GreaterOrEqual(t, GetRegistry().GetGauge(ActiveRuns).Value(), 1.0)
	RecordRun("search", "optimal", 200*time.Millisecond)
	done()

	assert.Equal(t, before+1, GetRegistry().GetCounter(RunsTotal).Value("search", "optimal"))

	SetModelSize(120, 300)
	assert.Equal(t, 300.0, GetRegistry().GetGauge(ModelSize).Value("rows"))

	RecordAuditViolation("daily_coverage")
	RecordArchive(false)
	SetPriorityFullRate(100)

	out := scrape(t, GetRegistry())
	assert.Contains(t, out, `kinmu_audit_violations_total{rule="daily_coverage"}`)
	assert.Contains(t, out, `kinmu_archive_total{result="failure"}`)
	assert.Contains(t, out, "kinmu_priority_full_rate 100")
}

func TestRecordRequestMetrics(t *testing.T) {
	RecordRequestMetrics("POST", "/api/v1/stats", 200, 15*time.Millisecond)
	out := scrape(t, GetRegistry())
	assert.Contains(t, out, `kinmu_http_requests_total{method="POST",path="/api/v1/stats",status="200"}`)
}
