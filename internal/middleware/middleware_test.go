package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kinmu/internal/metrics"
	"github.com/paiban/kinmu/internal/security"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(RequestIDFrom(r.Context())))
	})
}

func TestRequestID(t *testing.T) {
	h := RequestID(okHandler())

	t.Run("沿用请求头", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "req-1")
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-1", rec.Body.String())
	})

	t.Run("自动生成", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		id := rec.Header().Get("X-Request-ID")
		assert.Len(t, id, 36)
		assert.Equal(t, id, rec.Body.String())
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestCORS_Preflight(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limiter := security.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	h := RateLimit(limiter)(okHandler())

	send := func() int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	assert.NotNil(t, RateLimit(nil)(okHandler()))
}

func TestAPIKey(t *testing.T) {
	h := APIKey(security.NewKeySet([]string{"secret"}), "/health")(okHandler())

	tests := []struct {
		name   string
		path   string
		key    string
		status int
	}{
		{"正确密钥", "/api/v1/stats", "secret", http.StatusOK},
		{"缺少密钥", "/api/v1/stats", "", http.StatusUnauthorized},
		{"错误密钥", "/api/v1/stats", "nope", http.StatusUnauthorized},
		{"跳过路径", "/health", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("未配置密钥时放行", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKey(security.NewKeySet(nil))(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/stats", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLogging_RecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	Logging(mux).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/runs/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c := metrics.GetRegistry().GetCounter(metrics.HTTPRequestsTotal)
	require.NotNil(t, c)
	assert.GreaterOrEqual(t, c.Value("GET", "/api/v1/runs/{id}", "404"), 1.0)
}
