package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"输入无效", InvalidInput("start", "格式错误"), http.StatusBadRequest},
		{"日期范围", InvalidRange("2025-09-07", "2025-09-01"), http.StatusBadRequest},
		{"前置条件", PolicyViolation("rest_quota", "超出天数"), http.StatusBadRequest},
		{"不存在", NotFound("run", "x"), http.StatusNotFound},
		{"未授权", New(CodeUnauthorized, "密钥无效"), http.StatusUnauthorized},
		{"限流", New(CodeRateLimited, "过于频繁"), http.StatusTooManyRequests},
		{"超时", Timeout("search", "5s"), http.StatusGatewayTimeout},
		{"无可行解", NoFeasibleSolution("无解"), http.StatusUnprocessableEntity},
		{"不变量", InvariantViolation("audit", "x"), http.StatusInternalServerError},
		{"求解器", SolverFailure("glpk", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus)
			assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
		})
	}
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeDatabaseError, "读取归档失败")

	assert.Equal(t, "[DATABASE_ERROR] 读取归档失败: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, Is(wrapped, CodeDatabaseError))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, CodeDatabaseError, GetCode(wrapped))
	assert.Equal(t, CodeUnknown, GetCode(cause))
}

func TestFields(t *testing.T) {
	err := InvalidRange("2025-09-07", "2025-09-01")
	assert.Equal(t, "2025-09-07", err.Fields["start"])
	assert.Equal(t, "2025-09-01", err.Fields["end"])
	assert.Equal(t, "[INVALID_TIME_RANGE] 结束日期 2025-09-01 早于开始日期 2025-09-07", err.Error())

	assert.Equal(t, "search", Timeout("search", "5s").Fields["solver"])
	assert.Equal(t, "未启用归档", NotFound("run", "x").WithDetails("未启用归档").Details)
}

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	assert.False(t, ve.HasErrors())
	assert.Equal(t, "验证失败", ve.Error())

	ve.Add("employees.core1.rest_quota", "不能为负")
	ve.Add("early.max", "小于下限")
	require.True(t, ve.HasErrors())
	assert.Equal(t, "验证失败: employees.core1.rest_quota - 不能为负", ve.Error())

	appErr := ve.ToAppError()
	assert.Equal(t, CodeValidationFail, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Len(t, appErr.Fields, 2)
	assert.Equal(t, "小于下限", appErr.Fields["early.max"])
}
