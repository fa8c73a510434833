// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/internal/repository"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
	"github.com/paiban/kinmu/pkg/swap"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// Handler 排班 API 处理器
type Handler struct {
	engine      *scheduler.Engine
	runs        repository.RunStore // nil 表示未启用归档
	statsOpts   stats.Options
	recommender *swap.Recommender
}

// New 创建处理器，runs 为 nil 时不归档排班结果
func New(engine *scheduler.Engine, runs repository.RunStore, opts stats.Options) *Handler {
	return &Handler{
		engine:      engine,
		runs:        runs,
		statsOpts:   opts,
		recommender: swap.NewRecommender(swap.NewEvaluator(opts)),
	}
}

// Register 注册全部 API 路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/schedule/generate", h.Generate)
	mux.HandleFunc("POST /api/v1/schedule/validate", h.Validate)
	mux.HandleFunc("POST /api/v1/schedule/export", h.Export)
	mux.HandleFunc("POST /api/v1/schedule/swap", h.Swap)
	mux.HandleFunc("POST /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
	mux.HandleFunc("GET /api/v1/constraints/library", ConstraintLibrary)
	mux.HandleFunc("GET /api/v1/{$}", Index)
}

// Index API 根路由
func Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "kinmu 排班 API v1",
		"endpoints": map[string]string{
			"generate":    "POST /api/v1/schedule/generate",
			"validate":    "POST /api/v1/schedule/validate",
			"export":      "POST /api/v1/schedule/export?format=csv|xlsx",
			"swap":        "POST /api/v1/schedule/swap",
			"stats":       "POST /api/v1/stats",
			"runs":        "GET /api/v1/runs",
			"run":         "GET /api/v1/runs/{id}",
			"constraints": "GET /api/v1/constraints/library",
		},
	})
}

// decodeDocument 读取 JSON 参数文档，拒绝未知字段
func decodeDocument(w http.ResponseWriter, r *http.Request) (*input.Document, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "读取请求失败")
	}
	return input.Parse(body, input.FormatJSON)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应，非 AppError 视为内部错误
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "服务器内部错误")
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("请求失败")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}
