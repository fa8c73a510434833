package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/paiban/kinmu/internal/repository"
	apperrors "github.com/paiban/kinmu/pkg/errors"
)

// RunListResponse 归档列表响应
type RunListResponse struct {
	Runs   []*repository.Run `json:"runs"`
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
}

// GetRun 获取归档的排班结果
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, apperrors.InvalidInput("id", "无效的排班ID格式"))
		return
	}
	if h.runs == nil {
		respondError(w, r, apperrors.NotFound("run", raw).WithDetails("未启用归档"))
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, r, apperrors.NotFound("run", raw))
		return
	}
	if err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取归档失败"))
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// ListRuns 列出归档的排班结果
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, r, apperrors.NotFound("runs", "").WithDetails("未启用归档"))
		return
	}

	q := r.URL.Query()
	filter := repository.DefaultListFilter().
		WithSolver(q.Get("solver")).
		WithDateRange(q.Get("start"), q.Get("end"))
	filter.Status = q.Get("status")
	if v := q.Get("order_by"); v != "" {
		filter.OrderBy = v
	}
	if v := q.Get("order_dir"); v != "" {
		filter.OrderDir = v
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				respondError(w, r, apperrors.InvalidInput(p.name, "必须是非负整数"))
				return
			}
			*p.dst = n
		}
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询归档失败"))
		return
	}
	if runs == nil {
		runs = []*repository.Run{}
	}
	respondJSON(w, http.StatusOK, RunListResponse{Runs: runs, Total: total, Offset: filter.Offset, Limit: filter.Limit})
}
