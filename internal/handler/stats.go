package handler

import (
	"fmt"
	"net/http"

	"github.com/paiban/kinmu/internal/constraints"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/stats"
)

// StatsResponse 统计响应
type StatsResponse struct {
	Success   bool                   `json:"success"`
	Records   []stats.Record         `json:"records"`
	Coverage  *stats.CoverageMetrics `json:"coverage"`
	Fairness  *stats.FairnessMetrics `json:"fairness"`
	Conflicts int                    `json:"conflicts"` // 审计违反数，统计不要求排班表合规
}

// Stats 计算排班表的个人统计、在岗覆盖与公平性
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req, err := doc.Request()
	if err != nil {
		respondError(w, r, err)
		return
	}
	asg, err := doc.Assignment()
	if err != nil {
		respondError(w, r, err)
		return
	}
	cal, err := h.engine.Calendar(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if asg.Days() != cal.Len() {
		respondError(w, r, apperrors.InvalidInput("schedule",
			fmt.Sprintf("排班表有 %d 天，区间有 %d 天", asg.Days(), cal.Len())))
		return
	}
	conflicts, err := h.engine.Audit(req, asg)
	if err != nil {
		respondError(w, r, err)
		return
	}

	st := stats.ComputeWith(asg, h.statsOpts)
	respondJSON(w, http.StatusOK, StatsResponse{
		Success:   true,
		Records:   st.Records(),
		Coverage:  stats.Analyze(cal, asg),
		Fairness:  stats.NewFairnessAnalyzer().Analyze(asg, stats.WeekendMask(cal)),
		Conflicts: len(conflicts),
	})
}

// ConstraintLibrary 返回模型支持的全部规则及可调参数
func ConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.GetLibrary()})
}
