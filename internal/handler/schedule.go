package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/paiban/kinmu/internal/export"
	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/internal/metrics"
	"github.com/paiban/kinmu/internal/repository"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
	"github.com/paiban/kinmu/pkg/validator"
)

// archiveTimeout 归档写入时限
const archiveTimeout = 5 * time.Second

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success  bool                 `json:"success"`
	Run      *scheduler.RunResult `json:"run"`
	Schedule []string             `json:"schedule"` // 每日一行 "Core1 Core2 Core3 Support"
	Archived bool                 `json:"archived"`
	Duration string               `json:"duration"`
}

// ValidateResponse 排班审计响应
type ValidateResponse struct {
	Valid     bool                 `json:"valid"`
	Conflicts []validator.Conflict `json:"conflicts"`
	Summary   string               `json:"summary,omitempty"`
}

// Generate 生成排班
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.run(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:  true,
		Run:      res,
		Schedule: input.FormatRows(res.Assignment),
		Archived: h.archive(r.Context(), res),
		Duration: res.Duration.String(),
	})
}

// run 执行一次排班并记录指标
func (h *Handler) run(ctx context.Context, req scheduler.Request) (*scheduler.RunResult, error) {
	done := metrics.RunStarted()
	defer done()

	start := time.Now()
	res, err := h.engine.Run(ctx, req)
	if err != nil {
		metrics.RecordRun(h.engine.SolverName(), string(apperrors.GetCode(err)), time.Since(start))
		return nil, err
	}

	metrics.RecordRun(res.Solver, string(res.Status), res.Duration)
	metrics.SetModelSize(res.Model.Vars, res.Model.Rows)
	if res.Coverage != nil && res.Coverage.PriorityDays > 0 {
		metrics.SetPriorityFullRate(res.Coverage.PriorityRate)
	}
	return res, nil
}

// archive 写入归档，失败只记录日志
func (h *Handler) archive(ctx context.Context, res *scheduler.RunResult) bool {
	if h.runs == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := h.runs.Create(ctx, repository.FromResult(res)); err != nil {
		logger.WithContext(logger.ContextWithRunID(ctx, res.RunID.String())).Error().Err(err).Msg("排班结果归档失败")
		metrics.RecordArchive(false)
		return false
	}
	metrics.RecordArchive(true)
	return true
}

// Validate 审计已有排班表
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
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

	conflicts, err := h.engine.Audit(req, asg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, c := range conflicts {
		metrics.RecordAuditViolation(string(c.Type))
	}

	resp := ValidateResponse{Valid: len(conflicts) == 0, Conflicts: conflicts}
	if resp.Conflicts == nil {
		resp.Conflicts = []validator.Conflict{}
	}
	if !resp.Valid {
		resp.Summary = fmt.Sprintf("共 %d 处违反", len(conflicts))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Export 导出排班表：文档带 schedule 时直接导出，否则先生成
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}
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

	var report export.Report
	if len(doc.Schedule) > 0 {
		report, err = h.reportFromDocument(doc, req)
	} else {
		var res *scheduler.RunResult
		if res, err = h.run(r.Context(), req); err == nil {
			h.archive(r.Context(), res)
			report = export.FromRun(res)
		}
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report, format); err != nil {
		respondError(w, r, err)
		return
	}

	name := export.FileName("", "schedule", report.Calendar.Start(), report.Calendar.End(), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) reportFromDocument(doc *input.Document, req scheduler.Request) (export.Report, error) {
	asg, err := doc.Assignment()
	if err != nil {
		return export.Report{}, err
	}
	cal, err := h.engine.Calendar(req)
	if err != nil {
		return export.Report{}, err
	}
	return export.Report{
		Calendar:   cal,
		Policy:     req.Policy,
		Assignment: asg,
		Statistics: stats.ComputeWith(asg, h.statsOpts),
	}, nil
}
