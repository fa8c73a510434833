package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/paiban/kinmu/internal/input"
	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/swap"
)

// SwapRequest 调班请求，edits 与 rest 二选一
type SwapRequest struct {
	Params input.Document `json:"params"`
	Edits  []EditDoc      `json:"edits,omitempty"`
	Rest   *RestDoc       `json:"rest,omitempty"`
}

// EditDoc 单格调整
type EditDoc struct {
	Date     string `json:"date"`
	Employee string `json:"employee"`
	Code     string `json:"code"`
}

// RestDoc 请假，返回可行的换班方案
type RestDoc struct {
	Date     string `json:"date"`
	Employee string `json:"employee"`
	Limit    int    `json:"limit,omitempty"`
}

// SwapResponse 调班响应
type SwapResponse struct {
	Evaluation      *swap.Evaluation      `json:"evaluation,omitempty"`
	Schedule        []string              `json:"schedule,omitempty"`
	Recommendations []swap.Recommendation `json:"recommendations,omitempty"`
}

// Swap 评估手工调整或为请假推荐换班
func (h *Handler) Swap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeInvalidInput, "读取请求失败"))
		return
	}
	var sr SwapRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sr); err != nil {
		respondError(w, r, apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析调班请求失败"))
		return
	}
	if (len(sr.Edits) == 0) == (sr.Rest == nil) {
		respondError(w, r, apperrors.InvalidInput("edits", "edits 与 rest 必须且只能提供一个"))
		return
	}

	req, err := sr.Params.Request()
	if err != nil {
		respondError(w, r, err)
		return
	}
	asg, err := sr.Params.Assignment()
	if err != nil {
		respondError(w, r, err)
		return
	}
	cal, err := h.engine.Calendar(req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if sr.Rest != nil {
		e, day, err := locate(cal, "rest", sr.Rest.Employee, sr.Rest.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		recs, err := h.recommender.RestOn(cal, req.Policy, asg, e, day, sr.Rest.Limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if recs == nil {
			recs = []swap.Recommendation{}
		}
		respondJSON(w, http.StatusOK, SwapResponse{Recommendations: recs})
		return
	}

	edits := make([]swap.Edit, len(sr.Edits))
	for i, ed := range sr.Edits {
		field := fmt.Sprintf("edits[%d]", i)
		e, day, err := locate(cal, field, ed.Employee, ed.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		code, err := model.ParseShiftCode(ed.Code)
		if err != nil {
			respondError(w, r, apperrors.InvalidInput(field, err.Error()))
			return
		}
		edits[i] = swap.Edit{Day: day, Employee: e, Code: code}
	}

	ev, err := h.recommender.Evaluator().Evaluate(cal, req.Policy, asg, edits)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SwapResponse{Evaluation: ev, Schedule: input.FormatRows(ev.Assignment)})
}

// locate 解析成员与日期
func locate(cal *calendar.Calendar, field, employee, date string) (model.Employee, int, error) {
	e, err := model.ParseEmployee(employee)
	if err != nil {
		return 0, 0, apperrors.InvalidInput(field+".employee", err.Error())
	}
	t, err := model.ParseDate(date)
	if err != nil {
		return 0, 0, apperrors.InvalidInput(field+".date", err.Error())
	}
	day, ok := cal.IndexOf(t)
	if !ok {
		return 0, 0, apperrors.InvalidInput(field+".date", fmt.Sprintf("%s 不在区间内", date))
	}
	return e, day, nil
}
