// Package swap 评估对已有排班表的手工调整，并为请假推荐换班方案
package swap

import (
	"fmt"
	"strings"

	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/stats"
	"github.com/paiban/kinmu/pkg/validator"
)

// Edit 把一格改为指定班次
type Edit struct {
	Day      int             `json:"day"`
	Employee model.Employee  `json:"employee"`
	Code     model.ShiftCode `json:"code"`
}

// SwapMembers 两名成员在 [from, to] 内互换班次
func SwapMembers(a *model.Assignment, e1, e2 model.Employee, from, to int) []Edit {
	edits := make([]Edit, 0, 2*(to-from+1))
	for d := from; d <= to; d++ {
		c1, c2 := a.Get(d, e1), a.Get(d, e2)
		if c1 == c2 {
			continue
		}
		edits = append(edits, Edit{Day: d, Employee: e1, Code: c2}, Edit{Day: d, Employee: e2, Code: c1})
	}
	return edits
}

// SwapDays 同一成员两天的班次互换
func SwapDays(a *model.Assignment, e model.Employee, d1, d2 int) []Edit {
	c1, c2 := a.Get(d1, e), a.Get(d2, e)
	if c1 == c2 {
		return nil
	}
	return []Edit{{Day: d1, Employee: e, Code: c2}, {Day: d2, Employee: e, Code: c1}}
}

// Apply 返回应用调整后的副本，不修改原表
func Apply(a *model.Assignment, edits []Edit) (*model.Assignment, error) {
	out := model.NewAssignment(a.Days())
	for d := 0; d < a.Days(); d++ {
		for _, e := range model.Employees {
			out.Set(d, e, a.Get(d, e))
		}
	}
	for i, ed := range edits {
		field := fmt.Sprintf("edits[%d]", i)
		if ed.Day < 0 || ed.Day >= a.Days() {
			return nil, apperrors.InvalidInput(field, fmt.Sprintf("第 %d 天超出区间", ed.Day))
		}
		if ed.Employee < model.Core1 || ed.Employee > model.Support {
			return nil, apperrors.InvalidInput(field, "未知成员")
		}
		if !ed.Employee.Allows(ed.Code) {
			return nil, apperrors.InvalidInput(field,
				fmt.Sprintf("%s 不能排 %s", ed.Employee, ed.Code))
		}
		out.Set(ed.Day, ed.Employee, ed.Code)
	}
	return out, nil
}

// Impact 单个核心成员的统计变化（调整后减调整前）
type Impact struct {
	Employee    model.Employee `json:"employee"`
	OffDays     int            `json:"off_days"`
	Early       int            `json:"early"`
	Late        int            `json:"late"`
	Mid         int            `json:"mid"`
	Isolated    int            `json:"isolated"`
	LongestWork int            `json:"longest_work"`
	LongestRest int            `json:"longest_rest"`
}

func (im Impact) zero() bool {
	return im == Impact{Employee: im.Employee}
}

func diff(e model.Employee, before, after stats.Record) Impact {
	return Impact{
		Employee:    e,
		OffDays:     after.OffDays - before.OffDays,
		Early:       after.Early - before.Early,
		Late:        after.Late - before.Late,
		Mid:         after.Mid - before.Mid,
		Isolated:    after.Isolated - before.Isolated,
		LongestWork: after.LongestWork - before.LongestWork,
		LongestRest: after.LongestRest - before.LongestRest,
	}
}

// Evaluation 调整评估结果
type Evaluation struct {
	Feasible       bool                 `json:"feasible"`
	Assignment     *model.Assignment    `json:"assignment"`
	Conflicts      []validator.Conflict `json:"conflicts"`
	Introduced     int                  `json:"introduced"` // 调整后与调整前违反数之差
	Impacts        []Impact             `json:"impacts"`    // 仅列出统计有变化的成员
	Fairness       map[string]float64   `json:"fairness"`
	Recommendation string               `json:"recommendation"`
}

// Evaluator 调整评估器
type Evaluator struct {
	auditor  *validator.Auditor
	fairness *stats.FairnessAnalyzer
	opts     stats.Options
}

// NewEvaluator 创建评估器
func NewEvaluator(opts stats.Options) *Evaluator {
	return &Evaluator{
		auditor:  validator.NewAuditor(nil),
		fairness: stats.NewFairnessAnalyzer(),
		opts:     opts,
	}
}

// Evaluate 应用调整并重新审计；调整本身不合法时返回错误
func (ev *Evaluator) Evaluate(cal *calendar.Calendar, policy model.PolicyParameters, a *model.Assignment, edits []Edit) (*Evaluation, error) {
	if a.Days() != cal.Len() {
		return nil, apperrors.InvalidInput("schedule",
			fmt.Sprintf("排班表有 %d 天，区间有 %d 天", a.Days(), cal.Len()))
	}
	after, err := Apply(a, edits)
	if err != nil {
		return nil, err
	}

	before := ev.auditor.Audit(cal, policy, a)
	conflicts := ev.auditor.Audit(cal, policy, after)
	result := &Evaluation{
		Feasible:   len(conflicts) == 0,
		Assignment: after,
		Conflicts:  conflicts,
		Introduced: len(conflicts) - len(before),
		Impacts:    []Impact{},
		Fairness:   ev.fairness.CompareSchedules(a, after, stats.WeekendMask(cal)),
	}
	if result.Conflicts == nil {
		result.Conflicts = []validator.Conflict{}
	}

	sb, sa := stats.ComputeWith(a, ev.opts), stats.ComputeWith(after, ev.opts)
	for _, e := range model.CoreEmployees {
		if im := diff(e, sb[e], sa[e]); !im.zero() {
			result.Impacts = append(result.Impacts, im)
		}
	}
	result.Recommendation = recommendation(result, policy)
	return result, nil
}

func recommendation(r *Evaluation, policy model.PolicyParameters) string {
	if !r.Feasible {
		return fmt.Sprintf("调整后有 %d 处违反，不建议执行", len(r.Conflicts))
	}
	if len(r.Impacts) == 0 {
		return "调整可行，统计无变化"
	}
	names := make([]string, len(r.Impacts))
	for i, im := range r.Impacts {
		names[i] = policy.DisplayName(im.Employee)
	}
	return "调整可行，影响 " + strings.Join(names, "、") + " 的统计"
}
