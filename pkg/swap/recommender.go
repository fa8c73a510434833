package swap

import (
	"fmt"
	"sort"

	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/model"
)

// Recommendation 一个可行的换班方案
type Recommendation struct {
	Rank       int            `json:"rank"`
	Partner    model.Employee `json:"partner"` // 与请假人相同时为本人调休
	ReturnDay  int            `json:"return_day"`
	ReturnDate string         `json:"return_date"`
	Edits      []Edit         `json:"edits"`
	Evaluation *Evaluation    `json:"evaluation"`
}

// Recommender 换班推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建推荐器
func NewRecommender(ev *Evaluator) *Recommender {
	return &Recommender{evaluator: ev}
}

// Evaluator 推荐器使用的评估器
func (r *Recommender) Evaluator() *Evaluator {
	return r.evaluator
}

// RestOn 为 e 在 day 休息寻找可行方案：
// 本人与某个休息日对调，或与当天休息的同事互换、并在对方上班而本人休息的一天换回。
// 结果按换回日与请假日的距离排序，limit<=0 表示不限
func (r *Recommender) RestOn(cal *calendar.Calendar, policy model.PolicyParameters, a *model.Assignment, e model.Employee, day, limit int) ([]Recommendation, error) {
	if !e.IsCore() {
		return nil, apperrors.InvalidInput("employee", "只有核心成员可以换班")
	}
	if day < 0 || day >= a.Days() {
		return nil, apperrors.InvalidInput("day", fmt.Sprintf("第 %d 天超出区间", day))
	}
	code := a.Get(day, e)
	if !code.IsWork() {
		return nil, apperrors.InvalidInput("day", "当天已经休息")
	}

	var out []Recommendation
	try := func(partner model.Employee, k int, edits []Edit) error {
		ev, err := r.evaluator.Evaluate(cal, policy, a, edits)
		if err != nil {
			return err
		}
		if ev.Feasible {
			out = append(out, Recommendation{
				Partner:    partner,
				ReturnDay:  k,
				ReturnDate: model.FormatDate(cal.Day(k).Date),
				Edits:      edits,
				Evaluation: ev,
			})
		}
		return nil
	}

	for k := 0; k < a.Days(); k++ {
		if k == day || a.Get(k, e).IsWork() {
			continue
		}
		if err := try(e, k, SwapDays(a, e, day, k)); err != nil {
			return nil, err
		}
	}

	for _, p := range model.CoreEmployees {
		if p == e || a.Get(day, p).IsWork() || !p.Allows(code) {
			continue
		}
		for k := 0; k < a.Days(); k++ {
			back := a.Get(k, p)
			if k == day || a.Get(k, e).IsWork() || !back.IsWork() || !e.Allows(back) {
				continue
			}
			edits := append(SwapMembers(a, e, p, day, day), SwapMembers(a, e, p, k, k)...)
			if err := try(p, k, edits); err != nil {
				return nil, err
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].ReturnDay-day) < abs(out[j].ReturnDay-day)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
