package builtin

import (
	"fmt"

	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// IsolatedWorkdayConstraint 前后都休息的单日上班（"一勤"）次数不超过允许值。
// 最后一天不计；第 0 天在前一日已知时按其休息状态判断，未知时只看第 1 天
type IsolatedWorkdayConstraint struct {
	*BaseConstraint
}

// NewIsolatedWorkdayConstraint 创建单日上班约束
func NewIsolatedWorkdayConstraint() *IsolatedWorkdayConstraint {
	return &IsolatedWorkdayConstraint{
		BaseConstraint: NewBaseConstraint("单日上班上限", constraint.TypeIsolatedWorkday, constraint.CategoryHard, 50),
	}
}

// Apply 为每个候选日创建指示变量 y，并用标准与式线性化使 y 恰好等于判定结果
func (c *IsolatedWorkdayConstraint) Apply(b *constraint.Builder) error {
	n := b.Days()
	if n < 2 {
		return nil
	}
	for _, e := range model.CoreEmployees {
		e := e
		prior := b.Policy.For(e).Prior
		var total mip.Expr

		for d := 0; d < n-1; d++ {
			d := d
			y := b.NewIndicator(fmt.Sprintf("iso_d%03d_%s", d, e), func(a *model.Assignment) bool {
				return IsIsolated(a, e, d, prior)
			})
			ys := mip.Sum(y)
			work, offNext := b.Work(d, e), b.Off(d+1, e)

			b.Model.AddLE(c.row(e, d, "work"), ys.Minus(work), 0)
			b.Model.AddLE(c.row(e, d, "next"), ys.Minus(offNext), 0)

			switch {
			case d > 0:
				offPrev := b.Off(d-1, e)
				b.Model.AddLE(c.row(e, d, "prev"), ys.Minus(offPrev), 0)
				b.Model.AddGE(c.row(e, d, "and"), ys.Minus(work).Minus(offPrev).Minus(offNext), -2)
			case prior.Known():
				priorOff := indicatorOf(!prior.Worked())
				b.Model.AddLE(c.row(e, d, "prev"), ys, priorOff)
				b.Model.AddGE(c.row(e, d, "and"), ys.Minus(work).Minus(offNext), priorOff-2)
			default:
				b.Model.AddGE(c.row(e, d, "and"), ys.Minus(work).Minus(offNext), -1)
			}
			total = total.Plus(ys)
		}
		b.Model.AddLE(c.totalRow(e, "allowance"), total, float64(b.Policy.For(e).IsolatedAllowance))
	}
	return nil
}

// IsIsolated 按模型口径判断第 d 天是否为单日上班
func IsIsolated(a *model.Assignment, e model.Employee, d int, prior model.PriorContext) bool {
	n := a.Days()
	if d < 0 || d >= n-1 {
		return false
	}
	if !a.Get(d, e).IsWork() || a.Get(d+1, e).IsWork() {
		return false
	}
	if d == 0 {
		return !prior.Worked()
	}
	return !a.Get(d-1, e).IsWork()
}
