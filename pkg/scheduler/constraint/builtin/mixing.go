package builtin

import (
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// ShiftMixingConstraint 连续上班的 window 天内必须出现早班；Core2/Core3 还必须出现晚班。
// 写成 Σ早班 + Σ休息 ≥ 1，窗口内有休息即自动满足
type ShiftMixingConstraint struct {
	*BaseConstraint
	window int
}

// NewShiftMixingConstraint 创建班次混排约束
func NewShiftMixingConstraint(window int) *ShiftMixingConstraint {
	return &ShiftMixingConstraint{
		BaseConstraint: NewBaseConstraint("班次混排", constraint.TypeShiftMixing, constraint.CategoryHard, 55),
		window:         window,
	}
}

// needsLate Core1 只要求早班
func needsLate(e model.Employee) bool {
	return e != model.Core1
}

// Apply 写入约束
func (c *ShiftMixingConstraint) Apply(b *constraint.Builder) error {
	for _, e := range model.CoreEmployees {
		for start := 0; start+c.window <= b.Days(); start++ {
			offs := b.Window(start, start+c.window, e, b.Off)
			b.Model.AddGE(c.row(e, start, "early"), b.Window(start, start+c.window, e, b.Early).Plus(offs), 1)
			if needsLate(e) {
				b.Model.AddGE(c.row(e, start, "late"), b.Window(start, start+c.window, e, b.Late).Plus(offs), 1)
			}
		}

		// 前一日已知且上班时，{前一日, 第0天, ...} 构成首个窗口
		prior := b.Policy.For(e).Prior
		span := c.window - 1
		if !prior.Worked() || span > b.Days() {
			continue
		}
		offs := b.Window(0, span, e, b.Off)
		early := b.Window(0, span, e, b.Early).Plus(offs).Plus(mip.Const(indicatorOf(prior.Shift.IsEarly())))
		b.Model.AddGE(c.row(e, 0, "prior_early"), early, 1)
		if needsLate(e) {
			late := b.Window(0, span, e, b.Late).Plus(offs).Plus(mip.Const(indicatorOf(prior.Shift.IsLate())))
			b.Model.AddGE(c.row(e, 0, "prior_late"), late, 1)
		}
	}
	return nil
}

func indicatorOf(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
