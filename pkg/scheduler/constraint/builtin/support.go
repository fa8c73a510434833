package builtin

import (
	"github.com/paiban/kinmu/pkg/mip"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
)

// SupportRotationConstraint 支援岗位只在助阵日上班，且全区间支援中班总数固定
type SupportRotationConstraint struct {
	*BaseConstraint
}

// NewSupportRotationConstraint 创建支援岗位约束
func NewSupportRotationConstraint() *SupportRotationConstraint {
	return &SupportRotationConstraint{
		BaseConstraint: NewBaseConstraint("支援岗位", constraint.TypeSupportRotation, constraint.CategoryHard, 85),
	}
}

// Apply 写入约束
func (c *SupportRotationConstraint) Apply(b *constraint.Builder) error {
	var mids mip.Expr
	for d := 0; d < b.Days(); d++ {
		if b.Day(d).IsCheer {
			b.Model.AddEQ(c.row(model.Support, d, "work"), b.Work(d, model.Support), 1)
		} else {
			b.Model.AddEQ(c.row(model.Support, d, "off"), b.Off(d, model.Support), 1)
		}
		mids = mids.Plus(b.Cell(d, model.Support, model.MidSupport))
	}
	b.Model.AddEQ(c.totalRow(model.Support, "mid_quota"), mids, float64(b.Policy.SupportMidQuota))
	return nil
}

// CheerDayConstraint 助阵日：Core1 固定 As，Core2/Core3 在岗人数等于支援中班人数；
// 支援上中班的日子 Core2/Core3 不上早班和中班
type CheerDayConstraint struct {
	*BaseConstraint
}

// NewCheerDayConstraint 创建助阵日约束
func NewCheerDayConstraint() *CheerDayConstraint {
	return &CheerDayConstraint{
		BaseConstraint: NewBaseConstraint("助阵日", constraint.TypeCheerDay, constraint.CategoryHard, 80),
	}
}

// Apply 写入约束
func (c *CheerDayConstraint) Apply(b *constraint.Builder) error {
	for d := 0; d < b.Days(); d++ {
		supportMid := b.Cell(d, model.Support, model.MidSupport)
		if b.Day(d).IsCheer {
			b.Model.AddEQ(c.row(model.Core1, d, "early_a"), b.Cell(d, model.Core1, model.EarlyA), 1)
			onDuty := b.Work(d, model.Core2).Plus(b.Work(d, model.Core3))
			b.Model.AddEQ(c.dayRow(d, "pair"), onDuty.Minus(supportMid), 0)
		}
		for _, e := range []model.Employee{model.Core2, model.Core3} {
			b.Model.AddLE(c.row(e, d, "no_early_mid"), b.Early(d, e).Plus(b.Mid(d, e)).Plus(supportMid), 1)
		}
	}
	return nil
}
